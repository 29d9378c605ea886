package push

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

const (
	deliverTimeout   = 10 * time.Second
	defaultWorkers   = 8
	defaultQueueSize = 256
	userAgent        = "AdCP-Sales-Agent/1.0"
	jwtLifetime      = 5 * time.Minute
)

// MetricsRecorder is an optional callback for recording delivery outcomes.
type MetricsRecorder func(success bool)

// delivery is one queued webhook post.
type delivery struct {
	cfg *Config
	n   Notification
}

// Sender posts task status updates to webhook targets. Dispatch never
// blocks the caller: deliveries queue to a bounded worker pool so one slow
// receiver cannot starve the agent, and a full queue drops.
type Sender struct {
	agentName string
	client    *http.Client
	queue     chan delivery
	workers   int
	start     sync.Once
	onMetrics MetricsRecorder
	logger    *zap.Logger
}

// NewSender builds a Sender. agentName becomes the JWT issuer for configs
// using the JWT scheme.
func NewSender(agentName string, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		agentName: agentName,
		client:    &http.Client{Timeout: deliverTimeout},
		queue:     make(chan delivery, defaultQueueSize),
		workers:   defaultWorkers,
		logger:    logger,
	}
}

// SetMetricsRecorder configures the metrics callback.
func (s *Sender) SetMetricsRecorder(fn MetricsRecorder) { s.onMetrics = fn }

// SetPool sizes the delivery worker pool. Set before the first Dispatch;
// not guarded afterwards.
func (s *Sender) SetPool(workers, queueSize int) {
	if workers > 0 {
		s.workers = workers
	}
	if queueSize > 0 {
		s.queue = make(chan delivery, queueSize)
	}
}

// Dispatch schedules a delivery and returns immediately. Failures are
// logged and swallowed; the triggering request never sees them. A full
// queue drops the notification and counts it as a failed delivery.
func (s *Sender) Dispatch(cfg *Config, n Notification) {
	if cfg == nil || cfg.URL == "" {
		return
	}
	s.start.Do(func() {
		for i := 0; i < s.workers; i++ {
			go s.work()
		}
	})
	select {
	case s.queue <- delivery{cfg: cfg, n: n}:
	default:
		s.logger.Warn("webhook queue full, dropping notification",
			zap.String("url", cfg.URL),
			zap.String("task_id", n.TaskID),
			zap.String("status", n.Status))
		s.recordMetric(false)
	}
}

func (s *Sender) work() {
	for d := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := s.Deliver(ctx, d.cfg, d.n); err != nil {
			s.logger.Warn("webhook delivery failed",
				zap.String("url", d.cfg.URL),
				zap.String("task_id", d.n.TaskID),
				zap.String("status", d.n.Status),
				zap.Error(err))
		}
		cancel()
	}
}

// Deliver performs one synchronous delivery. A notification is sent at
// most once per status so receivers observe working before terminal even
// when an attempt fails.
func (s *Sender) Deliver(ctx context.Context, cfg *Config, n Notification) error {
	body, err := json.Marshal(buildPayload(n))
	if err != nil {
		s.recordMetric(false)
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rewriteLocalhost(cfg.URL), bytes.NewReader(body))
	if err != nil {
		s.recordMetric(false)
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if cfg.Token != "" {
		req.Header.Set("X-AdCP-Notification-Token", cfg.Token)
	}
	if err := s.authenticate(req, cfg, n, body); err != nil {
		s.recordMetric(false)
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.recordMetric(false)
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.recordMetric(false)
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	s.recordMetric(true)
	return nil
}

// payload is the fixed webhook body shape.
type payload struct {
	TaskID      string `json:"task_id"`
	TaskType    string `json:"task_type"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	AdCPVersion string `json:"adcp_version"`
	Result      any    `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
}

func buildPayload(n Notification) payload {
	return payload{
		TaskID:      n.TaskID,
		TaskType:    n.TaskType,
		Status:      n.Status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		AdCPVersion: adcp.Version,
		Result:      n.Result,
		Error:       n.Error,
	}
}

// authenticate applies the config's requested scheme to the outgoing
// request. The HMAC canonical form is "<unix_ts>.<compact json body>".
func (s *Sender) authenticate(req *http.Request, cfg *Config, n Notification, body []byte) error {
	creds := credentialsOf(cfg)
	switch cfg.Authentication.Scheme() {
	case SchemeHMAC:
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		mac := hmac.New(sha256.New, []byte(creds))
		mac.Write([]byte(ts))
		mac.Write([]byte("."))
		mac.Write(body)
		req.Header.Set("X-AdCP-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
		req.Header.Set("X-AdCP-Timestamp", ts)
	case SchemeBearer:
		req.Header.Set("Authorization", "Bearer "+creds)
	case SchemeJWT:
		token, err := s.signJWT(cfg.URL, n.TaskID, creds)
		if err != nil {
			return fmt.Errorf("sign webhook jwt: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case SchemeNone:
	default:
		s.logger.Warn("unknown webhook auth scheme, sending unauthenticated",
			zap.String("scheme", cfg.Authentication.Scheme()))
	}
	return nil
}

// signJWT issues a short-lived HS256 token bound to the target URL so a
// leaked token cannot authenticate calls to other receivers.
func (s *Sender) signJWT(audience, taskID, secret string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":     s.agentName,
		"aud":     audience,
		"iat":     jwt.NewNumericDate(now),
		"exp":     jwt.NewNumericDate(now.Add(jwtLifetime)),
		"task_id": taskID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// rewriteLocalhost retargets localhost URLs at host.docker.internal so a
// containerized agent can reach test receivers on the host machine.
func rewriteLocalhost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() != "localhost" {
		return raw
	}
	host := "host.docker.internal"
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	return u.String()
}

func (s *Sender) recordMetric(success bool) {
	if s.onMetrics != nil {
		s.onMetrics(success)
	}
}
