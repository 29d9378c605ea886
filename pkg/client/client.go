package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adcontexthq/salesagent/pkg/agentcard"
)

// Part is one ordered content part of a message or artifact.
type Part struct {
	Kind string          `json:"kind,omitempty"`
	Text string          `json:"text,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is one A2A message.
type Message struct {
	Kind      string `json:"kind,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	Parts     []Part `json:"parts"`
}

// TaskStatus is a point-in-time task state snapshot.
type TaskStatus struct {
	State     string   `json:"state"`
	Message   *Message `json:"message,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Artifact is one structured result attached to a task. Parts keep the
// order [summary text, payload data].
type Artifact struct {
	ArtifactID string `json:"artifactId,omitempty"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the task view returned by message/send, tasks/get and
// tasks/cancel.
type Task struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Authentication selects how the agent authenticates webhook posts.
type Authentication struct {
	Schemes     []string `json:"schemes,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
}

// PushConfig is a webhook registration.
type PushConfig struct {
	ID             string          `json:"id,omitempty"`
	URL            string          `json:"url"`
	Token          string          `json:"token,omitempty"`
	Authentication *Authentication `json:"authentication,omitempty"`
}

// PushConfigResult is the result shape of the pushNotificationConfig
// methods.
type PushConfigResult struct {
	TaskID                 string      `json:"taskId,omitempty"`
	PushNotificationConfig *PushConfig `json:"pushNotificationConfig"`
}

// Envelope is the wrapper around every explicit-skill result carried in
// an artifact's data part.
type Envelope struct {
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Message   string          `json:"message,omitempty"`
	TaskID    string          `json:"task_id,omitempty"`
	ContextID string          `json:"context_id,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// DecodePayload unmarshals the envelope payload into out.
func (e *Envelope) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("envelope has no payload")
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// Result returns the first artifact's data part decoded as an Envelope.
// Natural-language sends produce bare payloads instead; use Data for
// those.
func (t *Task) Result() (*Envelope, bool) {
	raw, ok := t.Data()
	if !ok {
		return nil, false
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		return nil, false
	}
	return &env, true
}

// Data returns the first data part across the task's artifacts, raw.
func (t *Task) Data() (json.RawMessage, bool) {
	for _, a := range t.Artifacts {
		for _, p := range a.Parts {
			if len(p.Data) > 0 {
				return p.Data, true
			}
		}
	}
	return nil, false
}

// Text returns the agent's status message text, if any. For
// input-required tasks this is the guidance the agent wants relayed.
func (t *Task) Text() string {
	if t.Status.Message == nil {
		return ""
	}
	for _, p := range t.Status.Message.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// RPCError is a JSON-RPC error returned by the agent.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// DataCode returns the structured code carried in the error data, empty
// when absent.
func (e *RPCError) DataCode() string {
	var d struct {
		Code string `json:"code"`
	}
	if len(e.Data) == 0 || json.Unmarshal(e.Data, &d) != nil {
		return ""
	}
	return d.Code
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type sendConfiguration struct {
	PushNotificationConfig *PushConfig `json:"pushNotificationConfig,omitempty"`
}

type sendParams struct {
	Message       Message            `json:"message"`
	Configuration *sendConfiguration `json:"configuration,omitempty"`
}

// Client talks to one sales agent's A2A endpoint.
type Client struct {
	endpoint   string
	baseURL    string
	token      string
	webhook    *PushConfig
	httpClient *http.Client
	seq        atomic.Uint64
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches the principal's access token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithWebhook attaches a push-notification config to every send, so task
// lifecycle updates post to its URL without a separate registration call.
func WithWebhook(cfg PushConfig) Option {
	return func(c *Client) error {
		if cfg.URL == "" {
			return fmt.Errorf("webhook url is required")
		}
		c.webhook = &cfg
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Only use
// this in development against self-signed agents.
func WithInsecureSkipVerify() Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			Timeout: 30 * time.Second,
		}
		return nil
	}
}

// New creates a Client for the agent at endpoint. endpoint may be a full
// A2A URL, a base URL, or a bare host; https and the /a2a path are
// assumed when omitted.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("agent endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err == nil && u.Host == "" {
		u, err = url.Parse("https://" + endpoint)
	}
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid agent endpoint %q", endpoint)
	}
	base := *u
	base.Path = ""
	if u.Path == "" || u.Path == "/" {
		u.Path = "/a2a"
	}

	c := &Client{
		endpoint:   u.String(),
		baseURL:    base.String(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program
// init.
func MustNew(endpoint string, opts ...Option) *Client {
	c, err := New(endpoint, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Discover fetches and validates the agent's card.
func (c *Client) Discover(ctx context.Context) (*agentcard.Card, error) {
	cardURL := c.baseURL + "/.well-known/agent-card.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read agent card: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card fetch returned HTTP %d", resp.StatusCode)
	}
	return agentcard.Parse(body)
}

// CallSkill invokes one skill explicitly and returns the resulting task.
// input is the skill's request payload; nil sends an empty input.
func (c *Client) CallSkill(ctx context.Context, skill string, input any) (*Task, error) {
	if skill == "" {
		return nil, fmt.Errorf("skill name is required")
	}
	data := map[string]any{"skill": skill}
	if input != nil {
		data["input"] = input
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal skill input: %w", err)
	}
	return c.send(ctx, Message{
		Kind:      "message",
		MessageID: "msg_" + uuid.NewString(),
		Role:      "user",
		Parts:     []Part{{Kind: "data", Data: raw}},
	})
}

// SendText sends a natural-language message and returns the resulting
// task.
func (c *Client) SendText(ctx context.Context, text string) (*Task, error) {
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}
	return c.send(ctx, Message{
		Kind:      "message",
		MessageID: "msg_" + uuid.NewString(),
		Role:      "user",
		Parts:     []Part{{Kind: "text", Text: text}},
	})
}

func (c *Client) send(ctx context.Context, msg Message) (*Task, error) {
	params := sendParams{Message: msg}
	if c.webhook != nil {
		params.Configuration = &sendConfiguration{PushNotificationConfig: c.webhook}
	}
	var task Task
	if err := c.rpc(ctx, "message/send", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask polls a task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.rpc(ctx, "tasks/get", map[string]string{"id": taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask requests cancellation and returns the task's final state.
// Canceling an already-canceled task is not an error.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.rpc(ctx, "tasks/cancel", map[string]string{"id": taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// RegisterWebhook registers a push-notification config. Pass taskID to
// bind the config to one task's lifecycle; empty registers a standing
// config that also receives scheduled delivery reports.
func (c *Client) RegisterWebhook(ctx context.Context, taskID string, cfg PushConfig) (*PushConfigResult, error) {
	params := map[string]any{"pushNotificationConfig": cfg}
	if taskID != "" {
		params["taskId"] = taskID
	}
	var out PushConfigResult
	if err := c.rpc(ctx, "tasks/pushNotificationConfig/set", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWebhooks returns the principal's registered configs, credentials
// redacted.
func (c *Client) ListWebhooks(ctx context.Context) ([]PushConfigResult, error) {
	var out []PushConfigResult
	if err := c.rpc(ctx, "tasks/pushNotificationConfig/list", map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteWebhook removes a registered config by id.
func (c *Client) DeleteWebhook(ctx context.Context, configID string) error {
	return c.rpc(ctx, "tasks/pushNotificationConfig/delete",
		map[string]string{"pushNotificationConfigId": configID}, nil)
}

// rpc performs one JSON-RPC call against the A2A endpoint. A *RPCError
// return means the agent refused the request; transport failures come
// back as plain errors.
func (c *Client) rpc(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      strconv.FormatUint(c.seq.Add(1), 10),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call agent: %w", err)
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("agent returned HTTP %d: %s", resp.StatusCode, string(respBytes))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBytes, &rpcResp); err != nil {
		return fmt.Errorf("decode agent response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
