package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/push"
	"github.com/adcontexthq/salesagent/internal/skills"
)

// Skills is the skill-dispatch surface the server consumes.
type Skills interface {
	Call(ctx context.Context, tc *auth.ToolContext, skill string, params json.RawMessage) (*skills.Outcome, error)
}

// ConfigStore persists push notification configs.
type ConfigStore interface {
	Save(ctx context.Context, cfg *push.Config) error
	Get(ctx context.Context, tenantID, principalID, id string) (*push.Config, error)
	List(ctx context.Context, tenantID, principalID string) ([]*push.Config, error)
	GetBySession(ctx context.Context, tenantID, principalID, sessionID string) (*push.Config, error)
	Delete(ctx context.Context, tenantID, principalID, id string) error
}

// Dispatcher delivers task status webhooks without blocking the request.
type Dispatcher interface {
	Dispatch(cfg *push.Config, n push.Notification)
}

// Server is the A2A JSON-RPC endpoint: one POST route dispatching
// message/send, message/stream, tasks/*, and the push config methods,
// plus the agent card discovery routes.
type Server struct {
	skills   Skills
	resolver *auth.Resolver
	tasks    *TaskStore
	configs  ConfigStore
	sender   Dispatcher

	agentName string
	version   string
	logger    *zap.Logger
}

// ServerConfig carries the server dependencies. Configs and Sender may be
// nil; push notification methods then report an internal error and sends
// skip webhook delivery.
type ServerConfig struct {
	Skills    Skills
	Resolver  *auth.Resolver
	Tasks     *TaskStore
	Configs   ConfigStore
	Sender    Dispatcher
	AgentName string
	Version   string
	Logger    *zap.Logger
}

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.AgentName
	if name == "" {
		name = "AdCP Sales Agent"
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	return &Server{
		skills:    cfg.Skills,
		resolver:  cfg.Resolver,
		tasks:     cfg.Tasks,
		configs:   cfg.Configs,
		sender:    cfg.Sender,
		agentName: name,
		version:   version,
		logger:    logger,
	}
}

// Register mounts the A2A routes on the router.
func (s *Server) Register(r gin.IRouter) {
	r.POST("/a2a", s.handleRPC)
	r.GET("/.well-known/agent-card.json", s.handleAgentCard)
	r.GET("/.well-known/agent.json", s.handleAgentCard)
	r.GET("/agent.json", s.handleAgentCard)
	r.GET("/debug/tenant", s.handleDebugTenant)
}

// ---- JSON-RPC dispatch ----

func (s *Server) handleRPC(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.reply(c, json.RawMessage("null"), nil, rpcErrorf(codeParseError, "", "could not read request body"))
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.reply(c, json.RawMessage("null"), nil, rpcErrorf(codeParseError, "", "invalid JSON payload"))
		return
	}
	req.ID = coerceID(req.ID)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("a2a handler panic",
				zap.String("method", req.Method),
				zap.Any("panic", r))
			if !c.Writer.Written() {
				s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "internal error"))
			}
		}
	}()

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidRequest, "", "jsonrpc must be \"2.0\""))
		return
	}

	switch req.Method {
	case "message/send":
		s.handleMessageSend(c, &req)
	case "message/stream":
		s.handleMessageStream(c, &req)
	case "tasks/get":
		s.handleTasksGet(c, &req)
	case "tasks/cancel":
		s.handleTasksCancel(c, &req)
	case "tasks/pushNotificationConfig/set":
		s.handlePushConfigSet(c, &req)
	case "tasks/pushNotificationConfig/get":
		s.handlePushConfigGet(c, &req)
	case "tasks/pushNotificationConfig/list":
		s.handlePushConfigList(c, &req)
	case "tasks/pushNotificationConfig/delete":
		s.handlePushConfigDelete(c, &req)
	case "":
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidRequest, "", "method is required"))
	default:
		s.reply(c, req.ID, nil, rpcErrorf(codeMethodNotFound, "", fmt.Sprintf("method %q is not supported", req.Method)))
	}
}

func (s *Server) reply(c *gin.Context, id json.RawMessage, result any, rpcErr *rpcError) {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}
	c.JSON(http.StatusOK, resp)
}

// buildContext resolves the caller's identity from transport signals and
// maps every resolution failure to InvalidRequest with its stable code.
func (s *Server) buildContext(c *gin.Context, toolName, contextID string, optionalAuth bool) (*auth.ToolContext, *rpcError) {
	sig := auth.SignalsFromRequest(c.Request, auth.TokenFromA2A(c.Request), auth.ProtocolA2A)
	tc, err := s.resolver.BuildContext(c.Request.Context(), sig, toolName, contextID, optionalAuth)
	if err != nil {
		return nil, rpcErrorf(codeInvalidRequest, auth.ErrorCode(err), err.Error())
	}
	return tc, nil
}

// ---- message/send ----

func (s *Server) handleMessageSend(c *gin.Context, req *rpcRequest) {
	params, rpcErr := decodeSendParams(req.Params)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}

	tc, rpcErr := s.buildContext(c, "message/send", params.Message.ContextID, true)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}

	task, rpcErr := s.run(c.Request.Context(), tc, params, nil)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	s.reply(c, req.ID, task, nil)
}

func decodeSendParams(raw json.RawMessage) (*MessageSendParams, *rpcError) {
	if len(raw) == 0 {
		return nil, rpcErrorf(codeInvalidParams, "", "params are required")
	}
	var params MessageSendParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, rpcErrorf(codeInvalidParams, "", "params do not match the message/send schema")
	}
	if len(params.Message.Parts) == 0 {
		return nil, rpcErrorf(codeInvalidParams, "", "message must contain at least one part")
	}
	return &params, nil
}

// run executes one inbound message end to end: create the task, resolve
// the push config, announce working, execute the skills or the routed
// text intent, and record the terminal state. onWorking, when set, is
// called with the freshly created task before execution so streaming can
// emit the intermediate status frame.
func (s *Server) run(ctx context.Context, tc *auth.ToolContext, params *MessageSendParams, onWorking func(*Task)) (*Task, *rpcError) {
	parsed := parseMessage(params.Message)

	metadata := map[string]any{
		"invocation_type": invocationType(parsed),
	}
	if parsed.Text != "" {
		metadata["request_text"] = parsed.Text
	}
	if names := parsed.skillNames(); len(names) > 0 {
		metadata["skills_requested"] = names
	}

	cfg := s.effectiveConfig(ctx, tc, params)
	if cfg != nil {
		// Only the destination is echoed through tasks/get; credentials
		// stay out of task metadata.
		metadata["push_notification_config"] = map[string]any{"url": cfg.URL}
	}

	task := s.tasks.Create(tc.TenantID, tc.PrincipalID, tc.ContextID, metadata)
	if cfg != nil {
		s.tasks.SetPushConfig(task.ID, cfg)
		if s.configs != nil && params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
			persisted := *cfg
			persisted.SessionID = task.ID
			if err := s.configs.Save(ctx, &persisted); err != nil {
				s.logger.Warn("persisting per-send push config failed",
					zap.String("task_id", task.ID), zap.Error(err))
			}
		}
		s.notifyStatus(cfg, task, taskType(parsed), StateWorking, nil, "")
	}
	if onWorking != nil {
		onWorking(task)
	}

	exec, rpcErr := s.execute(ctx, tc, task, parsed)
	if rpcErr != nil {
		failed, _ := s.tasks.Update(task.ID, func(t *Task) {
			t.Status = TaskStatus{State: StateFailed, Timestamp: now()}
		})
		if cfg != nil && failed != nil {
			s.notifyStatus(cfg, failed, taskType(parsed), StateFailed, nil, rpcErr.Message)
		}
		return nil, rpcErr
	}

	final, ok := s.tasks.Update(task.ID, func(t *Task) {
		t.Artifacts = exec.artifacts
		t.Status = TaskStatus{State: exec.state, Timestamp: now()}
		if exec.message != "" {
			t.Status.Message = agentMessage(exec.message, t.ContextID, t.ID)
		}
	})
	if !ok {
		return nil, rpcErrorf(codeInternalError, "", "task evicted during execution")
	}

	if cfg != nil {
		switch exec.state {
		case StateFailed:
			s.notifyStatus(cfg, final, taskType(parsed), exec.state, nil, exec.errText)
		case StateInputRequired:
			// Conversation is waiting on the caller; no webhook fires.
		default:
			s.notifyStatus(cfg, final, taskType(parsed), exec.state, exec.resultData, "")
		}
	}
	return final, nil
}

// effectiveConfig picks the push config for this send: an inline config
// wins, otherwise the caller's most recently registered config applies.
// Anonymous callers get none.
func (s *Server) effectiveConfig(ctx context.Context, tc *auth.ToolContext, params *MessageSendParams) *push.Config {
	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		cfg := *params.Configuration.PushNotificationConfig
		if cfg.URL == "" {
			return nil
		}
		cfg.TenantID = tc.TenantID
		cfg.PrincipalID = tc.PrincipalID
		return &cfg
	}
	if tc.IsAnonymous() || s.configs == nil {
		return nil
	}
	registered, err := s.configs.List(ctx, tc.TenantID, tc.PrincipalID)
	if err != nil {
		s.logger.Warn("listing push configs failed",
			zap.String("tenant_id", tc.TenantID), zap.Error(err))
		return nil
	}
	if len(registered) == 0 {
		return nil
	}
	return registered[len(registered)-1]
}

func (s *Server) notifyStatus(cfg *push.Config, task *Task, taskType, state string, result any, errText string) {
	if s.sender == nil || cfg == nil || task == nil {
		return
	}
	s.sender.Dispatch(cfg, push.Notification{
		TaskID:   task.ID,
		TaskType: taskType,
		Status:   state,
		Result:   result,
		Error:    errText,
	})
}

// ---- execution ----

type execution struct {
	artifacts  []Artifact
	state      string
	message    string
	errText    string
	resultData map[string]any
}

func (s *Server) execute(ctx context.Context, tc *auth.ToolContext, task *Task, parsed parsedMessage) (*execution, *rpcError) {
	if parsed.explicit() {
		return s.executeSkills(ctx, tc, task, parsed.Invocations)
	}
	return s.executeText(ctx, tc, task, parsed.Text)
}

// executeSkills runs each requested skill in order. Protocol failures
// (unknown skill, bad params, missing auth) abort the whole batch as a
// JSON-RPC error; domain failures land as failed artifacts and only
// degrade the terminal state.
func (s *Server) executeSkills(ctx context.Context, tc *auth.ToolContext, task *Task, invocations []invocation) (*execution, *rpcError) {
	exec := &execution{resultData: map[string]any{}}
	completed, submitted, failed := 0, 0, 0
	var failText string

	for _, inv := range invocations {
		out, err := s.skills.Call(ctx, tc, inv.Skill, inv.Params)
		if err != nil {
			return nil, protocolError(err)
		}

		envelope := Envelope{
			Status:    out.State,
			Payload:   out.Data,
			Message:   out.Summary,
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Timestamp: now(),
		}
		exec.artifacts = append(exec.artifacts, Artifact{
			ArtifactID: "artifact_" + uuid.NewString(),
			Name:       out.Artifact,
			Parts:      []Part{TextPart(out.Summary), DataPart(envelope)},
		})
		exec.resultData[out.Artifact] = out.Data

		switch out.State {
		case skills.StateSubmitted:
			submitted++
		case skills.StateFailed:
			failed++
			if failText == "" {
				failText = out.Summary
			}
		default:
			completed++
		}
	}

	switch {
	case failed > 0 && completed == 0 && submitted == 0:
		exec.state = StateFailed
		exec.errText = failText
	case submitted > 0 && completed == 0 && failed == 0:
		exec.state = StateSubmitted
	default:
		exec.state = StateCompleted
	}
	return exec, nil
}

// executeText serves a free-text message by routing it to the closest
// skill. The router is keyword-based; swapping in a real classifier only
// touches routeText.
func (s *Server) executeText(ctx context.Context, tc *auth.ToolContext, task *Task, text string) (*execution, *rpcError) {
	switch routeText(text) {
	case intentProducts:
		return s.textProducts(ctx, tc, task, text)
	case intentPricing:
		return s.textPricing(ctx, tc, task, text)
	case intentTargeting:
		return s.textTargeting(ctx, tc, task, text)
	case intentCreate:
		return &execution{
			state: StateInputRequired,
			message: "I can set up a media buy for you. Please provide the products, " +
				"budget, flight dates, and a buyer reference, or call the " +
				"create_media_buy skill directly with those details.",
		}, nil
	default:
		return s.textCapabilities(task)
	}
}

func (s *Server) textProducts(ctx context.Context, tc *auth.ToolContext, task *Task, text string) (*execution, *rpcError) {
	out, resp, rpcErr := s.callProducts(ctx, tc, text)
	if rpcErr != nil {
		return nil, rpcErr
	}
	data := map[string]any{"products": resp.Products, "errors": nilIfEmpty(resp.Errors)}
	return textExecution("product_catalog", resp.Summary(), data, out.State), nil
}

func (s *Server) textPricing(ctx context.Context, tc *auth.ToolContext, task *Task, text string) (*execution, *rpcError) {
	out, resp, rpcErr := s.callProducts(ctx, tc, text)
	if rpcErr != nil {
		return nil, rpcErr
	}
	data := map[string]any{"products": resp.Products, "errors": nilIfEmpty(resp.Errors)}
	return textExecution("pricing_summary", pricingSummary(resp.Products), data, out.State), nil
}

func (s *Server) textTargeting(ctx context.Context, tc *auth.ToolContext, task *Task, text string) (*execution, *rpcError) {
	params, err := json.Marshal(map[string]any{"signal_spec": text})
	if err != nil {
		return nil, rpcErrorf(codeInternalError, "", "encoding signal query failed")
	}
	out, err := s.skills.Call(ctx, tc, "get_signals", params)
	if err != nil {
		return nil, protocolError(err)
	}
	var data any = out.Data
	if resp, ok := out.Data.(*adcp.GetSignalsResponse); ok {
		data = map[string]any{"signals": resp.Signals, "errors": nilIfEmpty(resp.Errors)}
	}
	return textExecution("targeting_overview", out.Summary, data, out.State), nil
}

func (s *Server) textCapabilities(task *Task) (*execution, *rpcError) {
	defs := skills.Definitions()
	lines := make([]string, 0, len(defs)+1)
	lines = append(lines, fmt.Sprintf("%s supports the following skills:", s.agentName))
	listed := make([]map[string]string, 0, len(defs))
	for _, d := range defs {
		lines = append(lines, fmt.Sprintf("- %s: %s", d.Name, d.Description))
		listed = append(listed, map[string]string{"name": d.Name, "description": d.Description})
	}
	data := map[string]any{"skills": listed}
	return textExecution("capabilities_overview", strings.Join(lines, "\n"), data, skills.StateCompleted), nil
}

// textExecution packs one routed-text result into an execution. A failed
// underlying skill fails the task; the artifact still carries the errors.
func textExecution(name, summary string, data any, state string) *execution {
	exec := &execution{
		artifacts: []Artifact{{
			ArtifactID: "artifact_" + uuid.NewString(),
			Name:       name,
			Parts:      []Part{TextPart(summary), DataPart(data)},
		}},
		state:      StateCompleted,
		resultData: map[string]any{name: data},
	}
	if state == skills.StateFailed {
		exec.state = StateFailed
		exec.errText = summary
	}
	return exec
}

// callProducts invokes get_products for a routed text query. Anonymous
// discovery needs a brand manifest, so the principal name stands in, or a
// generic advertiser for unauthenticated callers.
func (s *Server) callProducts(ctx context.Context, tc *auth.ToolContext, text string) (*skills.Outcome, *adcp.GetProductsResponse, *rpcError) {
	manifest := "Advertiser"
	if tc.Principal != nil && tc.Principal.Name != "" {
		manifest = tc.Principal.Name
	}
	params, err := json.Marshal(map[string]any{"brief": text, "brand_manifest": manifest})
	if err != nil {
		return nil, nil, rpcErrorf(codeInternalError, "", "encoding product query failed")
	}
	out, err := s.skills.Call(ctx, tc, "get_products", params)
	if err != nil {
		return nil, nil, protocolError(err)
	}
	resp, ok := out.Data.(*adcp.GetProductsResponse)
	if !ok {
		return nil, nil, rpcErrorf(codeInternalError, "", "unexpected get_products payload")
	}
	return out, resp, nil
}

func pricingSummary(products []adcp.Product) string {
	if len(products) == 0 {
		return "No priced products are available."
	}
	lines := make([]string, 0, len(products)+1)
	lines = append(lines, "Current pricing:")
	for _, p := range products {
		for _, opt := range p.PricingOptions {
			cur := opt.Currency
			if cur == "" {
				cur = "USD"
			}
			if opt.IsFixed {
				lines = append(lines, fmt.Sprintf("- %s: %.2f %s %s (fixed)", p.Name, opt.Rate, cur, strings.ToUpper(opt.PricingModel)))
				continue
			}
			if g := opt.PriceGuidance; g != nil {
				lines = append(lines, fmt.Sprintf("- %s: %.2f-%.2f %s %s (auction)", p.Name, g.Floor, g.P90, cur, strings.ToUpper(opt.PricingModel)))
				continue
			}
			lines = append(lines, fmt.Sprintf("- %s: %s priced by auction", p.Name, strings.ToUpper(opt.PricingModel)))
		}
	}
	return strings.Join(lines, "\n")
}

// protocolError maps skill-dispatch failures to JSON-RPC errors.
func protocolError(err error) *rpcError {
	switch {
	case errors.Is(err, skills.ErrUnknownSkill):
		return rpcErrorf(codeMethodNotFound, "skill_not_found", err.Error())
	case errors.Is(err, skills.ErrInvalidParams):
		return rpcErrorf(codeInvalidParams, adcp.CodeValidationError, err.Error())
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return rpcErrorf(codeInvalidRequest, auth.ErrorCode(err), err.Error())
	default:
		return rpcErrorf(codeInternalError, "", err.Error())
	}
}

// ---- tasks/get, tasks/cancel ----

func (s *Server) handleTasksGet(c *gin.Context, req *rpcRequest) {
	var params TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params require a task id"))
		return
	}
	tc, rpcErr := s.buildContext(c, "tasks/get", "", true)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	task, ok := s.tasks.Get(params.ID, tc.TenantID, tc.PrincipalID, tc.IsAdmin())
	if !ok {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "task_not_found", fmt.Sprintf("task %q not found", params.ID)))
		return
	}
	s.reply(c, req.ID, task, nil)
}

func (s *Server) handleTasksCancel(c *gin.Context, req *rpcRequest) {
	var params TaskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params require a task id"))
		return
	}
	tc, rpcErr := s.buildContext(c, "tasks/cancel", "", true)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	task, found, transitioned := s.tasks.Cancel(params.ID, tc.TenantID, tc.PrincipalID, tc.IsAdmin())
	if !found {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "task_not_found", fmt.Sprintf("task %q not found", params.ID)))
		return
	}
	if transitioned {
		if cfg := s.tasks.PushConfig(task.ID); cfg != nil {
			s.notifyStatus(cfg, task, taskTypeFromMetadata(task.Metadata), StateCanceled, nil, "")
		}
	}
	s.reply(c, req.ID, task, nil)
}

// ---- tasks/pushNotificationConfig/* ----

func (s *Server) handlePushConfigSet(c *gin.Context, req *rpcRequest) {
	tc, rpcErr := s.buildContext(c, "tasks/pushNotificationConfig/set", "", false)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	if s.configs == nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "push notification storage is unavailable"))
		return
	}
	var params PushConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params do not match the pushNotificationConfig/set schema"))
		return
	}
	if params.PushNotificationConfig == nil || params.PushNotificationConfig.URL == "" {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "pushNotificationConfig.url is required"))
		return
	}

	cfg := *params.PushNotificationConfig
	cfg.TenantID = tc.TenantID
	cfg.PrincipalID = tc.PrincipalID
	cfg.SessionID = params.taskID()
	if err := s.configs.Save(c.Request.Context(), &cfg); err != nil {
		s.logger.Error("saving push config failed", zap.Error(err))
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "saving push notification config failed"))
		return
	}
	s.reply(c, req.ID, PushConfigResult{TaskID: cfg.SessionID, PushNotificationConfig: cfg.Redacted()}, nil)
}

func (s *Server) handlePushConfigGet(c *gin.Context, req *rpcRequest) {
	tc, rpcErr := s.buildContext(c, "tasks/pushNotificationConfig/get", "", false)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	if s.configs == nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "push notification storage is unavailable"))
		return
	}
	var params PushConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params do not match the pushNotificationConfig/get schema"))
		return
	}

	var cfg *push.Config
	var err error
	switch {
	case params.PushNotificationConfigID != "":
		cfg, err = s.configs.Get(c.Request.Context(), tc.TenantID, tc.PrincipalID, params.PushNotificationConfigID)
	case params.taskID() != "":
		cfg, err = s.configs.GetBySession(c.Request.Context(), tc.TenantID, tc.PrincipalID, params.taskID())
	default:
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params require a config or task id"))
		return
	}
	if err != nil {
		if errors.Is(err, push.ErrConfigNotFound) {
			s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "config_not_found", "push notification config not found"))
			return
		}
		s.logger.Error("loading push config failed", zap.Error(err))
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "loading push notification config failed"))
		return
	}
	s.reply(c, req.ID, PushConfigResult{TaskID: cfg.SessionID, PushNotificationConfig: cfg.Redacted()}, nil)
}

func (s *Server) handlePushConfigList(c *gin.Context, req *rpcRequest) {
	tc, rpcErr := s.buildContext(c, "tasks/pushNotificationConfig/list", "", false)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	if s.configs == nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "push notification storage is unavailable"))
		return
	}
	configs, err := s.configs.List(c.Request.Context(), tc.TenantID, tc.PrincipalID)
	if err != nil {
		s.logger.Error("listing push configs failed", zap.Error(err))
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "listing push notification configs failed"))
		return
	}
	results := make([]PushConfigResult, 0, len(configs))
	for i := range configs {
		results = append(results, PushConfigResult{
			TaskID:                 configs[i].SessionID,
			PushNotificationConfig: configs[i].Redacted(),
		})
	}
	s.reply(c, req.ID, results, nil)
}

func (s *Server) handlePushConfigDelete(c *gin.Context, req *rpcRequest) {
	tc, rpcErr := s.buildContext(c, "tasks/pushNotificationConfig/delete", "", false)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	if s.configs == nil {
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "push notification storage is unavailable"))
		return
	}
	var params PushConfigParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.PushNotificationConfigID == "" {
		s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "", "params require pushNotificationConfigId"))
		return
	}
	if err := s.configs.Delete(c.Request.Context(), tc.TenantID, tc.PrincipalID, params.PushNotificationConfigID); err != nil {
		if errors.Is(err, push.ErrConfigNotFound) {
			s.reply(c, req.ID, nil, rpcErrorf(codeInvalidParams, "config_not_found", "push notification config not found"))
			return
		}
		s.logger.Error("deleting push config failed", zap.Error(err))
		s.reply(c, req.ID, nil, rpcErrorf(codeInternalError, "", "deleting push notification config failed"))
		return
	}
	s.reply(c, req.ID, map[string]any{"deleted": true}, nil)
}

// ---- helpers ----

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func invocationType(parsed parsedMessage) string {
	if parsed.explicit() {
		return "explicit_skill"
	}
	return "natural_language"
}

// taskType labels webhook payloads: the first requested skill, or
// "message" for free-text conversations.
func taskType(parsed parsedMessage) string {
	if names := parsed.skillNames(); len(names) > 0 {
		return names[0]
	}
	return "message"
}

func taskTypeFromMetadata(metadata map[string]any) string {
	if names, ok := metadata["skills_requested"].([]string); ok && len(names) > 0 {
		return names[0]
	}
	return "message"
}

func agentMessage(text, contextID, taskID string) *Message {
	return &Message{
		Kind:      "message",
		MessageID: flexString("msg_" + uuid.NewString()),
		Role:      "agent",
		Parts:     []Part{TextPart(text)},
		ContextID: contextID,
		TaskID:    taskID,
	}
}

func nilIfEmpty(errs []adcp.Error) any {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
