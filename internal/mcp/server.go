// Package mcp exposes the AdCP skills as Model Context Protocol tools
// over HTTP. It is a transport sibling of the A2A dispatcher: both decode
// to the same typed requests and call the same skill service.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/skills"
)

const protocolVersion = "2024-11-05"

// Skills is the skill-dispatch surface the server consumes.
type Skills interface {
	Call(ctx context.Context, tc *auth.ToolContext, skill string, params json.RawMessage) (*skills.Outcome, error)
}

// rpcRequest is an inbound JSON-RPC 2.0 message.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // nil = notification
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is an outbound JSON-RPC 2.0 message.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 error codes, aligned with the A2A dispatcher so
// both transports report the same failure the same way.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server is the HTTP MCP endpoint: one POST route speaking single-message
// JSON-RPC 2.0.
type Server struct {
	skills    Skills
	resolver  *auth.Resolver
	agentName string
	version   string
	logger    *zap.Logger
}

// ServerConfig carries the server dependencies.
type ServerConfig struct {
	Skills    Skills
	Resolver  *auth.Resolver
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
		agentName: name,
		version:   version,
		logger:    logger,
	}
}

// Register mounts the MCP route. Both the bare and trailing-slash paths
// are served; MCP clients disagree on which to use.
func (s *Server) Register(r gin.IRouter) {
	r.POST("/mcp", s.handleRPC)
	r.POST("/mcp/", s.handleRPC)
}

func (s *Server) handleRPC(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.reply(c, json.RawMessage("null"), nil, &rpcError{Code: codeParseError, Message: "could not read request body"})
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.reply(c, json.RawMessage("null"), nil, &rpcError{Code: codeParseError, Message: "parse error"})
		return
	}

	// Notifications get no response body.
	if len(req.ID) == 0 {
		c.Status(http.StatusAccepted)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("mcp handler panic",
				zap.String("method", req.Method),
				zap.Any("panic", r))
			if !c.Writer.Written() {
				s.reply(c, req.ID, nil, &rpcError{Code: codeInternalError, Message: "internal error"})
			}
		}
	}()

	switch req.Method {
	case "initialize":
		s.handleInitialize(c, &req)
	case "ping":
		s.reply(c, req.ID, map[string]any{}, nil)
	case "tools/list":
		s.handleToolsList(c, &req)
	case "tools/call":
		s.handleToolsCall(c, &req)
	default:
		s.reply(c, req.ID, nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)})
	}
}

func (s *Server) handleInitialize(c *gin.Context, req *rpcRequest) {
	s.reply(c, req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo":      map[string]any{"name": s.agentName, "version": s.version},
	}, nil)
}

func (s *Server) handleToolsList(c *gin.Context, req *rpcRequest) {
	defs := skills.Definitions()
	tools := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"inputSchema": d.InputSchema,
		})
	}
	s.reply(c, req.ID, map[string]any{"tools": tools}, nil)
}

func (s *Server) handleToolsCall(c *gin.Context, req *rpcRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		s.reply(c, req.ID, nil, &rpcError{Code: codeInvalidParams, Message: "params require a tool name"})
		return
	}

	sig := auth.SignalsFromRequest(c.Request, auth.TokenFromMCP(c.Request), auth.ProtocolMCP)
	tc, err := s.resolver.BuildContext(c.Request.Context(), sig, params.Name, "", true)
	if err != nil {
		s.reply(c, req.ID, nil, &rpcError{
			Code:    codeInvalidRequest,
			Message: err.Error(),
			Data:    map[string]string{"code": auth.ErrorCode(err)},
		})
		return
	}

	out, err := s.skills.Call(c.Request.Context(), tc, params.Name, params.Arguments)
	if err != nil {
		s.reply(c, req.ID, nil, callError(err))
		return
	}

	// Domain failures are tool results with isError, not protocol errors.
	s.reply(c, req.ID, map[string]any{
		"content":           []map[string]any{{"type": "text", "text": out.Summary}},
		"structuredContent": out.Data,
		"isError":           out.State == skills.StateFailed,
	}, nil)
}

// callError maps skill-dispatch failures to JSON-RPC errors, mirroring
// the A2A dispatcher's mapping.
func callError(err error) *rpcError {
	switch {
	case errors.Is(err, skills.ErrUnknownSkill):
		return &rpcError{Code: codeMethodNotFound, Message: err.Error(), Data: map[string]string{"code": "skill_not_found"}}
	case errors.Is(err, skills.ErrInvalidParams):
		return &rpcError{Code: codeInvalidParams, Message: err.Error(), Data: map[string]string{"code": adcp.CodeValidationError}}
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return &rpcError{Code: codeInvalidRequest, Message: err.Error(), Data: map[string]string{"code": auth.ErrorCode(err)}}
	default:
		return &rpcError{Code: codeInternalError, Message: err.Error()}
	}
}

func (s *Server) reply(c *gin.Context, id json.RawMessage, result any, rpcErr *rpcError) {
	c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr})
}
