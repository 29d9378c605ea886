package a2a

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleMessageStream serves message/stream: the same execution path as
// message/send, delivered as server-sent events. Validation and auth
// failures are reported as plain JSON-RPC responses before the stream
// opens; once streaming, every frame is a JSON-RPC response in an SSE
// data line.
//
// Execution is synchronous, so the stream carries exactly two frames: a
// working status-update, then the terminal task.
func (s *Server) handleMessageStream(c *gin.Context, req *rpcRequest) {
	params, rpcErr := decodeSendParams(req.Params)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}
	tc, rpcErr := s.buildContext(c, "message/stream", params.Message.ContextID, true)
	if rpcErr != nil {
		s.reply(c, req.ID, nil, rpcErr)
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()

	task, rpcErr := s.run(c.Request.Context(), tc, params, func(t *Task) {
		s.writeEvent(c, req.ID, StatusUpdateEvent{
			Kind:      "status-update",
			TaskID:    t.ID,
			ContextID: t.ContextID,
			Status:    t.Status,
			Final:     false,
		}, nil)
	})
	if rpcErr != nil {
		s.writeEvent(c, req.ID, nil, rpcErr)
		return
	}
	s.writeEvent(c, req.ID, task, nil)
}

// writeEvent emits one SSE frame carrying a JSON-RPC response.
func (s *Server) writeEvent(c *gin.Context, id json.RawMessage, result any, rpcErr *rpcError) {
	payload, err := json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr})
	if err != nil {
		s.logger.Error("encoding stream event failed", zap.Error(err))
		return
	}
	if _, err := c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
		s.logger.Warn("stream write failed", zap.Error(err))
		return
	}
	c.Writer.Flush()
}
