package a2a

import (
	"encoding/json"
	"strconv"
)

// rpcRequest is an inbound JSON-RPC 2.0 message.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
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

// Standard JSON-RPC 2.0 error codes. Auth failures map to
// codeInvalidRequest; validation to codeInvalidParams; unknown methods
// and skills to codeMethodNotFound; recovered panics to
// codeInternalError.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

func rpcErrorf(code int, dataCode string, msg string) *rpcError {
	e := &rpcError{Code: code, Message: msg}
	if dataCode != "" {
		e.Data = map[string]string{"code": dataCode}
	}
	return e
}

// coerceID normalizes a numeric JSON-RPC id to its string form. Some
// clients send integers; responses echo the coerced value.
func coerceID(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || raw[0] == '"' || string(raw) == "null" {
		return raw
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
