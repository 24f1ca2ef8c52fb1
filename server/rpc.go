package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bawdo/filtersql/internal/logging"
)

// DefaultProtocolVersion is answered when the client does not name one.
const DefaultProtocolVersion = "2025-03-26"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *rpcRequest) isNotification() bool {
	return len(r.ID) == 0 || bytes.Equal(r.ID, []byte("null"))
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// handleRPC serves the stateless JSON-RPC tool endpoint. Notifications are
// acknowledged with 202 and no body.
func (s *Server) handleRPC(c *gin.Context) {
	body, status, err := s.limitedBody(c)
	if err != nil {
		c.JSON(status, rpcFailure(nil, codeParseError, err.Error()))
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, rpcFailure(nil, codeParseError, "parse error: "+err.Error()))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		c.JSON(http.StatusBadRequest, rpcFailure(req.ID, codeInvalidRequest, "invalid request"))
		return
	}
	if req.isNotification() {
		c.Status(http.StatusAccepted)
		return
	}

	result, rerr := s.dispatch(c, &req)
	if rerr != nil {
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rerr})
		return
	}
	c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func rpcFailure(id json.RawMessage, code int, msg string) rpcResponse {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

func (s *Server) dispatch(c *gin.Context, req *rpcRequest) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		var p struct {
			ProtocolVersion string `json:"protocolVersion"`
		}
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &p)
		}
		version := p.ProtocolVersion
		if version == "" {
			version = DefaultProtocolVersion
		}
		return gin.H{
			"protocolVersion": version,
			"capabilities":    gin.H{"tools": gin.H{"listChanged": false}},
			"serverInfo":      gin.H{"name": s.cfg.Name, "version": s.cfg.Version},
			"instructions":    s.cfg.Instructions,
		}, nil

	case "ping":
		return gin.H{}, nil

	case "tools/list":
		return gin.H{"tools": []toolDescriptor{{
			Name:        s.search.Name(),
			Description: s.search.Description(),
			InputSchema: s.search.InputSchema(),
		}}}, nil

	case "tools/call":
		var p struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}
		}
		if p.Name != s.search.Name() {
			return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + p.Name}
		}
		text, isErr := s.search.Call(c.Request.Context(), p.Arguments)
		s.metrics.toolCall(p.Name, isErr)
		logging.FromContext(c.Request.Context(), s.logger).Debug("tool call", "tool", p.Name, "is_error", isErr)
		return toolResult{Content: []toolContent{{Type: "text", Text: text}}, IsError: isErr}, nil

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
}
