// Package jsonrpc serves the prediction service over JSON-RPC 2.0.
package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 100
)

// MethodHandler is a function that handles a JSON-RPC method call.
type MethodHandler func(ctx context.Context, params json.RawMessage) (any, *Error)

// Handler processes JSON-RPC 2.0 requests.
type Handler struct {
	methods map[string]MethodHandler
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewHandler creates a new JSON-RPC handler.
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		methods: make(map[string]MethodHandler),
		logger:  logger,
	}
}

// RegisterMethod registers a method handler.
func (h *Handler) RegisterMethod(name string, handler MethodHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods[name] = handler
	h.logger.Debug("registered JSON-RPC method", slog.String("method", name))
}

// RegisteredMethods returns the registered method names in sorted order.
func (h *Handler) RegisteredMethods() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	methods := make([]string, 0, len(h.methods))
	for name := range h.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// ServeHTTP implements http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, nil, ErrInvalidRequest("only POST method is allowed"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("failed to read request body", slog.String("error", err.Error()))
		h.writeError(w, nil, ErrInvalidRequest("failed to read request body"))
		return
	}

	// Batches start with '['.
	if len(body) > 0 && body[0] == '[' {
		h.handleBatchRequest(r.Context(), w, body)
		return
	}
	h.handleSingleRequest(r.Context(), w, body)
}

func (h *Handler) handleSingleRequest(ctx context.Context, w http.ResponseWriter, body []byte) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("failed to parse JSON-RPC request", slog.String("error", err.Error()))
		h.writeError(w, nil, ErrParseError("invalid JSON"))
		return
	}

	resp := h.call(ctx, req)
	if resp.Error != nil {
		h.writeError(w, resp.ID, resp.Error)
		return
	}
	h.write(w, http.StatusOK, resp)
}

func (h *Handler) handleBatchRequest(ctx context.Context, w http.ResponseWriter, body []byte) {
	var requests []Request
	if err := json.Unmarshal(body, &requests); err != nil {
		h.logger.Warn("failed to parse JSON-RPC batch request", slog.String("error", err.Error()))
		h.writeError(w, nil, ErrParseError("invalid JSON"))
		return
	}

	if len(requests) == 0 {
		h.writeError(w, nil, ErrInvalidRequest("batch request cannot be empty"))
		return
	}
	if len(requests) > maxBatchSize {
		h.writeError(w, nil, ErrInvalidRequest("batch request is too large"))
		return
	}

	responses := make([]Response, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, h.call(ctx, req))
	}
	h.write(w, http.StatusOK, responses)
}

func (h *Handler) call(ctx context.Context, req Request) Response {
	if req.JSONRPC != "2.0" {
		return Response{JSONRPC: "2.0", Error: ErrInvalidRequest("jsonrpc must be '2.0'"), ID: req.ID}
	}

	result, rpcErr := h.executeMethod(ctx, req.Method, req.Params)
	if rpcErr != nil {
		return Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID}
	}
	return Response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func (h *Handler) executeMethod(ctx context.Context, method string, params json.RawMessage) (any, *Error) {
	h.mu.RLock()
	handler, exists := h.methods[method]
	h.mu.RUnlock()

	if !exists {
		h.logger.Warn("method not found", slog.String("method", method))
		return nil, ErrMethodNotFound(method)
	}

	h.logger.Debug("executing method", slog.String("method", method))

	result, err := handler(ctx, params)
	if err != nil {
		h.logger.Warn("method execution failed",
			slog.String("method", method),
			slog.Int("code", err.Code),
			slog.String("message", err.Message),
		)
		return nil, err
	}
	return result, nil
}

// writeError writes an error response. Only parse and envelope errors change
// the HTTP status.
func (h *Handler) writeError(w http.ResponseWriter, id any, rpcErr *Error) {
	status := http.StatusOK
	if rpcErr.Code == ErrCodeParse || rpcErr.Code == ErrCodeInvalidRequest {
		status = http.StatusBadRequest
	}
	h.write(w, status, Response{JSONRPC: "2.0", Error: rpcErr, ID: id})
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
