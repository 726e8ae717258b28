package jsonrpc

import (
	"encoding/json"
	"fmt"

	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Application-specific error codes (from -32000 to -32099)
const (
	ErrCodeResourceNotFound = -32002
	ErrCodeUpstream         = -32003
	ErrCodeUnavailable      = -32004
	ErrCodeRateLimited      = -32005
)

// NewError creates an error without data.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithData creates an error carrying data.
func NewErrorWithData(code int, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func ErrParseError(message string) *Error {
	return NewError(ErrCodeParse, message)
}

func ErrInvalidRequest(message string) *Error {
	return NewError(ErrCodeInvalidRequest, message)
}

func ErrMethodNotFound(method string) *Error {
	return NewErrorWithData(ErrCodeMethodNotFound, "method not found", method)
}

func ErrInvalidParams(message string) *Error {
	return NewError(ErrCodeInvalidParams, message)
}

func ErrInternal(message string) *Error {
	return NewError(ErrCodeInternal, message)
}

// FromAPIError maps a service error onto a JSON-RPC error. Validation and
// not found details travel in Data.
func FromAPIError(err error) *Error {
	apiErr := apierrors.AsAPIError(err)
	switch apiErr.Code {
	case "validation_error", "bad_request":
		return NewErrorWithData(ErrCodeInvalidParams, apiErr.Message, apiErr.Details)
	case "not_found":
		return NewErrorWithData(ErrCodeResourceNotFound, apiErr.Message, apiErr.Details)
	case "upstream_error":
		return NewError(ErrCodeUpstream, apiErr.Message)
	case "service_unavailable":
		return NewError(ErrCodeUnavailable, apiErr.Message)
	case "rate_limited":
		return NewError(ErrCodeRateLimited, apiErr.Message)
	default:
		return ErrInternal(apiErr.Message)
	}
}
