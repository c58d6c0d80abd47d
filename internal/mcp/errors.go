// Package mcp implements the Model Context Protocol (MCP) server for
// FuseMCP. It exposes the fusion search engine and its telemetry
// read-back queries as MCP tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	fuseerrors "github.com/Aman-CERP/fusemcp/internal/errors"
)

// Custom MCP error codes for FuseMCP.
const (
	// ErrCodeProviderUnavailable indicates all requested providers failed.
	ErrCodeProviderUnavailable = -32001

	// ErrCodeStoreUnavailable indicates the local store could not be used.
	ErrCodeStoreUnavailable = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrToolNotFound indicates the requested tool does not exist.
var ErrToolNotFound = errors.New("tool not found")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var fe *fuseerrors.FuseError
	if errors.As(err, &fe) {
		return mapFuseError(fe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapFuseError(fe *fuseerrors.FuseError) *MCPError {
	message := fe.Message
	if fe.Suggestion != "" {
		message = fmt.Sprintf("%s %s", fe.Message, fe.Suggestion)
	}

	switch fe.Category {
	case fuseerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case fuseerrors.CategoryProvider:
		if fe.Code == fuseerrors.ErrCodeProviderTimeout {
			return &MCPError{Code: ErrCodeTimeout, Message: message}
		}
		return &MCPError{Code: ErrCodeProviderUnavailable, Message: message}
	case fuseerrors.CategoryStore:
		return &MCPError{Code: ErrCodeStoreUnavailable, Message: message}
	default: // CategoryConfig, CategoryInternal, unknown
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
