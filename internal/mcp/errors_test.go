package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fuseerrors "github.com/Aman-CERP/fusemcp/internal/errors"
)

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeTimeout, MapError(context.Canceled).Code)
}

func TestMapError_ToolNotFound(t *testing.T) {
	err := MapError(ErrToolNotFound)
	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
}

func TestMapError_UnknownErrorIsInternal(t *testing.T) {
	err := MapError(errors.New("something odd"))
	assert.Equal(t, ErrCodeInternalError, err.Code)
	// internal details never leak to the client
	assert.NotContains(t, err.Message, "something odd")
}

func TestMapError_FuseErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "validation maps to invalid params",
			err:      fuseerrors.ValidationError("query must not be empty", nil),
			wantCode: ErrCodeInvalidParams,
		},
		{
			name:     "provider failure maps to provider unavailable",
			err:      fuseerrors.ProviderError("web provider returned 503", nil),
			wantCode: ErrCodeProviderUnavailable,
		},
		{
			name:     "provider timeout maps to timeout",
			err:      fuseerrors.New(fuseerrors.ErrCodeProviderTimeout, "provider call timed out", nil),
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "store failure maps to store unavailable",
			err:      fuseerrors.StoreError("database is locked", nil),
			wantCode: ErrCodeStoreUnavailable,
		},
		{
			name:     "internal maps to internal error",
			err:      fuseerrors.InternalError("fusion failed", nil),
			wantCode: ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapError_WrappedFuseError(t *testing.T) {
	inner := fuseerrors.ValidationError("no sources requested", nil)
	wrapped := errors.Join(errors.New("searching"), inner)

	got := MapError(wrapped)
	assert.Equal(t, ErrCodeInvalidParams, got.Code)
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := fuseerrors.ValidationError("unknown source", nil).
		WithSuggestion("Valid sources are web, news, and answer.")

	got := MapError(err)
	assert.Contains(t, got.Message, "unknown source")
	assert.Contains(t, got.Message, "Valid sources are")
}

func TestMCPError_Error(t *testing.T) {
	err := NewInvalidParamsError("bad input")
	assert.Equal(t, "MCP error -32602: bad input", err.Error())
}

func TestNewMethodNotFoundError(t *testing.T) {
	err := NewMethodNotFoundError("super_search")
	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, "super_search")
}
