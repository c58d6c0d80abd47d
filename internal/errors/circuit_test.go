package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker("news")
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
	assert.Equal(t, "news", cb.Name())
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("web", WithMaxFailures(3))

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("web", WithMaxFailures(3))

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb := NewCircuitBreaker("web",
		WithMaxFailures(1),
		WithResetTimeout(10*time.Millisecond))

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_Execute_OpenReturnsErrCircuitOpen(t *testing.T) {
	cb := NewCircuitBreaker("web", WithMaxFailures(1))
	cb.RecordFailure()

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_Execute_HalfOpenProbeRecovers(t *testing.T) {
	cb := NewCircuitBreaker("web",
		WithMaxFailures(1),
		WithResetTimeout(5*time.Millisecond))

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)

	err := cb.Execute(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Execute_HalfOpenProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("web",
		WithMaxFailures(1),
		WithResetTimeout(5*time.Millisecond))

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)

	probeErr := errors.New("still down")
	err := cb.Execute(func() error { return probeErr })
	require.ErrorIs(t, err, probeErr)
	assert.Equal(t, StateOpen, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
