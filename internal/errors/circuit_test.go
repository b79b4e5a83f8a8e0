package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("crossref", WithMaxFailures(3), WithResetTimeout(time.Hour))
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, 3, cb.Failures())
}

func TestCircuitBreaker_FailsFastWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker("s2", WithMaxFailures(1), WithResetTimeout(time.Hour))
	require.Error(t, cb.Execute(func() error { return errors.New("down") }))

	invoked := false
	err := cb.Execute(func() error {
		invoked = true
		return nil
	})

	require.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, invoked, "wrapped function must not run while open")
	assert.False(t, IsRetryable(err), "breaker-open must not be retried")
}

func TestCircuitBreaker_HalfOpenSuccessCloses(t *testing.T) {
	cb := NewCircuitBreaker("openalex", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))
	require.Error(t, cb.Execute(func() error { return errors.New("down") }))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	// Trial call succeeds: circuit closes, counter resets.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("core", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))
	require.Error(t, cb.Execute(func() error { return errors.New("down") }))

	time.Sleep(20 * time.Millisecond)
	require.Error(t, cb.Execute(func() error { return errors.New("still down") }))

	// Cool-down clock restarted: immediately open again.
	assert.Equal(t, StateOpen, cb.State())
	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_HalfOpenAdmitsExactlyOneTrial(t *testing.T) {
	cb := NewCircuitBreaker("doaj", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))
	require.Error(t, cb.Execute(func() error { return errors.New("down") }))
	time.Sleep(20 * time.Millisecond)

	trialStarted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- cb.Execute(func() error {
			close(trialStarted)
			<-release
			return nil
		})
	}()

	<-trialStarted

	// While the trial is in flight, other callers are rejected.
	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecuteWithResult(t *testing.T) {
	cb := NewCircuitBreaker("local")

	got, err := ExecuteWithResult(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}
