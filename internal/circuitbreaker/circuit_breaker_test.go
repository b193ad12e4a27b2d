package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig(timeout time.Duration) *Config {
	return &Config{
		Name:             "test",
		MaxFailures:      3,
		FailureThreshold: 0.5,
		Timeout:          timeout,
		HalfOpenMaxCalls: 2,
	}
}

func failing() error { return errors.New("upstream failure") }

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := New(testConfig(time.Minute), nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := cb.Execute(ctx, func() error { return nil }); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	if state := cb.GetState(); state != StateClosed {
		t.Errorf("state = %v, want %v", state, StateClosed)
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(testConfig(time.Minute), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}

	if state := cb.GetState(); state != StateOpen {
		t.Fatalf("state = %v after %d failures, want %v", state, 3, StateOpen)
	}

	// While open, calls are rejected without invoking fn
	invoked := false
	err := cb.Execute(ctx, func() error { invoked = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if invoked {
		t.Error("fn was invoked while the circuit was open")
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(testConfig(10*time.Millisecond), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	if cb.GetState() != StateOpen {
		t.Fatal("circuit did not open")
	}

	time.Sleep(15 * time.Millisecond)

	// First probe transitions to half-open; enough successes close it
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}
	if state := cb.GetState(); state != StateHalfOpen {
		t.Fatalf("state = %v after first probe, want %v", state, StateHalfOpen)
	}
	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("second probe Execute() error = %v", err)
	}
	if state := cb.GetState(); state != StateClosed {
		t.Errorf("state = %v after recovery, want %v", state, StateClosed)
	}
}

func TestCircuitBreaker_ReopensOnHalfOpenFailure(t *testing.T) {
	cb := New(testConfig(10*time.Millisecond), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	time.Sleep(15 * time.Millisecond)

	_ = cb.Execute(ctx, failing)

	if state := cb.GetState(); state != StateOpen {
		t.Errorf("state = %v after half-open failure, want %v", state, StateOpen)
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb := New(testConfig(time.Minute), nil)
	ctx := context.Background()

	// Saturation only happens with in-flight probes, so stage the state
	// directly: half-open with the probe budget spent.
	cb.mu.Lock()
	cb.setState(StateHalfOpen)
	cb.totalCalls = cb.halfOpenMaxCalls
	cb.mu.Unlock()

	invoked := false
	err := cb.Execute(ctx, func() error { invoked = true; return nil })
	if !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("Execute() error = %v, want ErrTooManyRequests", err)
	}
	if invoked {
		t.Error("fn was invoked past the half-open probe budget")
	}
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	cb := New(testConfig(time.Minute), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}
