package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo(t *testing.T) {
	errBoom := errors.New("boom")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		policy    Policy
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", policy: Policy{MaxAttempts: 3}, wantCalls: 1},
		{name: "recovers", policy: Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, failures: 2, failWith: errBoom, wantCalls: 3},
		{name: "exhausted", policy: Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, failures: 5, failWith: errBoom, wantCalls: 2, wantErr: errBoom},
		{
			name: "fatal stops early",
			policy: Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, Classify: func(err error) Class {
				if errors.Is(err, errFatal) {
					return Fatal
				}
				return Retryable
			}},
			failures: 5, failWith: errFatal, wantCalls: 1, wantErr: errFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), tt.policy, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Policy{MaxAttempts: 3}, func(context.Context) error {
		t.Fatal("fn called with canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want %v", err, context.Canceled)
	}
}

func TestBackoffCapped(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
	if got := p.Backoff(200); got != time.Second {
		t.Errorf("Backoff(200) = %v, want %v", got, time.Second)
	}
}
