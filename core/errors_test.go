package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrTransientNetwork is retryable", ErrTransientNetwork, true},
		{"ErrTimeout is retryable", ErrTimeout, true},
		{"ErrConnectionFailed is retryable", ErrConnectionFailed, true},
		{"ErrRateLimited is retryable", ErrRateLimited, true},
		{"ErrCircuitBreakerOpen is retryable", ErrCircuitBreakerOpen, true},
		{"wrapped retryable error is detected", fmt.Errorf("call failed: %w", ErrTimeout), true},
		{"ErrAuthFailed is not retryable", ErrAuthFailed, false},
		{"ErrInvalidConfiguration is not retryable", ErrInvalidConfiguration, false},
		{"custom error is not retryable", errors.New("random error"), false},
		{"nil error is not retryable", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrInvalidConfiguration is configuration error", ErrInvalidConfiguration, true},
		{"ErrMissingConfiguration is configuration error", ErrMissingConfiguration, true},
		{"wrapped configuration error is detected", fmt.Errorf("config validation failed: %w", ErrInvalidConfiguration), true},
		{"ErrAuthFailed is not configuration error", ErrAuthFailed, false},
		{"custom error is not configuration error", errors.New("random error"), false},
		{"nil error is not configuration error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigurationError(tt.err); got != tt.expected {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsStateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrAlreadyStarted is state error", ErrAlreadyStarted, true},
		{"ErrNotInitialized is state error", ErrNotInitialized, true},
		{"ErrAlreadyRegistered is state error", ErrAlreadyRegistered, true},
		{"wrapped state error is detected", fmt.Errorf("cannot proceed: %w", ErrNotInitialized), true},
		{"ErrTimeout is not state error", ErrTimeout, false},
		{"custom error is not state error", errors.New("some other error"), false},
		{"nil error is not state error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStateError(tt.err); got != tt.expected {
				t.Errorf("IsStateError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := ErrTransientNetwork
	wrappedOnce := fmt.Errorf("provider call failed: %w", baseErr)
	wrappedTwice := fmt.Errorf("operation failed: %w", wrappedOnce)

	if !IsRetryable(baseErr) {
		t.Error("base error should be detected as retryable")
	}
	if !IsRetryable(wrappedOnce) {
		t.Error("once-wrapped error should be detected as retryable")
	}
	if !IsRetryable(wrappedTwice) {
		t.Error("twice-wrapped error should be detected as retryable")
	}

	if !errors.Is(wrappedTwice, ErrTransientNetwork) {
		t.Error("errors.Is should work through multiple wrapping layers")
	}
}

func TestErrorCombinations(t *testing.T) {
	if IsConfigurationError(ErrTimeout) {
		t.Error("ErrTimeout should not be a configuration error")
	}
	if IsStateError(ErrInvalidConfiguration) {
		t.Error("ErrInvalidConfiguration should not be a state error")
	}
	if IsRetryable(ErrMissingConfiguration) {
		t.Error("ErrMissingConfiguration should not be retryable")
	}
}

func TestFrameworkErrorString(t *testing.T) {
	err := &FrameworkError{
		Op:   "llm.Call",
		Kind: "provider",
		ID:   "balanced",
		Err:  ErrRateLimited,
	}
	got := err.Error()
	want := "llm.Call [balanced]: provider rate limited"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewFrameworkError(t *testing.T) {
	err := NewFrameworkError("router.Route", "validation", ErrInvalidConfiguration)
	if err.Op != "router.Route" || err.Kind != "validation" {
		t.Errorf("unexpected FrameworkError fields: %+v", err)
	}
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
}

func BenchmarkIsRetryable(b *testing.B) {
	err := fmt.Errorf("wrapped: %w", ErrTimeout)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = IsRetryable(err)
	}
}

func BenchmarkIsConfigurationError(b *testing.B) {
	err := fmt.Errorf("wrapped: %w", ErrInvalidConfiguration)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = IsConfigurationError(err)
	}
}

func BenchmarkIsStateError(b *testing.B) {
	err := fmt.Errorf("wrapped: %w", ErrNotInitialized)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = IsStateError(err)
	}
}
