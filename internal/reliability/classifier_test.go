package reliability

import (
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	retryable := []int{429, 500, 502, 503, 504}
	for _, code := range retryable {
		if !IsRetryableHTTPStatus(code) {
			t.Errorf("IsRetryableHTTPStatus(%d) = false, want true", code)
		}
	}
	final := []int{200, 201, 400, 401, 403, 404, 422}
	for _, code := range final {
		if IsRetryableHTTPStatus(code) {
			t.Errorf("IsRetryableHTTPStatus(%d) = true, want false", code)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 2 * time.Second

	if got := ExponentialBackoff(0, base, cap); got != base {
		t.Fatalf("attempt 0 = %v, want %v", got, base)
	}
	if got := ExponentialBackoff(1, base, cap); got != 200*time.Millisecond {
		t.Fatalf("attempt 1 = %v, want 200ms", got)
	}
	if got := ExponentialBackoff(10, base, cap); got != cap {
		t.Fatalf("attempt 10 = %v, want cap %v", got, cap)
	}
}
