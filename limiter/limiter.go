package limiter

import (
	"context"
	"time"
)

// Decision is the outcome of one gated attempt.
type Decision struct {
	Allowed    bool
	Remaining  int           // attempts left in the current window after this one
	RetryAfter time.Duration // zero when allowed; time until the window resets when exhausted
}

// AttemptLimiter bounds password attempts per (hashed source identity, code)
// pair inside a fixed time window.
//
// TryConsume charges one attempt against the pair's budget. The
// read-check-increment cycle is atomic per key: two concurrent attempts
// racing for the last slot never both succeed. Once the budget is exhausted
// the counter stops growing; the window expires on its own.
type AttemptLimiter interface {
	TryConsume(ctx context.Context, ipHash, code string) (Decision, error)
}

// attemptKey builds the storage key for one (source, code) pair.
func attemptKey(ipHash, code string) string {
	return "pw_attempts:" + code + ":" + ipHash
}
