package resolve

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound covers unknown and inactive codes; resolution fails closed.
	ErrNotFound = errors.New("code not found")
	// ErrExpired is terminal: the code existed but its expiry has passed.
	ErrExpired = errors.New("code expired")
	// ErrPasswordRequired means the code is protected and no password came
	// with the request.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword means the supplied password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrNoTarget means a dynamic code has no destination configured yet.
	ErrNoTarget = errors.New("no target configured")
)

// RateLimitedError carries the back-off hint for exhausted attempt budgets.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter)
}
