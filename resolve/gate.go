package resolve

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/minhson226/qrcode-builder-v2/limiter"
	"github.com/minhson226/qrcode-builder-v2/model"
)

// AccessGate runs the password check for protected codes, with the attempt
// limiter in front of the hash comparison.
//
// Ordering matters and is deliberate:
//
//  1. Unprotected codes pass immediately; the limiter is never consulted, so
//     an unprotected code can never be throttled by this gate.
//  2. A protected code probed without a password is rejected before the
//     limiter, so probing alone never consumes attempt budget.
//  3. Every attempt that carries a password is charged against the budget
//     before the hash comparison runs, right or wrong. Once the budget is
//     spent the password is not checked at all, which avoids hashing work
//     under attack and stops timing measurements from revealing validity.
type AccessGate struct {
	limiter limiter.AttemptLimiter
}

// NewAccessGate constructs an AccessGate over the given attempt limiter.
func NewAccessGate(attempts limiter.AttemptLimiter) *AccessGate {
	return &AccessGate{limiter: attempts}
}

// Authorize decides whether the caller may reach the record's destination.
// It returns nil on success, or one of ErrPasswordRequired,
// ErrInvalidPassword, *RateLimitedError. Limiter store failures surface as
// wrapped errors for the handler to convert to an internal status.
func (g *AccessGate) Authorize(ctx context.Context, qr model.QRCode, password, ipHash string) error {
	if !qr.Protected() {
		return nil
	}

	if password == "" {
		return ErrPasswordRequired
	}

	decision, err := g.limiter.TryConsume(ctx, ipHash, qr.Code)
	if err != nil {
		return fmt.Errorf("attempt limiter: %w", err)
	}
	if !decision.Allowed {
		log.Info().
			Str("code", qr.Code).
			Str("ip_hash", ipHash).
			Dur("retry_after", decision.RetryAfter).
			Msg("Attempt budget exhausted")
		return &RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(qr.PasswordHash), []byte(password)); err != nil {
		// The attempt is already charged above
		log.Info().
			Str("code", qr.Code).
			Str("ip_hash", ipHash).
			Int("remaining", decision.Remaining).
			Msg("Failed password attempt")
		return ErrInvalidPassword
	}

	return nil
}
