package resolve

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Request carries everything the resolution core needs for one redirect.
// IPHash is the caller's hashed identity as produced by security.HashIdentity.
type Request struct {
	Code      string
	Password  string
	IPHash    string
	UserAgent string
	Country   string
}

// Service orchestrates one resolution: lookup, expiry, gate, destination,
// scan recording. It is the only component that sequences the others.
type Service struct {
	resolver *Resolver
	gate     *AccessGate
	recorder *ScanRecorder
}

// NewService wires the resolution pipeline.
func NewService(resolver *Resolver, gate *AccessGate, recorder *ScanRecorder) *Service {
	return &Service{resolver: resolver, gate: gate, recorder: recorder}
}

// Redirect resolves a code to its destination URL.
//
// Failure order is fixed: NotFound before everything, Expired before any
// gating (an expired code never reaches the password gate), then the gate's
// outcomes, then NoTarget. Only a fully granted resolution records a scan.
func (s *Service) Redirect(ctx context.Context, req Request) (string, error) {
	qr, err := s.resolver.Resolve(ctx, req.Code)
	if err != nil {
		return "", err
	}

	if qr.Expired(time.Now()) {
		return "", ErrExpired
	}

	if err := s.gate.Authorize(ctx, qr, req.Password, req.IPHash); err != nil {
		return "", err
	}

	destination, ok := qr.Destination()
	if !ok {
		return "", ErrNoTarget
	}

	s.recorder.Record(qr.ID, req.IPHash, req.Country, req.UserAgent)

	log.Info().
		Str("code", qr.Code).
		Str("type", string(qr.Type)).
		Msg("Resolved")

	return destination, nil
}
