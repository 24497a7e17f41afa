package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/model"
)

const scanKeyPrefix = "scans:" // scans:{qrID} -> list of JSON events

// ScanStore persists scan events as an append-only list per QR id.
//
// Events are never mutated or deleted under normal operation. Reads are
// eventually consistent with concurrent appends, which is acceptable:
// analytics is best-effort and never gates a redirect.
type ScanStore struct {
	redis *redis.Client
}

// NewScanStore constructs a ScanStore over an established client.
func NewScanStore(client *redis.Client) *ScanStore {
	return &ScanStore{redis: client}
}

// Append durably appends one scan event.
func (s *ScanStore) Append(ctx context.Context, event model.ScanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}
	if err := s.redis.RPush(ctx, scanKeyPrefix+event.QRID, data).Err(); err != nil {
		return fmt.Errorf("append scan event: %w", err)
	}
	return nil
}

// ListSince returns all events for the QR id that happened at or after the
// given instant. A code with no history yields an empty slice.
func (s *ScanStore) ListSince(ctx context.Context, qrID string, since time.Time) ([]model.ScanEvent, error) {
	raw, err := s.redis.LRange(ctx, scanKeyPrefix+qrID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read scan events: %w", err)
	}

	events := make([]model.ScanEvent, 0, len(raw))
	for _, item := range raw {
		var event model.ScanEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			// A corrupt entry should not poison the whole aggregation
			log.Error().Err(err).Str("qr_id", qrID).Msg("Skipping undecodable scan event")
			continue
		}
		if event.HappenedAt.Before(since) {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
