package resolve

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/model"
	"github.com/minhson226/qrcode-builder-v2/security"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

// ScanRecorder appends scan events without ever blocking or failing the
// redirect that produced them. Each append runs in its own goroutine with a
// short deadline detached from the request; on timeout or storage failure the
// event is dropped, logged, and counted.
type ScanRecorder struct {
	store     *storage.ScanStore
	timeout   time.Duration
	uaLimit   int
	dropCount uint64
}

// NewScanRecorder constructs a ScanRecorder. timeout bounds each append;
// uaLimit truncates stored user agents.
func NewScanRecorder(store *storage.ScanStore, timeout time.Duration, uaLimit int) *ScanRecorder {
	return &ScanRecorder{store: store, timeout: timeout, uaLimit: uaLimit}
}

// Record builds and asynchronously persists one scan event. ipHash must
// already be the hashed identity; the raw address never reaches this layer.
func (r *ScanRecorder) Record(qrID, ipHash, country, userAgent string) {
	ua := userAgent
	if r.uaLimit > 0 && len(ua) > r.uaLimit {
		ua = ua[:r.uaLimit]
	}

	event := model.ScanEvent{
		QRID:       qrID,
		HappenedAt: time.Now().UTC(),
		IPHash:     ipHash,
		Country:    country,
		Device:     security.ClassifyClient(userAgent),
		UserAgent:  ua,
	}

	go func() {
		// Detached from the request context: the redirect must not wait
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.store.Append(ctx, event); err != nil {
			atomic.AddUint64(&r.dropCount, 1)
			log.Error().Err(err).Str("qr_id", qrID).Msg("Dropped scan event")
		}
	}()
}

// Dropped reports how many scan events have been lost to storage failures or
// timeouts since startup.
func (r *ScanRecorder) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropCount)
}
