package resolve

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/cache"
	"github.com/minhson226/qrcode-builder-v2/model"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

// Resolver looks up a code's record. It is a pure read: expiry is the
// caller's concern because an expired code is a different outcome from an
// unknown one.
type Resolver struct {
	store *storage.QRStore
	cache *cache.Cache // may be nil when caching is disabled
}

// NewResolver constructs a Resolver. Pass a nil cache to read through to the
// store on every lookup.
func NewResolver(store *storage.QRStore, recordCache *cache.Cache) *Resolver {
	return &Resolver{store: store, cache: recordCache}
}

// Resolve fetches the record behind a code. Inactive records resolve to
// ErrNotFound, indistinguishable from absent ones.
func (r *Resolver) Resolve(ctx context.Context, code string) (model.QRCode, error) {
	if qr, found := r.cache.Get(code); found {
		if !qr.Active {
			return model.QRCode{}, ErrNotFound
		}
		log.Debug().Str("code", code).Msg("Record cache hit")
		return qr, nil
	}

	qr, err := r.store.GetByCode(ctx, code)
	if err == storage.ErrNotFound {
		return model.QRCode{}, ErrNotFound
	} else if err != nil {
		return model.QRCode{}, err
	}

	r.cache.Set(code, qr)

	if !qr.Active {
		return model.QRCode{}, ErrNotFound
	}
	return qr, nil
}
