package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/model"
)

const (
	qrKeyPrefix = "qr:"         // qr:{code} -> JSON record
	idIndexKey  = "qr_id_index" // hash: id -> code
	codeSetKey  = "qr_codes"    // set of all live codes, for listing
)

var (
	// ErrNotFound means no record exists for the given code or id.
	ErrNotFound = errors.New("qr code not found")
	// ErrNotDynamic means a target/password/expiry mutation was attempted on
	// a static record.
	ErrNotDynamic = errors.New("qr code is not dynamic")
)

// QRStore persists QRCode records in Redis.
//
// The resolve path only reads records; every mutation goes through one of the
// update operations here, called by the management layer. Records are soft
// deleted: Deactivate flips the active flag but scan history stays
// addressable.
type QRStore struct {
	redis *redis.Client
}

// NewQRStore constructs a QRStore over an established client.
func NewQRStore(client *redis.Client) *QRStore {
	return &QRStore{redis: client}
}

// Save stores a new record and registers it in the id and listing indexes.
func (s *QRStore) Save(ctx context.Context, qr model.QRCode) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return fmt.Errorf("marshal qr record: %w", err)
	}

	if err := s.redis.Set(ctx, qrKeyPrefix+qr.Code, data, 0).Err(); err != nil {
		return fmt.Errorf("store qr record: %w", err)
	}
	if err := s.redis.HSet(ctx, idIndexKey, qr.ID, qr.Code).Err(); err != nil {
		return fmt.Errorf("index qr id: %w", err)
	}
	if err := s.redis.SAdd(ctx, codeSetKey, qr.Code).Err(); err != nil {
		// Listing is best-effort; the record itself is stored
		log.Error().Err(err).Str("code", qr.Code).Msg("Failed to register code for listing")
	}
	return nil
}

// GetByCode fetches a record by its externally visible code. Inactive records
// are returned as-is; the resolver decides how to treat them.
func (s *QRStore) GetByCode(ctx context.Context, code string) (model.QRCode, error) {
	data, err := s.redis.Get(ctx, qrKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return model.QRCode{}, ErrNotFound
	} else if err != nil {
		return model.QRCode{}, fmt.Errorf("fetch qr record: %w", err)
	}

	var qr model.QRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		return model.QRCode{}, fmt.Errorf("decode qr record: %w", err)
	}
	return qr, nil
}

// GetByID fetches a record by its management id.
func (s *QRStore) GetByID(ctx context.Context, id string) (model.QRCode, error) {
	code, err := s.redis.HGet(ctx, idIndexKey, id).Result()
	if err == redis.Nil {
		return model.QRCode{}, ErrNotFound
	} else if err != nil {
		return model.QRCode{}, fmt.Errorf("resolve qr id: %w", err)
	}
	return s.GetByCode(ctx, code)
}

// CodeExists reports whether any record claims the code.
func (s *QRStore) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := s.redis.Exists(ctx, qrKeyPrefix+code).Result()
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return n > 0, nil
}

// UpdateMeta rewrites name, folder, and design options. Empty values leave
// the corresponding field as-is.
func (s *QRStore) UpdateMeta(ctx context.Context, id, name, folder string, design map[string]interface{}) (model.QRCode, error) {
	return s.mutate(ctx, id, func(qr *model.QRCode) error {
		if name != "" {
			qr.Name = name
		}
		if folder != "" {
			qr.Folder = folder
		}
		if design != nil {
			qr.Design = design
		}
		return nil
	})
}

// UpdateTarget rewrites the destination of a dynamic record. The code keeps
// working; static records reject the mutation.
func (s *QRStore) UpdateTarget(ctx context.Context, id, target string) (model.QRCode, error) {
	return s.mutate(ctx, id, func(qr *model.QRCode) error {
		if qr.Type != model.QRTypeDynamic {
			return ErrNotDynamic
		}
		qr.Target = target
		return nil
	})
}

// SetPassword stores a one-way password hash on a dynamic record. The
// plaintext never reaches this layer.
func (s *QRStore) SetPassword(ctx context.Context, id, passwordHash string) (model.QRCode, error) {
	return s.mutate(ctx, id, func(qr *model.QRCode) error {
		if qr.Type != model.QRTypeDynamic {
			return ErrNotDynamic
		}
		qr.PasswordHash = passwordHash
		return nil
	})
}

// RemovePassword clears password protection from a record.
func (s *QRStore) RemovePassword(ctx context.Context, id string) (model.QRCode, error) {
	return s.mutate(ctx, id, func(qr *model.QRCode) error {
		qr.PasswordHash = ""
		return nil
	})
}

// SetExpiry sets or clears (zero time) the record's expiry.
func (s *QRStore) SetExpiry(ctx context.Context, id string, expiresAt time.Time) (model.QRCode, error) {
	return s.mutate(ctx, id, func(qr *model.QRCode) error {
		if qr.Type != model.QRTypeDynamic {
			return ErrNotDynamic
		}
		qr.ExpiresAt = expiresAt
		return nil
	})
}

// Deactivate soft-deletes a record. The record stays stored so existing scan
// history keeps a referent; resolution treats it as not found.
func (s *QRStore) Deactivate(ctx context.Context, id string) (model.QRCode, error) {
	qr, err := s.mutate(ctx, id, func(qr *model.QRCode) error {
		qr.Active = false
		return nil
	})
	if err != nil {
		return model.QRCode{}, err
	}
	if err := s.redis.SRem(ctx, codeSetKey, qr.Code).Err(); err != nil {
		log.Error().Err(err).Str("code", qr.Code).Msg("Failed to drop code from listing")
	}
	return qr, nil
}

// List returns active records, optionally filtered by folder and type.
func (s *QRStore) List(ctx context.Context, folder string, qrType model.QRType) ([]model.QRCode, error) {
	codes, err := s.redis.SMembers(ctx, codeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}

	results := make([]model.QRCode, 0, len(codes))
	for _, code := range codes {
		qr, err := s.GetByCode(ctx, code)
		if err == ErrNotFound {
			continue
		} else if err != nil {
			return nil, err
		}
		if !qr.Active {
			continue
		}
		if folder != "" && qr.Folder != folder {
			continue
		}
		if qrType != "" && qr.Type != qrType {
			continue
		}
		results = append(results, qr)
	}
	return results, nil
}

// mutate runs a read-modify-write cycle for the record addressed by id.
func (s *QRStore) mutate(ctx context.Context, id string, apply func(*model.QRCode) error) (model.QRCode, error) {
	qr, err := s.GetByID(ctx, id)
	if err != nil {
		return model.QRCode{}, err
	}

	if err := apply(&qr); err != nil {
		return model.QRCode{}, err
	}

	data, err := json.Marshal(qr)
	if err != nil {
		return model.QRCode{}, fmt.Errorf("marshal qr record: %w", err)
	}
	if err := s.redis.Set(ctx, qrKeyPrefix+qr.Code, data, 0).Err(); err != nil {
		return model.QRCode{}, fmt.Errorf("store qr record: %w", err)
	}
	return qr, nil
}
