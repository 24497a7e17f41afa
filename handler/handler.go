package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/analytics"
	"github.com/minhson226/qrcode-builder-v2/cache"
	"github.com/minhson226/qrcode-builder-v2/config"
	"github.com/minhson226/qrcode-builder-v2/resolve"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

const (
	codeLength = 8
	maxRetries = 5
	charset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var errMaxRetriesExceeded = errors.New("failed to generate unique code after maximum retries")

// QRHandler carries every dependency the HTTP layer needs.
type QRHandler struct {
	redis      *redis.Client
	store      *storage.QRStore
	cache      *cache.Cache
	service    *resolve.Service
	recorder   *resolve.ScanRecorder
	aggregator *analytics.Aggregator
	config     config.Config
	baseURL    string
}

// NewQRHandler creates the handler with its dependencies injected.
func NewQRHandler(
	redisClient *redis.Client,
	store *storage.QRStore,
	recordCache *cache.Cache,
	service *resolve.Service,
	recorder *resolve.ScanRecorder,
	aggregator *analytics.Aggregator,
	cfg config.Config,
) *QRHandler {
	// Use configured base_url if provided, otherwise construct from scheme, IP, and port
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &QRHandler{
		redis:      redisClient,
		store:      store,
		cache:      recordCache,
		service:    service,
		recorder:   recorder,
		aggregator: aggregator,
		config:     cfg,
		baseURL:    baseURL,
	}
}

// opCtx derives the bounded per-request deadline for store operations.
func (h *QRHandler) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

// generateRandomCode generates a cryptographically secure random code.
func generateRandomCode(length int) (string, error) {
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// generateUniqueCode generates a code with collision detection against the store.
func (h *QRHandler) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		code, err := generateRandomCode(codeLength)
		if err != nil {
			return "", err
		}

		exists, err := h.store.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}

		log.Warn().
			Str("code", code).
			Int("attempt", attempt+1).
			Msg("Collision detected, retrying")
	}

	return "", errMaxRetriesExceeded
}

// HealthCheck handles GET /health
func (h *QRHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "unhealthy",
			"redis":  "unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":            "healthy",
		"redis":             "connected",
		"scanEventsDropped": h.recorder.Dropped(),
	})
}

// CacheMetrics handles GET /cache/metrics
func (h *QRHandler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("cache is disabled"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}
