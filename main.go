package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/analytics"
	"github.com/minhson226/qrcode-builder-v2/cache"
	"github.com/minhson226/qrcode-builder-v2/config"
	"github.com/minhson226/qrcode-builder-v2/handler"
	"github.com/minhson226/qrcode-builder-v2/limiter"
	appLogger "github.com/minhson226/qrcode-builder-v2/logger"
	"github.com/minhson226/qrcode-builder-v2/middleware"
	redisClient "github.com/minhson226/qrcode-builder-v2/redis"
	"github.com/minhson226/qrcode-builder-v2/resolve"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Initialize Redis client
	rdb := redisClient.NewClient(cfg.Redis)

	// Initialize record cache (if enabled)
	var recordCache *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		recordCache, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Stores
	qrStore := storage.NewQRStore(rdb)
	scanStore := storage.NewScanStore(rdb)

	// Resolution pipeline: resolver -> gate -> recorder, orchestrated by the
	// service. The password attempt budget lives in Redis so it holds across
	// replicas.
	attemptLimiter := limiter.NewRedisLimiter(
		rdb,
		cfg.RateLimit.MaxAttempts,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
	)
	resolver := resolve.NewResolver(qrStore, recordCache)
	gate := resolve.NewAccessGate(attemptLimiter)
	recorder := resolve.NewScanRecorder(
		scanStore,
		time.Duration(cfg.Scan.RecordTimeout)*time.Second,
		cfg.Scan.UserAgentLimit,
	)
	service := resolve.NewService(resolver, gate, recorder)

	aggregator := analytics.NewAggregator(scanStore, cfg.Analytics.DefaultRangeDays, cfg.Analytics.TopCountriesMax)

	// Create handler with dependency injection
	qrHandler := handler.NewQRHandler(rdb, qrStore, recordCache, service, recorder, aggregator, cfg)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Register routes
	r.HandleFunc("/health", qrHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", qrHandler.CacheMetrics).Methods("GET")

	// Management API
	r.HandleFunc("/api/qr", qrHandler.CreateQR).Methods("POST")
	r.HandleFunc("/api/qr", qrHandler.ListQRs).Methods("GET")
	r.HandleFunc("/api/qr/{id}", qrHandler.GetQR).Methods("GET")
	r.HandleFunc("/api/qr/{id}", qrHandler.UpdateQR).Methods("PUT")
	r.HandleFunc("/api/qr/{id}", qrHandler.DeleteQR).Methods("DELETE")
	r.HandleFunc("/api/qr/{id}/target", qrHandler.UpdateTarget).Methods("PUT")
	r.HandleFunc("/api/qr/{id}/password", qrHandler.SetPassword).Methods("PUT")
	r.HandleFunc("/api/qr/{id}/password", qrHandler.RemovePassword).Methods("DELETE")
	r.HandleFunc("/api/qr/{id}/image", qrHandler.GenerateImage).Methods("GET")
	r.HandleFunc("/api/qr/{id}/analytics", qrHandler.GetQRAnalytics).Methods("GET")

	// Resolution route
	r.HandleFunc("/r/{code}", qrHandler.RedirectQR).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if recordCache != nil {
		recordCache.Close()
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
