package cache

import (
	"testing"
	"time"

	"github.com/minhson226/qrcode-builder-v2/config"
	"github.com/minhson226/qrcode-builder-v2/model"
)

func testRecord(code string) model.QRCode {
	return model.QRCode{
		ID:     "id-" + code,
		Code:   code,
		Type:   model.QRTypeDynamic,
		Target: "https://example.com",
		Active: true,
	}
}

func TestCacheBasicOperations(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  2, // 2 seconds for testing
		CounterSize: 1000,
	}

	cache, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	t.Run("Set_and_Get", func(t *testing.T) {
		record := testRecord("abc12345")

		ok := cache.Set(record.Code, record)
		if !ok {
			t.Error("Failed to set record in cache")
		}

		// Wait for async processing
		time.Sleep(10 * time.Millisecond)

		retrieved, found := cache.Get(record.Code)
		if !found {
			t.Error("Record not found in cache")
		}
		if retrieved.ID != record.ID || retrieved.Target != record.Target {
			t.Errorf("Expected %+v, got %+v", record, retrieved)
		}
	})

	t.Run("Get_NonExistent", func(t *testing.T) {
		_, found := cache.Get("nonexistent")
		if found {
			t.Error("Expected code not to be found")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		record := testRecord("del12345")

		cache.Set(record.Code, record)
		time.Sleep(10 * time.Millisecond)

		_, found := cache.Get(record.Code)
		if !found {
			t.Error("Record should exist before deletion")
		}

		cache.Delete(record.Code)
		time.Sleep(10 * time.Millisecond)

		_, found = cache.Get(record.Code)
		if found {
			t.Error("Record should not exist after deletion")
		}
	})
}

func TestCacheTTL(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  1, // 1 second TTL
		CounterSize: 1000,
	}

	cache, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	record := testRecord("ttl12345")

	cache.Set(record.Code, record)
	time.Sleep(10 * time.Millisecond)

	_, found := cache.Get(record.Code)
	if !found {
		t.Error("Record should exist immediately after setting")
	}

	// Wait for TTL to expire
	time.Sleep(1200 * time.Millisecond)

	_, found = cache.Get(record.Code)
	if found {
		t.Error("Record should have expired after TTL")
	}
}

func TestCacheMetrics(t *testing.T) {
	cfg := config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  60,
		CounterSize: 1000,
	}

	cache, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set("key1", testRecord("key1"))
	cache.Set("key2", testRecord("key2"))
	time.Sleep(100 * time.Millisecond) // Wait for async sets to complete

	cache.Get("key1") // Hit
	cache.Get("key2") // Hit
	cache.Get("key3") // Miss

	time.Sleep(200 * time.Millisecond) // Wait longer for metrics to update

	metrics := cache.GetMetricsSnapshot()

	// Ristretto metrics are async, so only the stable fields are asserted
	if metrics.TTLSeconds != 60 {
		t.Errorf("Expected TTL 60 seconds, got %d", metrics.TTLSeconds)
	}

	t.Logf("Cache metrics: Hits=%d, Misses=%d, KeysAdded=%d, HitRatio=%.2f",
		metrics.Hits, metrics.Misses, metrics.KeysAdded, metrics.HitRatio)
}

func TestCacheNilHandling(t *testing.T) {
	var cache *Cache

	// A disabled cache is represented as nil; every operation must be safe
	record, found := cache.Get("key")
	if found {
		t.Error("Get should return false on nil cache")
	}
	if record.Code != "" {
		t.Error("Get should return a zero record on nil cache")
	}

	if ok := cache.Set("key", testRecord("key")); ok {
		t.Error("Set should return false on nil cache")
	}

	// Should not panic
	cache.Delete("key")
	cache.Close()

	metrics := cache.GetMetricsSnapshot()
	if metrics.Hits != 0 {
		t.Error("Nil cache should return zero metrics")
	}
}
