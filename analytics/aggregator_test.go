package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/minhson226/qrcode-builder-v2/model"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

func setupAggregator(t *testing.T, topMax int) (*Aggregator, *storage.ScanStore, func()) {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cleanup := func() {
		client.Close()
		s.Close()
	}

	scans := storage.NewScanStore(client)
	return NewAggregator(scans, 30, topMax), scans, cleanup
}

func scan(qrID, ipHash, country string, at time.Time) model.ScanEvent {
	return model.ScanEvent{QRID: qrID, IPHash: ipHash, Country: country, HappenedAt: at}
}

func TestAggregator_NoHistory(t *testing.T) {
	agg, _, cleanup := setupAggregator(t, 10)
	defer cleanup()

	summary, err := agg.Summarize(context.Background(), "qr-empty", "last_30d")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.TotalScans != 0 || summary.UniqueScans != 0 {
		t.Errorf("Counts = %d/%d, want 0/0", summary.TotalScans, summary.UniqueScans)
	}
	if summary.ByDay == nil || len(summary.ByDay) != 0 {
		t.Errorf("ByDay = %v, want empty slice", summary.ByDay)
	}
	if summary.TopCountries == nil || len(summary.TopCountries) != 0 {
		t.Errorf("TopCountries = %v, want empty slice", summary.TopCountries)
	}
}

func TestAggregator_Counts(t *testing.T) {
	agg, scans, cleanup := setupAggregator(t, 10)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	// Three scans from two distinct sources
	scans.Append(ctx, scan("qr-1", "aaaa", "US", now))
	scans.Append(ctx, scan("qr-1", "aaaa", "US", now.Add(-time.Hour)))
	scans.Append(ctx, scan("qr-1", "bbbb", "DE", now.AddDate(0, 0, -1)))

	summary, err := agg.Summarize(ctx, "qr-1", "last_7d")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.TotalScans != 3 {
		t.Errorf("TotalScans = %d, want 3", summary.TotalScans)
	}
	if summary.UniqueScans != 2 {
		t.Errorf("UniqueScans = %d, want 2", summary.UniqueScans)
	}
}

func TestAggregator_ByDayIsZeroFilledAndChronological(t *testing.T) {
	agg, scans, cleanup := setupAggregator(t, 10)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	scans.Append(ctx, scan("qr-1", "aaaa", "US", now))
	scans.Append(ctx, scan("qr-1", "bbbb", "US", now.AddDate(0, 0, -3)))

	summary, err := agg.Summarize(ctx, "qr-1", "last_7d")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(summary.ByDay) != 7 {
		t.Fatalf("ByDay has %d buckets, want 7", len(summary.ByDay))
	}

	// Oldest day first, today last
	for i := 1; i < len(summary.ByDay); i++ {
		if summary.ByDay[i-1].Date >= summary.ByDay[i].Date {
			t.Errorf("ByDay not chronological at %d: %s >= %s", i, summary.ByDay[i-1].Date, summary.ByDay[i].Date)
		}
	}

	total := 0
	for _, day := range summary.ByDay {
		total += day.Scans
	}
	if total != 2 {
		t.Errorf("ByDay sums to %d, want 2", total)
	}
	if summary.ByDay[6].Date != now.Format("2006-01-02") {
		t.Errorf("Last bucket = %s, want today", summary.ByDay[6].Date)
	}
	if summary.ByDay[6].Scans != 1 {
		t.Errorf("Today's bucket = %d, want 1", summary.ByDay[6].Scans)
	}
}

func TestAggregator_TopCountries(t *testing.T) {
	agg, scans, cleanup := setupAggregator(t, 2)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	// DE first seen before FR and with an equal count to it
	scans.Append(ctx, scan("qr-1", "a", "DE", now))
	scans.Append(ctx, scan("qr-1", "b", "FR", now))
	scans.Append(ctx, scan("qr-1", "c", "US", now))
	scans.Append(ctx, scan("qr-1", "d", "US", now))
	scans.Append(ctx, scan("qr-1", "e", "US", now))
	scans.Append(ctx, scan("qr-1", "f", "DE", now))
	scans.Append(ctx, scan("qr-1", "g", "FR", now))
	scans.Append(ctx, scan("qr-1", "h", "", now)) // unknown origin never ranks

	summary, err := agg.Summarize(ctx, "qr-1", "last_7d")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(summary.TopCountries) != 2 {
		t.Fatalf("TopCountries has %d entries, want 2 (capped)", len(summary.TopCountries))
	}
	if summary.TopCountries[0].Country != "US" || summary.TopCountries[0].Scans != 3 {
		t.Errorf("Top entry = %+v, want US with 3", summary.TopCountries[0])
	}
	// Tie between DE and FR goes to the one seen first
	if summary.TopCountries[1].Country != "DE" || summary.TopCountries[1].Scans != 2 {
		t.Errorf("Second entry = %+v, want DE with 2", summary.TopCountries[1])
	}
}

func TestAggregator_RangeToDays(t *testing.T) {
	agg, _, cleanup := setupAggregator(t, 10)
	defer cleanup()

	tests := []struct {
		token string
		want  int
	}{
		{"last_7d", 7},
		{"last_30d", 30},
		{"last_90d", 90},
		{"last_year", 365},
		{"", 30},
		{"bogus", 30},
	}
	for _, tt := range tests {
		if got := agg.RangeToDays(tt.token); got != tt.want {
			t.Errorf("RangeToDays(%q) = %d, want %d", tt.token, got, tt.want)
		}
	}
}

func TestAggregator_WindowExcludesOlderScans(t *testing.T) {
	agg, scans, cleanup := setupAggregator(t, 10)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	scans.Append(ctx, scan("qr-1", "aaaa", "US", now))
	scans.Append(ctx, scan("qr-1", "bbbb", "US", now.AddDate(0, 0, -10)))

	summary, err := agg.Summarize(ctx, "qr-1", "last_7d")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.TotalScans != 1 {
		t.Errorf("TotalScans = %d, want 1 (10-day-old scan outside window)", summary.TotalScans)
	}
}
