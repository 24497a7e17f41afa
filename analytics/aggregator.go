package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/minhson226/qrcode-builder-v2/model"
	"github.com/minhson226/qrcode-builder-v2/storage"
)

const dateLayout = "2006-01-02"

// rangeDays maps the named range tokens exposed to reporting callers.
var rangeDays = map[string]int{
	"last_7d":   7,
	"last_30d":  30,
	"last_90d":  90,
	"last_year": 365,
}

// Aggregator turns raw scan history into per-code summaries. Reads are
// best-effort over an eventually consistent store; a summary may trail
// in-flight scans by a moment.
type Aggregator struct {
	scans       *storage.ScanStore
	defaultDays int
	topMax      int
}

// NewAggregator constructs an Aggregator. defaultDays applies when the range
// token is absent or unrecognized; topMax caps the region leaderboard.
func NewAggregator(scans *storage.ScanStore, defaultDays, topMax int) *Aggregator {
	return &Aggregator{scans: scans, defaultDays: defaultDays, topMax: topMax}
}

// RangeToDays parses a named range token into a trailing day count.
func (a *Aggregator) RangeToDays(token string) int {
	if days, ok := rangeDays[token]; ok {
		return days
	}
	return a.defaultDays
}

// Summarize aggregates the code's scans over the trailing window named by
// rangeToken. A code with no history reports zeros and empty slices, never an
// error.
func (a *Aggregator) Summarize(ctx context.Context, qrID, rangeToken string) (model.AnalyticsSummary, error) {
	days := a.RangeToDays(rangeToken)

	// Window covers today plus the previous days-1 calendar days, so every
	// event inside it lands in exactly one bucket.
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	events, err := a.scans.ListSince(ctx, qrID, since)
	if err != nil {
		return model.AnalyticsSummary{}, err
	}

	// No history at all reports empty aggregates, not a window of zeros
	if len(events) == 0 {
		return model.AnalyticsSummary{
			ByDay:        []model.DayCount{},
			TopCountries: []model.CountryCount{},
		}, nil
	}

	uniqueSources := make(map[string]struct{})
	countByDay := make(map[string]int)
	countByCountry := make(map[string]int)
	countryOrder := make([]string, 0) // first-seen order for tie-breaking

	for _, event := range events {
		uniqueSources[event.IPHash] = struct{}{}
		countByDay[event.HappenedAt.UTC().Format(dateLayout)]++
		if event.Country != "" {
			if _, seen := countByCountry[event.Country]; !seen {
				countryOrder = append(countryOrder, event.Country)
			}
			countByCountry[event.Country]++
		}
	}

	// Zero-filled chronological day buckets
	byDay := make([]model.DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		byDay = append(byDay, model.DayCount{Date: date, Scans: countByDay[date]})
	}

	// Region leaderboard: descending by count, first-seen breaks ties
	topCountries := make([]model.CountryCount, 0, len(countryOrder))
	for _, country := range countryOrder {
		topCountries = append(topCountries, model.CountryCount{
			Country: country,
			Scans:   countByCountry[country],
		})
	}
	sort.SliceStable(topCountries, func(i, j int) bool {
		return topCountries[i].Scans > topCountries[j].Scans
	})
	if len(topCountries) > a.topMax {
		topCountries = topCountries[:a.topMax]
	}

	return model.AnalyticsSummary{
		TotalScans:   len(events),
		UniqueScans:  len(uniqueSources),
		ByDay:        byDay,
		TopCountries: topCountries,
	}, nil
}
