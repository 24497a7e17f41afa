package model

// AnalyticsSummary represents aggregated scan analytics for one QR code
type AnalyticsSummary struct {
	TotalScans   int            `json:"totalScans"`   // Scans within the requested window
	UniqueScans  int            `json:"uniqueScans"`  // Distinct hashed source identities
	ByDay        []DayCount     `json:"byDay"`        // One bucket per calendar day, chronological
	TopCountries []CountryCount `json:"topCountries"` // Descending by count, top 10
}

// DayCount represents scans on a single calendar day
type DayCount struct {
	Date  string `json:"date"` // Date in "YYYY-MM-DD" format
	Scans int    `json:"scans"`
}

// CountryCount represents scans attributed to one coarse region
type CountryCount struct {
	Country string `json:"country"`
	Scans   int    `json:"scans"`
}
