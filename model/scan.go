package model

import "time"

// ScanEvent is an immutable record of one successful resolution.
//
// IPHash is a truncated SHA256 of the caller's address; the raw address must
// never be stored.
type ScanEvent struct {
	QRID       string    `json:"qrId"`
	HappenedAt time.Time `json:"happenedAt"`
	IPHash     string    `json:"ipHash"`
	Country    string    `json:"country,omitempty"`
	Device     string    `json:"device,omitempty"`    // normalized device/OS family
	UserAgent  string    `json:"userAgent,omitempty"` // truncated raw user agent
}
