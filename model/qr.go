package model

import "time"

// QRType distinguishes how a code's destination is resolved.
type QRType string

const (
	// QRTypeStatic encodes its destination directly; the content is immutable.
	QRTypeStatic QRType = "static"
	// QRTypeDynamic encodes a stable code whose target can be rewritten later.
	QRTypeDynamic QRType = "dynamic"
)

// QRCode is the stored record behind a scannable code.
type QRCode struct {
	ID           string                 `json:"id"`                     // UUID v4, used for management operations
	Code         string                 `json:"code"`                   // short opaque code embedded in the image
	Type         QRType                 `json:"type"`                   // static or dynamic
	Name         string                 `json:"name,omitempty"`
	Folder       string                 `json:"folder,omitempty"`
	Content      string                 `json:"content,omitempty"`      // destination for static codes
	Target       string                 `json:"target,omitempty"`       // mutable destination for dynamic codes
	PasswordHash string                 `json:"passwordHash,omitempty"` // bcrypt hash, empty means no gate
	ExpiresAt    time.Time              `json:"expiresAt,omitempty"`
	Design       map[string]interface{} `json:"design,omitempty"` // rendering options, opaque to the resolve path
	Active       bool                   `json:"active"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Protected reports whether access to the code requires a password.
func (q *QRCode) Protected() bool {
	return q.PasswordHash != ""
}

// Expired reports whether the code is past its expiry at the given instant.
// Codes with no expiry never expire.
func (q *QRCode) Expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && q.ExpiresAt.Before(now)
}

// Destination returns the URL the code resolves to. The boolean is false when
// a dynamic code has no target configured.
func (q *QRCode) Destination() (string, bool) {
	if q.Type == QRTypeStatic {
		return q.Content, q.Content != ""
	}
	return q.Target, q.Target != ""
}
