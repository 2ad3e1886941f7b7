package entity

import (
	"time"

	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
)

type Status string

const (
	// StatusActive mean the code was issued and can still be verified.
	StatusActive Status = "active"

	// StatusVerified mean the code was consumed by a successful verification.
	StatusVerified Status = "verified"

	// StatusExpired mean the expiry sweep closed the record after expires_at.
	StatusExpired Status = "expired"

	// StatusRevoked mean the record was replaced or locked after too many attempts.
	StatusRevoked Status = "revoked"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusVerified, StatusExpired, StatusRevoked:
		return true
	default:
		return false
	}
}

// Record is a persisted OTP issuance. CodeHash is the only form of the code that is stored.
type Record struct {
	ID         string
	Identifier string
	Purpose    string
	CodeHash   string
	Status     Status
	Attempts   int
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	Metadata   valueobject.JSONMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsVerifiable reports whether the record may still be checked against a code at now.
func (r Record) IsVerifiable(now time.Time) bool {
	return r.Status == StatusActive && now.Before(r.ExpiresAt)
}

// CacheEntry mirrors the active record of an (identifier, purpose) pair.
// It is a hint only, the database row stays authoritative.
type CacheEntry struct {
	ID       string `json:"id"`
	Hash     string `json:"hash"`
	Attempts int    `json:"attempts"`
}
