package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the platform-side view of a user. Identity verification
// happens in an external KYC provider; the tier recorded here is the
// provider's last reported level.
type UserProfile struct {
	UserID           uuid.UUID        `json:"user_id"`
	Handle           string           `json:"handle"`
	VerificationTier VerificationTier `json:"verification_tier"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ParseVerificationTier converts a tier name to its level
func ParseVerificationTier(s string) (VerificationTier, bool) {
	switch s {
	case "UNVERIFIED":
		return TierUnverified, true
	case "BASIC":
		return TierBasic, true
	case "FULL":
		return TierFull, true
	}
	return TierUnverified, false
}

// String returns the tier name
func (t VerificationTier) String() string {
	switch t {
	case TierBasic:
		return "BASIC"
	case TierFull:
		return "FULL"
	default:
		return "UNVERIFIED"
	}
}
