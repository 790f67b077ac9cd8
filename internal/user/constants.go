package user

import "time"

// Tier cache defaults
const (
	DefaultTierCacheSize = 1024
	DefaultTierCacheTTL  = 30 * time.Second
)

// Log Messages
const (
	LogMsgGetProfileCalled = "Get profile called"
	LogMsgTierUpdated      = "Verification tier updated"
)

// Error Context Messages
const (
	ErrContextFailedToGetProfile    = "failed to get profile"
	ErrContextFailedToUpsertProfile = "failed to upsert profile"
)
