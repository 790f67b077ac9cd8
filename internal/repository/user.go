package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// User defines the data access for user profiles
type User interface {
	// GetProfile returns a profile by user id, or nil when none exists
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// UpsertProfile inserts or updates a profile by user id
	UpsertProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
}
