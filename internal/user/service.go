// Package user holds the platform-side user profile, chiefly the
// verification tier consumed by the eligibility gate. Tier changes arrive
// from the external KYC provider through an admin endpoint.
package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/repository"
)

// Service manages user profiles and verification tiers. It satisfies the
// eligibility gate's TierProvider.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	SetVerificationTier(ctx context.Context, userID uuid.UUID, handle string, tier domain.VerificationTier) (*domain.UserProfile, error)
	VerificationTier(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error)
}

type service struct {
	repo repository.User

	// tierCache keeps hot tiers out of the profile table; reward issuance
	// reads the tier on every submission
	tierCache *expirable.LRU[uuid.UUID, domain.VerificationTier]
}

// NewService creates a new user profile service
func NewService(repo repository.User) Service {
	return &service{
		repo:      repo,
		tierCache: expirable.NewLRU[uuid.UUID, domain.VerificationTier](DefaultTierCacheSize, nil, DefaultTierCacheTTL),
	}
}

// GetProfile returns the profile for a user
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgGetProfileCalled, "userID", userID)

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToGetProfile, err)
	}
	if profile == nil {
		return nil, domain.ErrUserNotFound
	}
	return profile, nil
}

// SetVerificationTier records the tier reported by the verification
// provider, creating the profile if it does not exist yet
func (s *service) SetVerificationTier(ctx context.Context, userID uuid.UUID, handle string, tier domain.VerificationTier) (*domain.UserProfile, error) {
	log := logger.FromContext(ctx)

	profile, err := s.repo.UpsertProfile(ctx, &domain.UserProfile{
		UserID:           userID,
		Handle:           handle,
		VerificationTier: tier,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrContextFailedToUpsertProfile, err)
	}

	s.tierCache.Remove(userID)
	log.Info(LogMsgTierUpdated, "userID", userID, "tier", tier.String())
	return profile, nil
}

// VerificationTier reports a user's current tier. Users without a profile
// are unverified.
func (s *service) VerificationTier(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error) {
	if tier, ok := s.tierCache.Get(userID); ok {
		return tier, nil
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return domain.TierUnverified, fmt.Errorf("%s: %w", ErrContextFailedToGetProfile, err)
	}

	tier := domain.TierUnverified
	if profile != nil {
		tier = profile.VerificationTier
	}
	s.tierCache.Add(userID, tier)
	return tier, nil
}
