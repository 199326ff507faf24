package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/internal/audit"
	"github.com/pilab-dev/shadow-login/internal/metrics"
	"github.com/pilab-dev/shadow-login/log"
)

const provisioningAuditService = "provisioning"

// ProvisioningService is the only writer of shadow users. It creates the user
// on first login and reconciles the stored profile on every later one.
type ProvisioningService struct {
	users  domain.UserRepository
	logger log.Logger
	now    func() time.Time
}

// ProvisioningOption configures a ProvisioningService.
type ProvisioningOption func(*ProvisioningService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ProvisioningOption {
	return func(s *ProvisioningService) {
		s.now = now
	}
}

// NewProvisioningService creates a new ProvisioningService.
func NewProvisioningService(users domain.UserRepository, logger log.Logger, opts ...ProvisioningOption) *ProvisioningService {
	s := &ProvisioningService{
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetOrCreate returns the user for the profile's identity, creating it on first
// login. Tracked attributes that differ are overwritten and LastLoginAt always
// advances. UpdatedAt moves only when a tracked attribute changed.
//
// Two concurrent first logins race on the store's unique identity index; the
// loser re-reads the winner's row and updates it instead.
func (s *ProvisioningService) GetOrCreate(ctx context.Context, profile domain.ProviderProfile) (*domain.User, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	// Stores keep millisecond precision at best.
	now := s.now().Truncate(time.Millisecond)

	existing, err := s.users.FindByProviderAndExternalID(ctx, profile.Provider, profile.ExternalID)
	if err == nil {
		return s.update(ctx, existing, profile, now)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	created, err := s.users.Save(ctx, domain.NewUserFromProfile(profile, now))
	if err == nil {
		metrics.UserCreatedTotal.WithLabelValues(created.Provider).Inc()
		audit.Log(provisioningAuditService, audit.ActionUserCreated, created.ID, identity(profile), "", true, nil)
		s.logger.Info(ctx, "created shadow user", log.Fields{
			"user_id":     created.ID,
			"provider":    created.Provider,
			"external_id": created.ExternalID,
		})
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateUser) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.ProvisioningConflictTotal.Inc()
	s.logger.Debug(ctx, "concurrent first login, updating the winning row", log.Fields{
		"provider":    profile.Provider,
		"external_id": profile.ExternalID,
	})

	winner, err := s.users.FindByProviderAndExternalID(ctx, profile.Provider, profile.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read user after conflicting insert: %w", err)
	}

	return s.update(ctx, winner, profile, now)
}

func (s *ProvisioningService) update(
	ctx context.Context, user *domain.User, profile domain.ProviderProfile, now time.Time,
) (*domain.User, error) {
	changed := user.ApplyProfile(profile)

	// LastLoginAt must strictly advance even when two logins share a clock tick.
	if !now.After(user.LastLoginAt) {
		now = user.LastLoginAt.Add(time.Millisecond)
	}
	user.LastLoginAt = now
	if changed {
		user.UpdatedAt = now
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if changed {
		metrics.UserUpdatedTotal.WithLabelValues(saved.Provider).Inc()
		audit.Log(provisioningAuditService, audit.ActionUserUpdated, saved.ID, identity(profile), "", true, nil)
	}
	s.logger.Debug(ctx, "reconciled shadow user", log.Fields{
		"user_id": saved.ID,
		"changed": changed,
	})

	return saved, nil
}

func identity(p domain.ProviderProfile) string {
	return p.Provider + ":" + p.ExternalID
}
