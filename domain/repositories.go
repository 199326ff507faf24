package domain

import (
	"context"
)

//go:generate go run go.uber.org/mock/mockgen -source=repositories.go -destination=mock/mock_repositories.go -package=mock_domain

// UserRepository persists shadow users. Implementations must enforce the
// uniqueness of (provider, external id) at the storage level.
type UserRepository interface {
	// FindByProviderAndExternalID returns ErrUserNotFound when no user matches.
	FindByProviderAndExternalID(ctx context.Context, provider, externalID string) (*User, error)
	// FindByID returns ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id string) (*User, error)
	// Save inserts the user when ID is empty and updates it by ID otherwise.
	// An insert that violates the unique identity index returns ErrDuplicateUser.
	Save(ctx context.Context, user *User) (*User, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
