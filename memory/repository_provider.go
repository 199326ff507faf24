package memory

import (
	"context"

	"github.com/pilab-dev/shadow-login/domain"
)

// RepositoryProvider serves in-memory repositories.
type RepositoryProvider struct {
	userRepo *UserRepository
}

// NewRepositoryProvider creates a provider with empty repositories.
func NewRepositoryProvider() *RepositoryProvider {
	return &RepositoryProvider{userRepo: NewUserRepository()}
}

// UserRepository implements services.RepositoryProvider.
func (p *RepositoryProvider) UserRepository() domain.UserRepository {
	return p.userRepo
}

// Close is a no-op.
func (p *RepositoryProvider) Close(context.Context) error {
	return nil
}
