package services

import (
	"context"

	"github.com/pilab-dev/shadow-login/domain"
)

// RepositoryProvider hands out the repositories of one storage backend and
// owns its connection.
type RepositoryProvider interface {
	UserRepository() domain.UserRepository
	Close(ctx context.Context) error
}
