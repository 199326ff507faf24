package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pilab-dev/shadow-login/domain"
)

// RepositoryProvider serves repositories backed by one pgx pool.
type RepositoryProvider struct {
	pool     *pgxpool.Pool
	userRepo *UserRepository
}

// NewRepositoryProvider connects to dsn and applies the schema.
func NewRepositoryProvider(ctx context.Context, dsn string) (*RepositoryProvider, error) {
	pool, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &RepositoryProvider{pool: pool, userRepo: NewUserRepository(pool)}, nil
}

// UserRepository implements services.RepositoryProvider.
func (p *RepositoryProvider) UserRepository() domain.UserRepository {
	return p.userRepo
}

// Close releases the pool.
func (p *RepositoryProvider) Close(context.Context) error {
	p.pool.Close()
	return nil
}
