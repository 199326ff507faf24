package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usersMigration = `
CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    provider text NOT NULL,
    external_id text NOT NULL,
    username text,
    display_name text,
    email text,
    avatar_url text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    last_login_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT users_provider_external_id_unique
        UNIQUE (provider, external_id)
);
`

// Migrate creates the users table and its identity constraint if missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, usersMigration); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	return nil
}

// Connect opens a pool for dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}
