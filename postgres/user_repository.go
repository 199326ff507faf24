// Package postgres stores shadow users in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pilab-dev/shadow-login/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, provider, external_id, username, display_name, email, avatar_url,
	created_at, updated_at, last_login_at`

// UserRepository implements domain.UserRepository on a pgx pool.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps pool. Run Migrate first.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Provider, &u.ExternalID, &u.Username, &u.DisplayName, &u.Email, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// FindByProviderAndExternalID implements domain.UserRepository.
func (r *UserRepository) FindByProviderAndExternalID(ctx context.Context, provider, externalID string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND external_id = $2`,
		provider, externalID))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		log.Error().Err(err).Str("provider", provider).Str("external_id", externalID).Msg("Error getting user from Postgres")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return u, err
}

// FindByID implements domain.UserRepository.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		log.Error().Err(err).Str("id", id).Msg("Error getting user by ID from Postgres")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return u, err
}

// Save implements domain.UserRepository.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	var (
		u   *domain.User
		err error
	)
	if user.ID == "" {
		u, err = r.insert(ctx, user)
	} else {
		u, err = r.update(ctx, user)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateUser
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("provider", user.Provider).Str("external_id", user.ExternalID).Msg("Error saving user in Postgres")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return u, nil
}

func (r *UserRepository) insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, provider, external_id, username, display_name, email, avatar_url,
			created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+userColumns,
		uuid.NewString(), user.Provider, user.ExternalID, user.Username, user.DisplayName, user.Email, user.AvatarURL,
		createdAt, updatedAt, user.LastLoginAt,
	))
}

func (r *UserRepository) update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, err := uuid.Parse(user.ID); err != nil {
		return nil, domain.ErrUserNotFound
	}

	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			provider = $2, external_id = $3, username = $4, display_name = $5, email = $6, avatar_url = $7,
			updated_at = $8, last_login_at = $9
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Provider, user.ExternalID, user.Username, user.DisplayName, user.Email, user.AvatarURL,
		user.UpdatedAt, user.LastLoginAt,
	))
}

// Ping implements domain.UserRepository.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ domain.UserRepository = (*UserRepository)(nil)
