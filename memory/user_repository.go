// Package memory provides a process-local UserRepository for development
// and tests. It enforces the same identity uniqueness as the durable stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pilab-dev/shadow-login/domain"
)

type identityKey struct {
	provider   string
	externalID string
}

// UserRepository implements domain.UserRepository in memory.
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byIdentity map[identityKey]string
	now        func() time.Time
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byIdentity: make(map[identityKey]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// FindByProviderAndExternalID implements domain.UserRepository.
func (r *UserRepository) FindByProviderAndExternalID(_ context.Context, provider, externalID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentity[identityKey{provider, externalID}]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return copyUser(r.byID[id]), nil
}

// FindByID implements domain.UserRepository.
func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	return copyUser(u), nil
}

// Save implements domain.UserRepository.
func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey{user.Provider, user.ExternalID}

	if user.ID == "" {
		if _, exists := r.byIdentity[key]; exists {
			return nil, domain.ErrDuplicateUser
		}
		stored := copyUser(user)
		stored.ID = uuid.NewString()
		now := r.now()
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		if stored.UpdatedAt.IsZero() {
			stored.UpdatedAt = stored.CreatedAt
		}
		r.byID[stored.ID] = stored
		r.byIdentity[key] = stored.ID

		return copyUser(stored), nil
	}

	existing, ok := r.byID[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if owner, taken := r.byIdentity[key]; taken && owner != user.ID {
		return nil, domain.ErrDuplicateUser
	}

	stored := copyUser(user)
	stored.CreatedAt = existing.CreatedAt
	delete(r.byIdentity, identityKey{existing.Provider, existing.ExternalID})
	r.byIdentity[key] = stored.ID
	r.byID[stored.ID] = stored

	return copyUser(stored), nil
}

// Ping implements domain.UserRepository.
func (r *UserRepository) Ping(context.Context) error {
	return nil
}

// Count is the number of stored users.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Username = copyString(u.Username)
	c.DisplayName = copyString(u.DisplayName)
	c.Email = copyString(u.Email)
	c.AvatarURL = copyString(u.AvatarURL)

	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s

	return &v
}

var _ domain.UserRepository = (*UserRepository)(nil)
