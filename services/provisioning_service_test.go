package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pilab-dev/shadow-login/domain"
	mock_domain "github.com/pilab-dev/shadow-login/domain/mock"
	"github.com/pilab-dev/shadow-login/internal/federation"
	"github.com/pilab-dev/shadow-login/log"
	"github.com/pilab-dev/shadow-login/memory"
	"github.com/pilab-dev/shadow-login/services"
)

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}

func githubProfile() domain.ProviderProfile {
	return domain.ProviderProfile{
		Provider:    domain.ProviderGitHub,
		ExternalID:  "100",
		Username:    domain.StringPtr("octocat"),
		DisplayName: domain.StringPtr("Mona Lisa"),
		Email:       nil,
		AvatarURL:   domain.StringPtr("https://avatars.githubusercontent.com/u/100"),
	}
}

func TestProvisioningService_CreatesOnFirstLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_domain.NewMockUserRepository(ctrl)

	now := time.Date(2025, 1, 3, 3, 8, 6, 0, time.UTC)
	svc := services.NewProvisioningService(repo, log.NewNopLogger(), services.WithClock(func() time.Time { return now }))

	repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), "GITHUB", "100").Return(nil, domain.ErrUserNotFound)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
		assert.Empty(t, u.ID)
		assert.Equal(t, "octocat", *u.Username)
		assert.Equal(t, now, u.LastLoginAt)
		stored := *u
		stored.ID = "new-id"
		stored.CreatedAt = now
		stored.UpdatedAt = now
		return &stored, nil
	})

	user, err := svc.GetOrCreate(context.Background(), githubProfile())
	require.NoError(t, err)
	assert.Equal(t, "new-id", user.ID)
	assert.Nil(t, user.Email)
}

func TestProvisioningService_LoginWithoutChangesKeepsUpdatedAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_domain.NewMockUserRepository(ctrl)

	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 3, 3, 8, 6, 0, time.UTC)
	svc := services.NewProvisioningService(repo, log.NewNopLogger(), services.WithClock(func() time.Time { return now }))

	existing := domain.NewUserFromProfile(githubProfile(), created)
	existing.ID = "u1"
	existing.CreatedAt = created
	existing.UpdatedAt = created

	repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), "GITHUB", "100").Return(existing, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
		return u, nil
	})

	user, err := svc.GetOrCreate(context.Background(), githubProfile())
	require.NoError(t, err)
	assert.Equal(t, now, user.LastLoginAt)
	assert.Equal(t, created, user.UpdatedAt)
	assert.Equal(t, created, user.CreatedAt)
}

func TestProvisioningService_ChangePropagation(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := services.NewProvisioningService(repo, log.NewNopLogger(),
		services.WithClock(steppingClock(time.Now().UTC(), time.Second)))
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, githubProfile())
	require.NoError(t, err)

	changed := githubProfile()
	changed.Username = domain.StringPtr("octocat-renamed")
	changed.Email = domain.StringPtr("mona@example.com")
	changed.AvatarURL = domain.StringPtr("https://avatars.githubusercontent.com/u/100?v=2")

	second, err := svc.GetOrCreate(ctx, changed)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "octocat-renamed", *second.Username)
	assert.Equal(t, "mona@example.com", *second.Email)
	assert.Equal(t, "https://avatars.githubusercontent.com/u/100?v=2", *second.AvatarURL)
	assert.Equal(t, "Mona Lisa", *second.DisplayName)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, second.LastLoginAt, second.UpdatedAt)
	assert.Equal(t, 1, repo.Count())
}

func TestProvisioningService_Idempotent(t *testing.T) {
	repo := memory.NewUserRepository()
	// A frozen clock still has to yield strictly increasing login times.
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := services.NewProvisioningService(repo, log.NewNopLogger(),
		services.WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, githubProfile())
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, githubProfile())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.LastLoginAt.After(first.LastLoginAt))
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, 1, repo.Count())
}

// millisecondRepository stores timestamps at millisecond precision, as BSON does.
type millisecondRepository struct {
	*memory.UserRepository
}

func (r millisecondRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	u.CreatedAt = u.CreatedAt.Truncate(time.Millisecond)
	u.UpdatedAt = u.UpdatedAt.Truncate(time.Millisecond)
	u.LastLoginAt = u.LastLoginAt.Truncate(time.Millisecond)

	return r.UserRepository.Save(ctx, &u)
}

func TestProvisioningService_LoginsWithinOneMillisecond(t *testing.T) {
	repo := millisecondRepository{memory.NewUserRepository()}
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{t0.Add(100 * time.Microsecond), t0.Add(400 * time.Microsecond), t0.Add(700 * time.Microsecond)}
	var calls int
	svc := services.NewProvisioningService(repo, log.NewNopLogger(), services.WithClock(func() time.Time {
		tick := ticks[calls]
		calls++
		return tick
	}))
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, githubProfile())
	require.NoError(t, err)
	assert.Equal(t, t0, first.LastLoginAt)

	previous := first.LastLoginAt
	for i := 0; i < 2; i++ {
		next, err := svc.GetOrCreate(ctx, githubProfile())
		require.NoError(t, err)
		assert.True(t, next.LastLoginAt.After(previous), "login %d: %v is not after %v", i+2, next.LastLoginAt, previous)

		stored, err := repo.FindByID(ctx, next.ID)
		require.NoError(t, err)
		assert.Equal(t, next.LastLoginAt, stored.LastLoginAt)
		previous = next.LastLoginAt
	}
}

func TestProvisioningService_ConcurrentFirstLogins(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := services.NewProvisioningService(repo, log.NewNopLogger())
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.GetOrCreate(ctx, githubProfile())
			errs[i] = err
			if err == nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, repo.Count())
}

func TestProvisioningService_LostInsertRaceUpdatesWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock_domain.NewMockUserRepository(ctrl)
	now := time.Date(2025, 1, 3, 3, 8, 6, 0, time.UTC)
	svc := services.NewProvisioningService(repo, log.NewNopLogger(), services.WithClock(func() time.Time { return now }))

	winner := domain.NewUserFromProfile(githubProfile(), now.Add(-time.Second))
	winner.ID = "winner"
	winner.Username = domain.StringPtr("stale")

	gomock.InOrder(
		repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), "GITHUB", "100").Return(nil, domain.ErrUserNotFound),
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateUser),
		repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), "GITHUB", "100").Return(winner, nil),
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
			assert.Equal(t, "winner", u.ID)
			return u, nil
		}),
	)

	user, err := svc.GetOrCreate(context.Background(), githubProfile())
	require.NoError(t, err)
	assert.Equal(t, "winner", user.ID)
	assert.Equal(t, "octocat", *user.Username)
	assert.Equal(t, now, user.UpdatedAt)
}

func TestProvisioningService_Errors(t *testing.T) {
	storeDown := errors.New("connection refused")

	tests := []struct {
		name    string
		profile domain.ProviderProfile
		setup   func(repo *mock_domain.MockUserRepository)
		wantErr error
	}{
		{
			name:    "missing external id",
			profile: domain.ProviderProfile{Provider: "OKTA"},
			setup:   func(repo *mock_domain.MockUserRepository) {},
			wantErr: domain.ErrInvalidProfile,
		},
		{
			name:    "lookup failure",
			profile: githubProfile(),
			setup: func(repo *mock_domain.MockUserRepository) {
				repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storeDown)
			},
			wantErr: storeDown,
		},
		{
			name:    "insert failure is not retried",
			profile: githubProfile(),
			setup: func(repo *mock_domain.MockUserRepository) {
				repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, domain.ErrUserNotFound)
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, storeDown).Times(1)
			},
			wantErr: storeDown,
		},
		{
			name:    "update failure",
			profile: githubProfile(),
			setup: func(repo *mock_domain.MockUserRepository) {
				existing := domain.NewUserFromProfile(githubProfile(), time.Time{})
				existing.ID = "u1"
				repo.EXPECT().FindByProviderAndExternalID(gomock.Any(), gomock.Any(), gomock.Any()).Return(existing, nil)
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, storeDown)
			},
			wantErr: storeDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mock_domain.NewMockUserRepository(ctrl)
			tt.setup(repo)

			svc := services.NewProvisioningService(repo, log.NewNopLogger())
			user, err := svc.GetOrCreate(context.Background(), tt.profile)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProvisioningService_GitHubEndToEnd(t *testing.T) {
	repo := memory.NewUserRepository()
	resolver := federation.NewResolver(nil, log.NewNopLogger())
	svc := services.NewProvisioningService(repo, log.NewNopLogger())

	profile := resolver.Resolve(context.Background(), "github", federation.Attributes{
		"id":         12345,
		"login":      "octocat",
		"name":       "Mona Lisa",
		"email":      nil,
		"avatar_url": "https://avatars.githubusercontent.com/u/12345",
	}, &federation.AccessToken{Value: "gho_token", Scopes: []string{"read:user"}})

	assert.Equal(t, domain.ProviderProfile{
		Provider:    "GITHUB",
		ExternalID:  "12345",
		Username:    domain.StringPtr("octocat"),
		DisplayName: domain.StringPtr("Mona Lisa"),
		AvatarURL:   domain.StringPtr("https://avatars.githubusercontent.com/u/12345"),
	}, profile)

	before := time.Now().UTC()
	user, err := svc.GetOrCreate(context.Background(), profile)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "GITHUB", user.Provider)
	assert.Equal(t, "12345", user.ExternalID)
	assert.Equal(t, "octocat", *user.Username)
	assert.Equal(t, "Mona Lisa", *user.DisplayName)
	assert.Nil(t, user.Email)
	assert.False(t, user.LastLoginAt.Before(before))
}
