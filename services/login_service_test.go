package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/internal/federation"
	"github.com/pilab-dev/shadow-login/log"
	"github.com/pilab-dev/shadow-login/services"
)

type MockProfileResolver struct {
	mock.Mock
}

func (m *MockProfileResolver) Resolve(
	ctx context.Context, registrationID string, attrs federation.Attributes, token *federation.AccessToken,
) domain.ProviderProfile {
	args := m.Called(ctx, registrationID, attrs, token)
	return args.Get(0).(domain.ProviderProfile)
}

type MockUserProvisioner struct {
	mock.Mock
}

func (m *MockUserProvisioner) GetOrCreate(ctx context.Context, profile domain.ProviderProfile) (*domain.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestLoginService_CompleteLogin(t *testing.T) {
	resolver := new(MockProfileResolver)
	provisioner := new(MockUserProvisioner)
	svc := services.NewLoginService(resolver, provisioner, log.NewNopLogger())

	attrs := federation.Attributes{"sub": "kc-1"}
	token := &federation.AccessToken{Value: "t"}
	profile := domain.ProviderProfile{Provider: "KEYCLOAK", ExternalID: "kc-1"}
	user := &domain.User{ID: "u1", Provider: "KEYCLOAK", ExternalID: "kc-1"}

	resolver.On("Resolve", mock.Anything, "keycloak", attrs, token).Return(profile)
	provisioner.On("GetOrCreate", mock.Anything, profile).Return(user, nil)

	got, err := svc.CompleteLogin(context.Background(), services.LoginRequest{
		RegistrationID: "keycloak",
		Attributes:     attrs,
		Token:          token,
	})
	require.NoError(t, err)
	assert.Same(t, user, got)

	resolver.AssertExpectations(t)
	provisioner.AssertExpectations(t)
}

func TestLoginService_ProvisioningFailureIsAuthenticationFailure(t *testing.T) {
	resolver := new(MockProfileResolver)
	provisioner := new(MockUserProvisioner)
	svc := services.NewLoginService(resolver, provisioner, log.NewNopLogger())

	storeDown := errors.New("store down")
	resolver.On("Resolve", mock.Anything, "github", mock.Anything, mock.Anything).
		Return(domain.ProviderProfile{Provider: "GITHUB", ExternalID: "1"})
	provisioner.On("GetOrCreate", mock.Anything, mock.Anything).Return(nil, storeDown)

	user, err := svc.CompleteLogin(context.Background(), services.LoginRequest{RegistrationID: "github"})
	assert.Nil(t, user)
	assert.ErrorIs(t, err, services.ErrAuthenticationFailed)
	assert.ErrorIs(t, err, storeDown)
}
