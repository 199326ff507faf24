package federation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/internal/federation"
	mock_federation "github.com/pilab-dev/shadow-login/internal/federation/mock"
	"github.com/pilab-dev/shadow-login/log"
)

func githubAttrs() federation.Attributes {
	return federation.Attributes{
		"id":         12345,
		"login":      "octocat",
		"name":       "Mona Lisa",
		"email":      nil,
		"avatar_url": "https://avatars.githubusercontent.com/u/12345",
	}
}

func TestResolver_GitHubWithoutEmailScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)
	// No EXPECT: the lookup must not happen without user:email.

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "github", githubAttrs(),
		&federation.AccessToken{Value: "gho_token", Scopes: []string{"read:user"}})

	assert.Equal(t, domain.ProviderProfile{
		Provider:    "GITHUB",
		ExternalID:  "12345",
		Username:    domain.StringPtr("octocat"),
		DisplayName: domain.StringPtr("Mona Lisa"),
		Email:       nil,
		AvatarURL:   domain.StringPtr("https://avatars.githubusercontent.com/u/12345"),
	}, p)
}

func TestResolver_GitHubEmailEnrichment(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)
	token := &federation.AccessToken{Value: "gho_token", Scopes: []string{"read:user", "user:email"}}
	emails.EXPECT().ResolveEmail(gomock.Any(), *token).Return(domain.StringPtr("mona@example.com"))

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "GitHub", githubAttrs(), token)

	assert.Equal(t, "mona@example.com", *p.Email)
}

func TestResolver_GitHubLookupFailureLeavesEmailNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)
	emails.EXPECT().ResolveEmail(gomock.Any(), gomock.Any()).Return(nil)

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "github", githubAttrs(),
		&federation.AccessToken{Value: "gho_token", Scopes: []string{"user:email"}})

	assert.Nil(t, p.Email)
	assert.Equal(t, "12345", p.ExternalID)
}

func TestResolver_PresentEmailIsNeverOverridden(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)

	attrs := githubAttrs()
	attrs["email"] = "public@example.com"

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "github", attrs,
		&federation.AccessToken{Value: "gho_token", Scopes: []string{"user:email"}})

	assert.Equal(t, "public@example.com", *p.Email)
}

func TestResolver_NoTokenSkipsLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "github", githubAttrs(), nil)

	assert.Nil(t, p.Email)
}

func TestResolver_AzureNeverLooksUpEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	emails := mock_federation.NewMockEmailResolver(ctrl)

	r := federation.NewResolver(emails, log.NewNopLogger())
	p := r.Resolve(context.Background(), "azure", federation.Attributes{
		"oid":                "oid-1",
		"preferred_username": "user@contoso.com",
	}, &federation.AccessToken{Value: "t", Scopes: []string{"user:email"}})

	assert.Equal(t, "AZURE", p.Provider)
	assert.Equal(t, "oid-1", p.ExternalID)
	assert.Nil(t, p.Email)
}

func TestResolver_UnknownProviderFallsBack(t *testing.T) {
	r := federation.NewResolver(nil, log.NewNopLogger())
	p := r.Resolve(context.Background(), "gitlab", federation.Attributes{
		"sub":  "gl-42",
		"name": "Tanuki",
	}, nil)

	assert.Equal(t, "GITLAB", p.Provider)
	assert.Equal(t, "gl-42", p.ExternalID)
	assert.Equal(t, "Tanuki", *p.Username)
}
