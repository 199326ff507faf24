package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/memory"
	"github.com/pilab-dev/shadow-login/services"
)

func withMemoryStore(t *testing.T) *memory.RepositoryProvider {
	t.Helper()

	provider := memory.NewRepositoryProvider()
	original := openStore
	openStore = func(context.Context) (services.RepositoryProvider, error) { return provider, nil }
	t.Cleanup(func() { openStore = original })

	return provider
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	outputFormat, verbose = "yaml", false

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestUserGet(t *testing.T) {
	provider := withMemoryStore(t)

	_, err := provider.UserRepository().Save(context.Background(), domain.NewUserFromProfile(domain.ProviderProfile{
		Provider:   domain.ProviderGitHub,
		ExternalID: "12345",
		Username:   domain.StringPtr("octocat"),
	}, time.Now()))
	require.NoError(t, err)

	out, err := run(t, "", "user", "get", "--provider", "GITHUB", "--external-id", "12345")
	require.NoError(t, err)
	assert.Contains(t, out, "username: octocat")
	assert.Contains(t, out, "externalId: \"12345\"")

	out, err = run(t, "", "user", "get", "--provider", "GITHUB", "--external-id", "12345", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"username": "octocat"`)
}

func TestUserGet_NotFound(t *testing.T) {
	withMemoryStore(t)

	_, err := run(t, "", "user", "get", "--provider", "GITHUB", "--external-id", "404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user for GITHUB:404")
}

func TestUserGet_MissingFlags(t *testing.T) {
	withMemoryStore(t)

	_, err := run(t, "", "user", "get", "--provider", "GITHUB")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	withMemoryStore(t)

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "user store ready\n", out)
}

func TestResolve(t *testing.T) {
	attrs := `{"id": 12345, "login": "octocat", "name": "", "email": null, "avatar_url": "https://avatars.example.com/u/12345"}`

	out, err := run(t, attrs, "resolve", "--registration", "github", "-o", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"provider": "GITHUB"`)
	assert.Contains(t, out, `"externalId": "12345"`)
	assert.Contains(t, out, `"displayName": "octocat"`)
	assert.NotContains(t, out, `"email"`)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "{}", "resolve", "--registration", "github", "-o", "xml")
	assert.Error(t, err)
}
