package federation

import (
	"strings"

	"github.com/pilab-dev/shadow-login/domain"
)

// MapFromGithub converts GitHub /user attributes into a profile.
// The email is usually absent because GitHub withholds it by default.
func MapFromGithub(attrs Attributes) domain.ProviderProfile {
	externalID := attrs.String("id")
	username := domain.FirstNonBlank(attrs.String("login"), externalID)

	return domain.ProviderProfile{
		Provider:    domain.ProviderGitHub,
		ExternalID:  deref(externalID),
		Username:    username,
		DisplayName: attrs.FirstNonBlank("name", "login"),
		Email:       attrs.String("email"),
		AvatarURL:   attrs.String("avatar_url"),
	}
}

// MapFromAzure converts Azure AD / Entra ID claims into a profile.
// Azure does not expose an avatar URL in its claims.
func MapFromAzure(attrs Attributes) domain.ProviderProfile {
	externalID := attrs.FirstNonBlank("oid", "sub")
	username := domain.FirstNonBlank(
		attrs.String("preferred_username"),
		attrs.String("userPrincipalName"),
		attrs.String("mailNickname"),
		attrs.String("email"),
		externalID,
	)
	displayName := domain.FirstNonBlank(
		attrs.String("name"),
		attrs.String("mailNickname"),
		attrs.String("userPrincipalName"),
		username,
	)

	return domain.ProviderProfile{
		Provider:    domain.ProviderAzure,
		ExternalID:  deref(externalID),
		Username:    username,
		DisplayName: displayName,
		Email:       attrs.String("email"),
	}
}

// MapFallback is the best-effort mapping for providers without a dedicated
// variant. It assumes standard OIDC claim names.
func MapFallback(registrationID string, attrs Attributes) domain.ProviderProfile {
	return domain.ProviderProfile{
		Provider:    strings.ToUpper(registrationID),
		ExternalID:  deref(attrs.String("sub")),
		Username:    attrs.FirstNonBlank("preferred_username", "name"),
		DisplayName: attrs.String("name"),
		Email:       attrs.String("email"),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
