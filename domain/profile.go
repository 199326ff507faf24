package domain

import "strings"

// Canonical provider tags. Providers without a dedicated mapping carry
// their upper-cased registration id instead.
const (
	ProviderGitHub = "GITHUB"
	ProviderAzure  = "AZURE"
)

// ProviderProfile is the provider-agnostic identity produced by a login.
type ProviderProfile struct {
	Provider    string  `json:"provider"`
	ExternalID  string  `json:"externalId"`
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Email       *string `json:"email,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// Validate reports whether the profile carries a usable foreign identity.
func (p ProviderProfile) Validate() error {
	if strings.TrimSpace(p.Provider) == "" || strings.TrimSpace(p.ExternalID) == "" {
		return ErrInvalidProfile
	}

	return nil
}

// FirstNonBlank returns the first candidate that is neither nil nor
// whitespace-only, or nil when none qualifies.
func FirstNonBlank(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && strings.TrimSpace(*c) != "" {
			return c
		}
	}

	return nil
}

// StringPtr is a convenience for building optional attributes.
func StringPtr(s string) *string {
	return &s
}
