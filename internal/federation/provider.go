package federation

import (
	"slices"
	"strings"
)

// ScopeGitHubEmail grants read access to the GitHub /user/emails endpoint.
const ScopeGitHubEmail = "user:email"

// Variant is the closed set of provider mappings. Every registration id
// resolves to exactly one variant; unknown ids use VariantFallback.
type Variant int

const (
	VariantFallback Variant = iota
	VariantGitHub
	VariantAzure
)

var variantsByRegistration = map[string]Variant{
	"github": VariantGitHub,
	"azure":  VariantAzure,
}

// VariantFor selects the mapping variant for a registration id, ignoring case.
func VariantFor(registrationID string) Variant {
	if v, ok := variantsByRegistration[strings.ToLower(strings.TrimSpace(registrationID))]; ok {
		return v
	}

	return VariantFallback
}

func (v Variant) String() string {
	switch v {
	case VariantGitHub:
		return "github"
	case VariantAzure:
		return "azure"
	default:
		return "fallback"
	}
}

// AccessToken is the provider access token of a completed login together with
// the scopes the provider actually granted.
type AccessToken struct {
	Value  string
	Scopes []string
}

// HasScope reports whether scope was granted.
func (t *AccessToken) HasScope(scope string) bool {
	if t == nil {
		return false
	}

	return slices.Contains(t.Scopes, scope)
}

// ParseScopes splits a granted-scope string. GitHub separates scopes with
// commas, OIDC providers with spaces.
func ParseScopes(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
