package federation

import "errors"

var (
	ErrProviderNotFound      = errors.New("provider not found or not enabled")
	ErrInvalidAuthState      = errors.New("invalid auth state parameter")
	ErrExchangeCodeFailed    = errors.New("failed to exchange authorization code for token")
	ErrFetchUserInfoFailed   = errors.New("failed to fetch user info from provider")
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrEmailLookupFailed     = errors.New("failed to look up provider emails")
)
