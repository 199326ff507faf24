package services

import "errors"

// ErrAuthenticationFailed wraps every failure after the provider callback, so
// the HTTP layer can treat them uniformly as a failed login.
var ErrAuthenticationFailed = errors.New("authentication failed")
