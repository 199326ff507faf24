package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateUser  = errors.New("user with this provider identity already exists")
	ErrInvalidProfile = errors.New("provider profile has no provider or external id")
)
