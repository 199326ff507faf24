package domain

import "time"

// User is the local shadow record of an identity owned by an external provider.
// The pair (Provider, ExternalID) is unique across all users.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"id" db:"id"`
	Provider    string    `bson:"provider" json:"provider" db:"provider"`
	ExternalID  string    `bson:"external_id" json:"externalId" db:"external_id"`
	Username    *string   `bson:"username,omitempty" json:"username,omitempty" db:"username"`
	DisplayName *string   `bson:"display_name,omitempty" json:"displayName,omitempty" db:"display_name"`
	Email       *string   `bson:"email,omitempty" json:"email,omitempty" db:"email"`
	AvatarURL   *string   `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty" db:"avatar_url"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt" db:"updated_at"`
	LastLoginAt time.Time `bson:"last_login_at" json:"lastLoginAt" db:"last_login_at"`
}

// NewUserFromProfile builds an unsaved user carrying every profile attribute.
// ID, CreatedAt and UpdatedAt are left for the repository to assign.
func NewUserFromProfile(p ProviderProfile, loginAt time.Time) *User {
	return &User{
		Provider:    p.Provider,
		ExternalID:  p.ExternalID,
		Username:    cloneString(p.Username),
		DisplayName: cloneString(p.DisplayName),
		Email:       cloneString(p.Email),
		AvatarURL:   cloneString(p.AvatarURL),
		LastLoginAt: loginAt,
	}
}

// ApplyProfile overwrites every tracked attribute that differs from the profile
// and reports whether anything changed. A nil value equals only another nil.
func (u *User) ApplyProfile(p ProviderProfile) bool {
	changed := false
	for _, f := range []struct {
		dst **string
		src *string
	}{
		{&u.Username, p.Username},
		{&u.DisplayName, p.DisplayName},
		{&u.Email, p.Email},
		{&u.AvatarURL, p.AvatarURL},
	} {
		if !equalStrings(*f.dst, f.src) {
			*f.dst = cloneString(f.src)
			changed = true
		}
	}

	return changed
}

// DisplayLabel is the name shown to the signed-in user.
func (u *User) DisplayLabel() string {
	if v := FirstNonBlank(u.DisplayName, u.Username); v != nil {
		return *v
	}

	return ""
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s

	return &v
}
