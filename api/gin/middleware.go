package sssogin

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/pilab-dev/shadow-login/domain"
)

const (
	// AuthUserIDKey is the gin context key holding the signed-in user's id.
	AuthUserIDKey = "auth-user-id"

	principalCookieName = "shadow_login_principal"
	principalIssuer     = "shadow-login"
)

var ErrInvalidToken = errors.New("invalid principal token")

// PrincipalClaims is the payload of the session cookie.
type PrincipalClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// PrincipalSigner issues and verifies the HS256 session cookie.
type PrincipalSigner struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewPrincipalSigner creates a signer. secure controls the cookie Secure flag.
func NewPrincipalSigner(secret []byte, ttl time.Duration, secure bool) *PrincipalSigner {
	return &PrincipalSigner{
		secret: secret,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Sign returns a token naming the user.
func (s *PrincipalSigner) Sign(user *domain.User) (string, error) {
	now := s.now()
	claims := PrincipalClaims{
		Provider: user.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    principalIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign principal: %w", err)
	}

	return signed, nil
}

// Parse verifies a token and returns its claims.
func (s *PrincipalSigner) Parse(token string) (*PrincipalClaims, error) {
	claims := &PrincipalClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(principalIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SetCookie writes the principal cookie for the user.
func (s *PrincipalSigner) SetCookie(c *gin.Context, user *domain.User) error {
	token, err := s.Sign(user)
	if err != nil {
		return err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     principalCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// ClearCookie expires the principal cookie.
func (s *PrincipalSigner) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     principalCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequirePrincipal redirects to /login unless the request carries a valid
// principal cookie. The user id is stored under AuthUserIDKey.
func RequirePrincipal(signer *PrincipalSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(principalCookieName)
		if err != nil || raw == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()

			return
		}

		claims, err := signer.Parse(raw)
		if err != nil {
			log.Debug().Err(err).Msg("rejecting principal cookie")
			signer.ClearCookie(c)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()

			return
		}

		c.Set(AuthUserIDKey, claims.Subject)
		c.Next()
	}
}
