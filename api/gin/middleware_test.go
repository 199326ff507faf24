package sssogin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilab-dev/shadow-login/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestPrincipalSigner_RoundTrip(t *testing.T) {
	signer := NewPrincipalSigner(testSecret, time.Hour, false)

	token, err := signer.Sign(&domain.User{ID: "user-1", Provider: domain.ProviderGitHub})
	require.NoError(t, err)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.ProviderGitHub, claims.Provider)
}

func TestPrincipalSigner_Rejects(t *testing.T) {
	signer := NewPrincipalSigner(testSecret, time.Hour, false)
	user := &domain.User{ID: "user-1", Provider: domain.ProviderGitHub}

	expired := NewPrincipalSigner(testSecret, time.Hour, false)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Sign(user)
	require.NoError(t, err)

	otherKey, err := NewPrincipalSigner([]byte("another-secret-another-secret-xx"), time.Hour, false).Sign(user)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, PrincipalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    principalIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":       expiredToken,
		"wrong key":     otherKey,
		"alg none":      noneToken,
		"garbage":       "not-a-jwt",
		"empty subject": mustSign(t, signer, &domain.User{Provider: domain.ProviderGitHub}),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := signer.Parse(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func mustSign(t *testing.T, s *PrincipalSigner, u *domain.User) string {
	t.Helper()
	token, err := s.Sign(u)
	require.NoError(t, err)
	return token
}

func TestRequirePrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer := NewPrincipalSigner(testSecret, time.Hour, true)

	r := gin.New()
	r.GET("/private", RequirePrincipal(signer), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(AuthUserIDKey))
	})

	t.Run("no cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("invalid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: principalCookieName, Value: "tampered"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: principalCookieName, Value: mustSign(t, signer, &domain.User{ID: "u-42"})})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-42", w.Body.String())
	})
}

func TestPrincipalSigner_SetCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer := NewPrincipalSigner(testSecret, time.Hour, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	require.NoError(t, signer.SetCookie(c, &domain.User{ID: "u-1"}))

	resp := w.Result()
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, principalCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
