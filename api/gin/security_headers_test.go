package sssogin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	sssogin "github.com/pilab-dev/shadow-login/api/gin"
)

func TestPolicyFor(t *testing.T) {
	dev := sssogin.PolicyFor("dev")
	assert.Equal(t, "dev", dev.Name)
	assert.Equal(t, "/auth/callback", dev.CallbackBase)
	assert.False(t, dev.SecureCookies)
	assert.NotContains(t, dev.Headers, "Strict-Transport-Security")

	prod := sssogin.PolicyFor("prod")
	assert.Equal(t, "prod", prod.Name)
	assert.Equal(t, "/login/oauth2/code", prod.CallbackBase)
	assert.True(t, prod.SecureCookies)
	assert.Contains(t, prod.Headers, "Strict-Transport-Security")

	assert.Equal(t, "prod", sssogin.PolicyFor("").Name, "unknown profiles fall back to prod")

	for _, p := range []sssogin.SecurityPolicy{dev, prod} {
		assert.Equal(t,
			"default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; script-src 'self'; frame-ancestors 'none'",
			p.Headers["Content-Security-Policy"])
		assert.Equal(t, "strict-origin-when-cross-origin", p.Headers["Referrer-Policy"])
		assert.Equal(t, "geolocation=(), microphone=()", p.Headers["Permissions-Policy"])
		assert.Equal(t, "nosniff", p.Headers["X-Content-Type-Options"])
		assert.Equal(t, "DENY", p.Headers["X-Frame-Options"])
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sssogin.SecurityHeadersMiddleware(sssogin.PolicyFor("prod")))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}
