package sssogin

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	devCallbackBase  = "/auth/callback"
	prodCallbackBase = "/login/oauth2/code"
)

// SecurityPolicy is the deployment-time transport policy: where providers
// call back to, which headers every response carries, and whether cookies
// are marked Secure.
type SecurityPolicy struct {
	Name          string
	CallbackBase  string
	Headers       map[string]string
	SecureCookies bool
}

func baseHeaders() map[string]string {
	return map[string]string{
		"Content-Security-Policy": "default-src 'self'; img-src 'self' https: data:; " +
			"style-src 'self' 'unsafe-inline'; script-src 'self'; frame-ancestors 'none'",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "geolocation=(), microphone=()",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
}

// PolicyFor returns the policy for the named profile. Anything other than
// "dev" gets the production policy.
func PolicyFor(profile string) SecurityPolicy {
	if strings.EqualFold(strings.TrimSpace(profile), "dev") {
		return SecurityPolicy{
			Name:         "dev",
			CallbackBase: devCallbackBase,
			Headers:      baseHeaders(),
		}
	}

	headers := baseHeaders()
	headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"

	return SecurityPolicy{
		Name:          "prod",
		CallbackBase:  prodCallbackBase,
		Headers:       headers,
		SecureCookies: true,
	}
}

// SecurityHeadersMiddleware adds the policy headers to every response.
func SecurityHeadersMiddleware(policy SecurityPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range policy.Headers {
			c.Header(name, value)
		}
		c.Next()
	}
}
