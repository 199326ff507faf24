package sssogin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/internal/federation"
	"github.com/pilab-dev/shadow-login/internal/metrics"
	"github.com/pilab-dev/shadow-login/log"
	"github.com/pilab-dev/shadow-login/services"
)

const (
	federationStateCookieName = "shadow_login_state"
	stateCookieMaxAge         = 300

	unknownRegistrationLabel = "unknown"
)

//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_federation_handlers.go -package=mock_sssogin

// OAuthClient runs the authorization-code flow against a provider.
type OAuthClient interface {
	RegistrationIDs() []string
	AuthCodeURL(registrationID, state, redirectURL string) (string, error)
	Exchange(ctx context.Context, registrationID, code, redirectURL string) (*federation.Login, error)
}

// LoginCompleter turns a completed provider login into a local user.
type LoginCompleter interface {
	CompleteLogin(ctx context.Context, req services.LoginRequest) (*domain.User, error)
}

// FederationAPI provides the browser-facing login flow.
type FederationAPI struct {
	client  OAuthClient
	logins  LoginCompleter
	signer  *PrincipalSigner
	policy  SecurityPolicy
	baseURL string
	logger  log.Logger
}

// NewFederationAPI creates a new FederationAPI. baseURL is the externally
// visible origin used to build callback URLs.
func NewFederationAPI(
	client OAuthClient,
	logins LoginCompleter,
	signer *PrincipalSigner,
	policy SecurityPolicy,
	baseURL string,
	logger log.Logger,
) *FederationAPI {
	return &FederationAPI{
		client:  client,
		logins:  logins,
		signer:  signer,
		policy:  policy,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterFederationRoutes registers the authorization and callback routes.
func (fapi *FederationAPI) RegisterFederationRoutes(e *gin.Engine) {
	e.GET("/oauth2/authorization/:provider", fapi.InitiateLoginHandler)
	e.GET(fapi.policy.CallbackBase+"/:provider", fapi.CallbackHandler)
}

// CallbackURL is the redirect URL registered with the provider.
func (fapi *FederationAPI) CallbackURL(registrationID string) string {
	return fapi.baseURL + fapi.policy.CallbackBase + "/" + registrationID
}

// InitiateLoginHandler stores a fresh state value in a cookie and redirects
// to the provider's authorization endpoint.
func (fapi *FederationAPI) InitiateLoginHandler(c *gin.Context) {
	providerName := c.Param("provider")
	state := uuid.NewString()

	authURL, err := fapi.client.AuthCodeURL(providerName, state, fapi.CallbackURL(providerName))
	if err != nil {
		if errors.Is(err, federation.ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider_not_found", "message": "Provider is not configured."})
			return
		}

		fapi.logger.Error(c.Request.Context(), "failed to build authorization url", err, log.Fields{"provider": providerName})
		c.Redirect(http.StatusFound, "/login?error")

		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     federationStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		Secure:   fapi.policy.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	c.Redirect(http.StatusFound, authURL)
}

// CallbackHandler completes the login. Every failure ends on /login?error.
func (fapi *FederationAPI) CallbackHandler(c *gin.Context) {
	ctx := c.Request.Context()
	providerName := c.Param("provider")
	fields := log.Fields{"provider": providerName}

	stateCookie, cookieErr := c.Cookie(federationStateCookieName)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     federationStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   fapi.policy.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if oauthError := c.Query("error"); oauthError != "" {
		fields["error"] = oauthError
		fields["error_description"] = c.Query("error_description")
		fapi.fail(c, "provider returned an error", nil, fields)

		return
	}

	queryState := c.Query("state")
	if cookieErr != nil || queryState == "" || queryState != stateCookie {
		fapi.fail(c, "state mismatch in callback", federation.ErrInvalidAuthState, fields)
		return
	}

	code := c.Query("code")
	if code == "" {
		fapi.fail(c, "authorization code missing in callback", federation.ErrExchangeCodeFailed, fields)
		return
	}

	login, err := fapi.client.Exchange(ctx, providerName, code, fapi.CallbackURL(providerName))
	if err != nil {
		fapi.fail(c, "code exchange failed", err, fields)
		return
	}

	user, err := fapi.logins.CompleteLogin(ctx, services.LoginRequest{
		RegistrationID: login.RegistrationID,
		Attributes:     login.Attributes,
		Token:          &login.Token,
	})
	if err != nil {
		// CompleteLogin already counted and audited the failure.
		fapi.logger.Warn(ctx, "login could not be completed", fields)
		c.Redirect(http.StatusFound, "/login?error")

		return
	}

	if err := fapi.signer.SetCookie(c, user); err != nil {
		fapi.logger.Error(ctx, "failed to issue principal", err, fields)
		c.Redirect(http.StatusFound, "/login?error")

		return
	}

	c.Redirect(http.StatusFound, "/me")
}

func (fapi *FederationAPI) fail(c *gin.Context, msg string, err error, fields log.Fields) {
	metrics.LoginFailureTotal.WithLabelValues(fapi.registrationLabel(c.Param("provider"))).Inc()

	if err != nil {
		fapi.logger.Error(c.Request.Context(), msg, err, fields)
	} else {
		fapi.logger.Warn(c.Request.Context(), msg, fields)
	}

	c.Redirect(http.StatusFound, "/login?error")
}

// registrationLabel maps a path segment to a configured registration id.
// Unconfigured providers share the unknown label.
func (fapi *FederationAPI) registrationLabel(provider string) string {
	for _, id := range fapi.client.RegistrationIDs() {
		if strings.EqualFold(id, provider) {
			return id
		}
	}

	return unknownRegistrationLabel
}
