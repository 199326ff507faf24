package sssogin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pilab-dev/shadow-login/domain"
	"github.com/pilab-dev/shadow-login/log"
)

const healthCheckTimeout = 2 * time.Second

// UserReader is the part of the user store the account pages need.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Ping(ctx context.Context) error
}

// AccountAPI serves the login landing page, the signed-in user's page,
// logout, the error page and operational endpoints.
type AccountAPI struct {
	users    UserReader
	client   OAuthClient
	signer   *PrincipalSigner
	gatherer prometheus.Gatherer
	logger   log.Logger
}

// NewAccountAPI creates a new AccountAPI. A nil gatherer disables /metrics.
func NewAccountAPI(
	users UserReader,
	client OAuthClient,
	signer *PrincipalSigner,
	gatherer prometheus.Gatherer,
	logger log.Logger,
) *AccountAPI {
	return &AccountAPI{
		users:    users,
		client:   client,
		signer:   signer,
		gatherer: gatherer,
		logger:   logger,
	}
}

// RegisterRoutes registers the account and operational routes.
func (a *AccountAPI) RegisterRoutes(e *gin.Engine) {
	e.GET("/login", a.LoginPageHandler)
	e.GET("/me", RequirePrincipal(a.signer), a.MeHandler)
	e.POST("/logout", a.LogoutHandler)
	e.GET("/error", a.ErrorHandler)
	e.GET("/actuator/health", a.HealthHandler)

	if a.gatherer != nil {
		e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	}
}

type providerLink struct {
	ID       string `json:"id"`
	LoginURL string `json:"loginUrl"`
}

// LoginPageHandler lists the configured providers.
func (a *AccountAPI) LoginPageHandler(c *gin.Context) {
	ids := a.client.RegistrationIDs()
	providers := make([]providerLink, 0, len(ids))
	for _, id := range ids {
		providers = append(providers, providerLink{ID: id, LoginURL: "/oauth2/authorization/" + id})
	}

	body := gin.H{"providers": providers}
	if _, ok := c.GetQuery("error"); ok {
		body["error"] = "Authentication error"
	}
	if _, ok := c.GetQuery("logout"); ok {
		body["message"] = "You have been logged out."
	}

	c.JSON(http.StatusOK, body)
}

// MeHandler shows the signed-in user.
func (a *AccountAPI) MeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(AuthUserIDKey)

	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.signer.ClearCookie(c)
			c.Redirect(http.StatusFound, "/login")

			return
		}

		a.logger.Error(ctx, "failed to load signed-in user", err, log.Fields{"user_id": userID})
		c.Redirect(http.StatusFound, "/error?status=500")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"displayName": user.DisplayLabel(),
		"avatarUrl":   user.AvatarURL,
		"user":        user,
	})
}

// LogoutHandler drops the principal cookie.
func (a *AccountAPI) LogoutHandler(c *gin.Context) {
	a.signer.ClearCookie(c)
	c.Redirect(http.StatusFound, "/login?logout")
}

// ErrorHandler renders a friendly error. The status comes from ?status when
// it is an error status, otherwise 500.
func (a *AccountAPI) ErrorHandler(c *gin.Context) {
	status := http.StatusInternalServerError
	if v, err := strconv.Atoi(c.Query("status")); err == nil && v >= 400 && v <= 599 {
		status = v
	}

	c.JSON(status, gin.H{
		"status":  status,
		"title":   "Oops",
		"message": "Something went wrong while signing you in.",
		"link":    gin.H{"href": "/login", "text": "Back to login"},
	})
}

// HealthHandler reports liveness together with the user store's reachability.
func (a *AccountAPI) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := a.users.Ping(ctx); err != nil {
		a.logger.Warn(ctx, "health check failed", log.Fields{"error": err.Error()})
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "DOWN",
			"components": gin.H{"db": gin.H{"status": "DOWN"}},
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "UP",
		"components": gin.H{"db": gin.H{"status": "UP"}},
	})
}
