package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ginapi "github.com/pilab-dev/shadow-login/api/gin"
	"github.com/pilab-dev/shadow-login/config"
	"github.com/pilab-dev/shadow-login/log"
)

// NewRouter builds the gin engine with the shared middleware chain and the
// login routes registered.
func NewRouter(
	cfg *config.ServerConfig,
	appLogger log.Logger,
	policy ginapi.SecurityPolicy,
	federationAPI *ginapi.FederationAPI,
	accountAPI *ginapi.AccountAPI,
) *gin.Engine {
	if cfg.Profile == config.ProfileDev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(appLogger))
	router.Use(otelgin.Middleware(cfg.OtelServiceName))
	router.Use(ginapi.SecurityHeadersMiddleware(policy))

	federationAPI.RegisterFederationRoutes(router)
	accountAPI.RegisterRoutes(router)

	return router
}

// RequestLogger logs one line per request through the application logger.
func RequestLogger(appLogger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			appLogger.Error(c.Request.Context(), c.Errors.String(), c.Errors.Last().Err, fields)
		} else {
			appLogger.Info(c.Request.Context(), "HTTP Request", fields)
		}
	}
}

// NewHTTPServer wraps the router in an http.Server listening on HTTP_PORT.
func NewHTTPServer(cfg *config.ServerConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
