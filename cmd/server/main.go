package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	ginapi "github.com/pilab-dev/shadow-login/api/gin"
	"github.com/pilab-dev/shadow-login/cache"
	rediscache "github.com/pilab-dev/shadow-login/cache/redis"
	"github.com/pilab-dev/shadow-login/config"
	"github.com/pilab-dev/shadow-login/internal/federation"
	"github.com/pilab-dev/shadow-login/internal/metrics"
	"github.com/pilab-dev/shadow-login/internal/server"
	"github.com/pilab-dev/shadow-login/internal/storage"
	"github.com/pilab-dev/shadow-login/internal/telemetry"
	"github.com/pilab-dev/shadow-login/log"
	"github.com/pilab-dev/shadow-login/services"
	"github.com/pilab-dev/shadow-login/tracing"
)

var (
	appLogger      log.Logger
	httpServer     *http.Server
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger = log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel), cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "Starting shadow-login server...", log.Fields{
		"http_port":      cfg.HTTPPort,
		"profile":        cfg.Profile,
		"storage_driver": cfg.StorageDriver,
		"email_cache":    cfg.EmailCache,
		"providers":      len(cfg.Providers),
		"otel_service":   cfg.OtelServiceName,
	})

	tracerProvider, err = tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(registry)

	meterProvider, err := telemetry.InitMeterProvider(registry)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize MeterProvider", err)
	}

	repos, err := storage.Open(ctx, cfg)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open user store", err, log.Fields{"driver": cfg.StorageDriver})
	}
	users := repos.UserRepository()

	emailStore, err := openEmailStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open email cache", err, log.Fields{"email_cache": cfg.EmailCache})
	}

	resolverOpts := []federation.EmailResolverOption{federation.WithLookupTimeout(cfg.EmailLookupTimeout)}
	if emailStore != nil {
		resolverOpts = append(resolverOpts, federation.WithEmailStore(emailStore, cfg.EmailCacheTTL))
	}
	resolver := federation.NewResolver(federation.NewGitHubEmailResolver(appLogger, resolverOpts...), appLogger)

	provisioning := services.NewProvisioningService(users, appLogger)
	loginService := services.NewLoginService(resolver, provisioning, appLogger)

	oauthClient, err := federation.NewClient(ctx, cfg.Providers, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to configure login providers", err)
	}

	policy := ginapi.PolicyFor(cfg.Profile)
	signer := ginapi.NewPrincipalSigner(principalSecret(ctx, cfg), cfg.PrincipalTTL, policy.SecureCookies)

	router := server.NewRouter(cfg, appLogger, policy,
		ginapi.NewFederationAPI(oauthClient, loginService, signer, policy, cfg.BaseURL, appLogger),
		ginapi.NewAccountAPI(users, oauthClient, signer, registry, appLogger),
	)

	httpServer = server.NewHTTPServer(cfg, router)
	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort),
			log.Fields{"callback_base": policy.CallbackBase})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}

	if emailStore != nil {
		if err := emailStore.Close(); err != nil {
			appLogger.Error(shutdownCtx, "Email cache close error", err)
		}
	}

	if err := repos.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "User store close error", err)
	}

	telemetry.Shutdown(shutdownCtx, meterProvider)

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}

func openEmailStore(ctx context.Context, cfg *config.ServerConfig) (cache.EmailStore, error) {
	switch cfg.EmailCache {
	case config.EmailCacheMemory:
		return cache.NewMemoryEmailStore(cfg.EmailCacheTTL), nil
	case config.EmailCacheRedis:
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rediscache.NewEmailStore(client, "shadow-login"), nil
	default:
		return nil, nil
	}
}

// principalSecret returns the configured secret. In dev an empty secret is
// replaced by a per-process random one, so sessions do not survive restarts.
func principalSecret(ctx context.Context, cfg *config.ServerConfig) []byte {
	if cfg.PrincipalSecret != "" {
		return []byte(cfg.PrincipalSecret)
	}

	appLogger.Warn(ctx, "PRINCIPAL_SECRET is empty, using a random per-process secret")

	return []byte(uuid.NewString() + uuid.NewString())
}
