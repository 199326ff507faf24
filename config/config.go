package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pilab-dev/shadow-login/internal/federation"
)

// Storage drivers.
const (
	StorageMongoDB  = "mongodb"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Email cache backends.
const (
	EmailCacheNone   = "none"
	EmailCacheMemory = "memory"
	EmailCacheRedis  = "redis"
)

// Profiles.
const (
	ProfileDev  = "dev"
	ProfileProd = "prod"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig holds all configuration for the server.
type ServerConfig struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"`
	Profile         string `mapstructure:"PROFILE"`
	BaseURL         string `mapstructure:"BASE_URL"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDBName   string `mapstructure:"MONGO_DB_NAME"`
	PostgresDSN   string `mapstructure:"POSTGRES_DSN"`

	EmailCache         string        `mapstructure:"EMAIL_CACHE"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	EmailCacheTTL      time.Duration `mapstructure:"EMAIL_CACHE_TTL"`
	EmailLookupTimeout time.Duration `mapstructure:"EMAIL_LOOKUP_TIMEOUT"`

	PrincipalSecret string        `mapstructure:"PRINCIPAL_SECRET"`
	PrincipalTTL    time.Duration `mapstructure:"PRINCIPAL_TTL"`

	// Providers usually comes from config.yaml. When it is empty a github
	// registration is built from GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET.
	Providers          []federation.Registration `mapstructure:"PROVIDERS"`
	GithubClientID     string                    `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string                    `mapstructure:"GITHUB_CLIENT_SECRET"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	return load(viper.New(), true)
}

func load(v *viper.Viper, searchPaths bool) (*ServerConfig, error) {
	if searchPaths {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/shadow-login/")
		v.AddConfigPath("$HOME/.shadow-login")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults and env only.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("PROFILE", ProfileProd)
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("OTEL_SERVICE_NAME", "shadow-login")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "shadow_login")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("EMAIL_CACHE", EmailCacheNone)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EMAIL_CACHE_TTL", "10m")
	v.SetDefault("EMAIL_LOOKUP_TIMEOUT", federation.DefaultEmailLookupTimeout.String())
	v.SetDefault("PRINCIPAL_SECRET", "")
	v.SetDefault("PRINCIPAL_TTL", "8h")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
}

func (c *ServerConfig) normalize() {
	c.Profile = strings.ToLower(strings.TrimSpace(c.Profile))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.EmailCache = strings.ToLower(strings.TrimSpace(c.EmailCache))
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if len(c.Providers) == 0 && c.GithubClientID != "" {
		c.Providers = []federation.Registration{DefaultGithubRegistration(c.GithubClientID, c.GithubClientSecret)}
	}
}

// DefaultGithubRegistration is the github registration used when no
// PROVIDERS list is configured.
func DefaultGithubRegistration(clientID, clientSecret string) federation.Registration {
	return federation.Registration{
		ID:           "github",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"read:user", federation.ScopeGitHubEmail},
	}
}

// Validate checks the enumerated settings and the values they depend on.
func (c *ServerConfig) Validate() error {
	switch c.Profile {
	case ProfileDev, ProfileProd:
	default:
		return fmt.Errorf("%w: unknown PROFILE %q", ErrInvalidConfig, c.Profile)
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageMongoDB:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return fmt.Errorf("%w: mongodb storage needs MONGO_URI and MONGO_DB_NAME", ErrInvalidConfig)
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres storage needs POSTGRES_DSN", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.StorageDriver)
	}

	switch c.EmailCache {
	case EmailCacheNone, EmailCacheMemory:
	case EmailCacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis email cache needs REDIS_ADDR", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown EMAIL_CACHE %q", ErrInvalidConfig, c.EmailCache)
	}

	if c.EmailLookupTimeout <= 0 {
		return fmt.Errorf("%w: EMAIL_LOOKUP_TIMEOUT must be positive", ErrInvalidConfig)
	}

	if c.PrincipalTTL <= 0 {
		return fmt.Errorf("%w: PRINCIPAL_TTL must be positive", ErrInvalidConfig)
	}

	if c.Profile == ProfileProd && len(c.PrincipalSecret) < 32 {
		return fmt.Errorf("%w: PRINCIPAL_SECRET must be at least 32 bytes in prod", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		id := strings.ToLower(p.ID)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: provider %q configured twice", ErrInvalidConfig, p.ID)
		}
		seen[id] = struct{}{}
	}

	return nil
}
