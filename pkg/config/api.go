package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// API defaults.
const (
	DefaultListen              = ":9090"
	DefaultIndexingInterval    = 60 * time.Second
	DefaultIndexingConcurrency = 4
	DefaultPresignedURLExpiry  = time.Hour
	DefaultSQLitePath          = "reportoor.db"
	DefaultBasicAuthRealm      = "reportoor"
	DefaultPublicRatePerMinute = 120
	DefaultAuthedRatePerMinute = 600
	DatabaseDriverSQLite       = "sqlite"
	DatabaseDriverPostgres     = "postgres"
)

// APIConfig contains all API server configuration.
type APIConfig struct {
	Server   APIServerConfig   `yaml:"server" mapstructure:"server"`
	Auth     APIAuthConfig     `yaml:"auth" mapstructure:"auth"`
	Storage  APIStorageConfig  `yaml:"storage,omitempty" mapstructure:"storage"`
	Indexing APIIndexingConfig `yaml:"indexing,omitempty" mapstructure:"indexing"`
}

// APIIndexingConfig configures the background indexing service that
// scans storage backends and maintains a queryable index in a database.
type APIIndexingConfig struct {
	Enabled     bool              `yaml:"enabled" mapstructure:"enabled"`
	Interval    time.Duration     `yaml:"interval,omitempty" mapstructure:"interval"`
	Concurrency int               `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
	Database    APIDatabaseConfig `yaml:"database" mapstructure:"database"`
}

// APIStorageConfig contains the storage backend reports are served from.
// Only one backend (S3 or local) may be enabled at a time.
type APIStorageConfig struct {
	S3    APIS3Config           `yaml:"s3,omitempty" mapstructure:"s3"`
	Local APILocalStorageConfig `yaml:"local,omitempty" mapstructure:"local"`
}

// APILocalStorageConfig serves reports from the local filesystem. Each
// discovery path maps a URL prefix name to a directory holding a reports/
// sub-directory. Names are matched case-insensitively.
type APILocalStorageConfig struct {
	Enabled        bool              `yaml:"enabled" mapstructure:"enabled"`
	DiscoveryPaths map[string]string `yaml:"discovery_paths,omitempty" mapstructure:"discovery_paths"`
}

// APIS3Config contains S3 settings for reading reports and presigning
// attachment URLs.
type APIS3Config struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	S3Config `yaml:",inline" mapstructure:",squash"`

	PresignedURLs  APIS3PresignedURLConfig `yaml:"presigned_urls,omitempty" mapstructure:"presigned_urls"`
	DiscoveryPaths []string                `yaml:"discovery_paths,omitempty" mapstructure:"discovery_paths"`
}

// APIS3PresignedURLConfig contains presigned URL generation settings.
type APIS3PresignedURLConfig struct {
	Expiry time.Duration `yaml:"expiry,omitempty" mapstructure:"expiry"`
}

// APIServerConfig contains HTTP server settings.
type APIServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Public        RateLimitTier `yaml:"public,omitempty" mapstructure:"public"`
	Authenticated RateLimitTier `yaml:"authenticated,omitempty" mapstructure:"authenticated"`
}

// RateLimitTier defines request limits for a specific tier.
type RateLimitTier struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// APIAuthConfig contains authentication settings. Without basic auth
// every route is public.
type APIAuthConfig struct {
	// AnonymousRead keeps the health and config endpoints public when
	// basic auth is enabled.
	AnonymousRead bool            `yaml:"anonymous_read" mapstructure:"anonymous_read"`
	Basic         BasicAuthConfig `yaml:"basic,omitempty" mapstructure:"basic"`
}

// BasicAuthConfig configures username/password authentication.
type BasicAuthConfig struct {
	Enabled bool            `yaml:"enabled" mapstructure:"enabled"`
	Realm   string          `yaml:"realm,omitempty" mapstructure:"realm"`
	Users   []BasicAuthUser `yaml:"users,omitempty" mapstructure:"users"`
}

// BasicAuthUser defines a basic auth user. PasswordHash is a bcrypt hash.
type BasicAuthUser struct {
	Username     string `yaml:"username" mapstructure:"username"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash"`
}

// APIDatabaseConfig contains database connection settings.
type APIDatabaseConfig struct {
	Driver   string               `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

func setAPIDefaults(v *viper.Viper) {
	v.SetDefault("api.server.listen", DefaultListen)
	v.SetDefault("api.server.cors_origins", []string{})
	v.SetDefault("api.server.rate_limit.enabled", false)
	v.SetDefault("api.server.rate_limit.public.requests_per_minute", DefaultPublicRatePerMinute)
	v.SetDefault("api.server.rate_limit.authenticated.requests_per_minute", DefaultAuthedRatePerMinute)

	v.SetDefault("api.auth.anonymous_read", false)
	v.SetDefault("api.auth.basic.enabled", false)
	v.SetDefault("api.auth.basic.realm", DefaultBasicAuthRealm)

	v.SetDefault("api.storage.local.enabled", false)
	v.SetDefault("api.storage.s3.enabled", false)
	setS3Defaults(v, "api.storage.s3")
	v.SetDefault("api.storage.s3.presigned_urls.expiry", DefaultPresignedURLExpiry.String())

	v.SetDefault("api.indexing.enabled", false)
	v.SetDefault("api.indexing.interval", DefaultIndexingInterval.String())
	v.SetDefault("api.indexing.concurrency", DefaultIndexingConcurrency)
	v.SetDefault("api.indexing.database.driver", DatabaseDriverSQLite)
	v.SetDefault("api.indexing.database.sqlite.path", DefaultSQLitePath)
	v.SetDefault("api.indexing.database.postgres.host", "")
	v.SetDefault("api.indexing.database.postgres.port", 5432)
	v.SetDefault("api.indexing.database.postgres.user", "")
	v.SetDefault("api.indexing.database.postgres.password", "")
	v.SetDefault("api.indexing.database.postgres.database", "")
	v.SetDefault("api.indexing.database.postgres.ssl_mode", "")
}

func (c *APIConfig) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Auth.Basic.Realm == "" {
		c.Auth.Basic.Realm = DefaultBasicAuthRealm
	}

	if c.Storage.S3.PresignedURLs.Expiry == 0 {
		c.Storage.S3.PresignedURLs.Expiry = DefaultPresignedURLExpiry
	}

	if c.Indexing.Interval == 0 {
		c.Indexing.Interval = DefaultIndexingInterval
	}

	if c.Indexing.Concurrency == 0 {
		c.Indexing.Concurrency = DefaultIndexingConcurrency
	}

	if c.Indexing.Database.Driver == "" {
		c.Indexing.Database.Driver = DatabaseDriverSQLite
	}

	if c.Indexing.Database.SQLite.Path == "" {
		c.Indexing.Database.SQLite.Path = DefaultSQLitePath
	}
}

// ValidateAPI checks the settings needed by the api command.
func (c *Config) ValidateAPI() error {
	api := &c.API

	if api.Server.Listen == "" {
		return fmt.Errorf("api.server.listen is required")
	}

	if rl := api.Server.RateLimit; rl.Enabled {
		if rl.Public.RequestsPerMinute <= 0 {
			return fmt.Errorf("api.server.rate_limit.public.requests_per_minute must be positive")
		}

		if rl.Authenticated.RequestsPerMinute <= 0 {
			return fmt.Errorf("api.server.rate_limit.authenticated.requests_per_minute must be positive")
		}
	}

	if err := api.Auth.validate(); err != nil {
		return err
	}

	if err := api.Storage.validate(); err != nil {
		return err
	}

	if api.Indexing.Enabled {
		return api.Indexing.validate()
	}

	return nil
}

func (a *APIAuthConfig) validate() error {
	if !a.Basic.Enabled {
		return nil
	}

	if len(a.Basic.Users) == 0 {
		return fmt.Errorf("api.auth.basic: at least one user is required")
	}

	seen := make(map[string]struct{}, len(a.Basic.Users))

	for i, u := range a.Basic.Users {
		if u.Username == "" {
			return fmt.Errorf("api.auth.basic.users[%d]: username is required", i)
		}

		if _, ok := seen[u.Username]; ok {
			return fmt.Errorf("api.auth.basic.users[%d]: duplicate username %q", i, u.Username)
		}

		seen[u.Username] = struct{}{}

		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return fmt.Errorf("api.auth.basic.users[%d]: password_hash is not a bcrypt hash: %w", i, err)
		}
	}

	return nil
}

func (s *APIStorageConfig) validate() error {
	switch {
	case s.S3.Enabled && s.Local.Enabled:
		return fmt.Errorf("api.storage: only one of s3 or local may be enabled")
	case s.S3.Enabled:
		if s.S3.Bucket == "" {
			return fmt.Errorf("api.storage.s3.bucket is required")
		}

		if len(s.S3.DiscoveryPaths) == 0 {
			return fmt.Errorf("api.storage.s3.discovery_paths: at least one path is required")
		}

		if s.S3.PresignedURLs.Expiry <= 0 {
			return fmt.Errorf("api.storage.s3.presigned_urls.expiry must be positive")
		}
	case s.Local.Enabled:
		if len(s.Local.DiscoveryPaths) == 0 {
			return fmt.Errorf("api.storage.local.discovery_paths: at least one path is required")
		}

		for name, dir := range s.Local.DiscoveryPaths {
			if !filepath.IsAbs(dir) {
				return fmt.Errorf("api.storage.local.discovery_paths.%s: %q must be absolute", name, dir)
			}
		}
	default:
		return fmt.Errorf("api.storage: one of s3 or local must be enabled")
	}

	return nil
}

func (i *APIIndexingConfig) validate() error {
	if i.Interval <= 0 {
		return fmt.Errorf("api.indexing.interval must be positive")
	}

	if i.Concurrency <= 0 {
		return fmt.Errorf("api.indexing.concurrency must be positive")
	}

	switch i.Database.Driver {
	case DatabaseDriverSQLite:
		if i.Database.SQLite.Path == "" {
			return fmt.Errorf("api.indexing.database.sqlite.path is required")
		}
	case DatabaseDriverPostgres:
		if i.Database.Postgres.Host == "" || i.Database.Postgres.Database == "" {
			return fmt.Errorf("api.indexing.database.postgres: host and database are required")
		}
	default:
		return fmt.Errorf("api.indexing.database.driver: unsupported driver %q", i.Database.Driver)
	}

	return nil
}
