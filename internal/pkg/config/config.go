package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"

	LockoutRedis   = "redis"
	LockoutStorage = "storage"
	LockoutNone    = "none"
)

type Config struct {
	Port               string        `env:"PORT,                 default=8080"`
	Env                string        `env:"ENV,                  default=development"`
	LogLevel           string        `env:"LOG_LEVEL,            default=info"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000,http://localhost:5173"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,     default=10s"`

	Storage  StorageConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Lockout  LockoutConfig
	Admin    AdminConfig
	Tracing  TracingConfig
}

type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH,    default=task-system.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type JWTConfig struct {
	Secret   string `env:"JWT_SECRET"`
	Issuer   string `env:"JWT_ISSUER,   default=task-system"`
	Audience string `env:"JWT_AUDIENCE, default=task-system-web"`
}

type PasswordConfig struct {
	MinLength              int  `env:"PASSWORD_MIN_LENGTH,               default=8"`
	RequireDigit           bool `env:"PASSWORD_REQUIRE_DIGIT,            default=true"`
	RequireUppercase       bool `env:"PASSWORD_REQUIRE_UPPERCASE,        default=true"`
	RequireLowercase       bool `env:"PASSWORD_REQUIRE_LOWERCASE,        default=true"`
	RequireNonAlphanumeric bool `env:"PASSWORD_REQUIRE_NON_ALPHANUMERIC, default=false"`
	RequiredUniqueChars    int  `env:"PASSWORD_REQUIRED_UNIQUE_CHARS,    default=1"`
	BcryptCost             int  `env:"BCRYPT_COST,                       default=10"`
}

type LockoutConfig struct {
	Backend     string        `env:"LOCKOUT_BACKEND,      default=storage"`
	MaxAttempts int           `env:"LOCKOUT_MAX_ATTEMPTS, default=5"`
	Duration    time.Duration `env:"LOCKOUT_DURATION,     default=5m"`
}

type AdminConfig struct {
	Seed     bool   `env:"DEFAULT_ADMIN_SEED,     default=true"`
	Username string `env:"DEFAULT_ADMIN_USERNAME, default=adminuser"`
	Email    string `env:"DEFAULT_ADMIN_EMAIL,    default=admin@example.com"`
	Password string `env:"DEFAULT_ADMIN_PASSWORD, default=AdminPass123!"`
}

type TracingConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED,      default=false"`
	Endpoint    string `env:"OTEL_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=task-system"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given key/value map.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverMongo, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverMongo, DriverSQLite, c.Storage.Driver))
	}
	switch c.Lockout.Backend {
	case LockoutRedis, LockoutStorage, LockoutNone:
	default:
		errs = append(errs, fmt.Errorf("LOCKOUT_BACKEND must be one of redis, storage, none, got %q", c.Lockout.Backend))
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Lockout.Backend != LockoutNone && (c.Lockout.MaxAttempts < 1 || c.Lockout.Duration <= 0) {
		errs = append(errs, errors.New("LOCKOUT_MAX_ATTEMPTS and LOCKOUT_DURATION must be positive"))
	}
	if c.Password.MinLength < 1 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
