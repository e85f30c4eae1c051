package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Redis backs rate limiting and the translation cache; optional
	Redis RedisConfig `yaml:"redis"`

	// Translation engine configuration
	Translation TranslationConfig `yaml:"translation"`

	// Moderation thresholds
	Moderation ModerationConfig `yaml:"moderation"`

	// Rate limit policies
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Auth holds bearer token verification settings
	Auth AuthConfig `yaml:"auth"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	MigrationsPath  string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User         string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name         string        `yaml:"name" env:"DB_NAME" env-default:"reviews"`
	SSLMode      string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxLifetime  time.Duration `yaml:"max_lifetime" env:"DB_MAX_LIFETIME" env-default:"5m"`
}

// RedisConfig holds the fast key-value store settings.
// An empty URL disables rate limiting (fail open) and translation caching.
type RedisConfig struct {
	URL         string        `yaml:"url" env:"REDIS_URL"`
	OpTimeout   time.Duration `yaml:"op_timeout" env:"REDIS_OP_TIMEOUT" env-default:"500ms"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"2s"`
}

// TranslationConfig holds Google Cloud Translation and engine settings
type TranslationConfig struct {
	Enabled         bool          `yaml:"enabled" env:"TRANSLATION_ENABLED" env-default:"true"`
	ProjectID       string        `yaml:"project_id" env:"GOOGLE_CLOUD_PROJECT_ID"`
	CredentialsJSON string        `yaml:"credentials_json" env:"GOOGLE_CLOUD_CREDENTIALS"`
	CredentialsFile string        `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	DefaultLocale   string        `yaml:"default_locale" env:"DEFAULT_LOCALE" env-default:"en"`
	TargetLocale    string        `yaml:"target_locale" env:"TARGET_LOCALE" env-default:"id"`
	CallTimeout     time.Duration `yaml:"call_timeout" env:"TRANSLATION_CALL_TIMEOUT" env-default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" env:"TRANSLATION_RUN_TIMEOUT" env-default:"5m"`
	CacheTTL        time.Duration `yaml:"cache_ttl" env:"TRANSLATION_CACHE_TTL" env-default:"720h"`
	Workers         int           `yaml:"workers" env:"TRANSLATION_WORKERS" env-default:"4"`
	FieldParallel   int           `yaml:"field_parallel" env:"TRANSLATION_FIELD_PARALLEL" env-default:"4"`
}

// ModerationConfig holds the trust and report thresholds
type ModerationConfig struct {
	TrustThreshold  int `yaml:"trust_threshold" env:"TRUST_THRESHOLD" env-default:"3"`
	ReportThreshold int `yaml:"report_threshold" env:"REPORT_THRESHOLD" env-default:"3"`
}

// RateLimitConfig holds the per-action admission policies
type RateLimitConfig struct {
	CommentLimit  int           `yaml:"comment_limit" env:"RATE_COMMENT_LIMIT" env-default:"3"`
	CommentWindow time.Duration `yaml:"comment_window" env:"RATE_COMMENT_WINDOW" env-default:"1m"`
	ReportLimit   int           `yaml:"report_limit" env:"RATE_REPORT_LIMIT" env-default:"5"`
	ReportWindow  time.Duration `yaml:"report_window" env:"RATE_REPORT_WINDOW" env-default:"5m"`
	LikeLimit     int           `yaml:"like_limit" env:"RATE_LIKE_LIMIT" env-default:"5"`
	LikeWindow    time.Duration `yaml:"like_window" env:"RATE_LIKE_WINDOW" env-default:"1m"`
	ViewLimit     int           `yaml:"view_limit" env:"RATE_VIEW_LIMIT" env-default:"1"`
	ViewWindow    time.Duration `yaml:"view_window" env:"RATE_VIEW_WINDOW" env-default:"1m"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"review-pipeline"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // "json" or "pretty"
}

// Load reads configuration from an optional YAML file (path argument or
// CONFIG_PATH) and overlays environment variables on top of it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Translation.DefaultLocale == "" || c.Translation.TargetLocale == "" {
		return fmt.Errorf("DEFAULT_LOCALE and TARGET_LOCALE are required")
	}
	if c.Translation.DefaultLocale == c.Translation.TargetLocale {
		return fmt.Errorf("TARGET_LOCALE must differ from DEFAULT_LOCALE")
	}
	if c.Translation.CallTimeout <= 0 {
		return fmt.Errorf("TRANSLATION_CALL_TIMEOUT must be > 0")
	}
	if c.Translation.Workers <= 0 {
		return fmt.Errorf("TRANSLATION_WORKERS must be > 0")
	}
	if c.Moderation.TrustThreshold <= 0 || c.Moderation.ReportThreshold <= 0 {
		return fmt.Errorf("moderation thresholds must be > 0")
	}
	for name, p := range map[string]struct {
		limit  int
		window time.Duration
	}{
		"comment": {c.RateLimit.CommentLimit, c.RateLimit.CommentWindow},
		"report":  {c.RateLimit.ReportLimit, c.RateLimit.ReportWindow},
		"like":    {c.RateLimit.LikeLimit, c.RateLimit.LikeWindow},
		"view":    {c.RateLimit.ViewLimit, c.RateLimit.ViewWindow},
	} {
		if p.limit <= 0 || p.window < time.Second {
			return fmt.Errorf("rate limit %q needs limit > 0 and window >= 1s", name)
		}
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
