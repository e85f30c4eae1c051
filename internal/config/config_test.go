package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "en", cfg.Translation.DefaultLocale)
	assert.Equal(t, "id", cfg.Translation.TargetLocale)
	assert.Equal(t, 30*time.Second, cfg.Translation.CallTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Translation.CacheTTL)
	assert.Equal(t, 3, cfg.Moderation.TrustThreshold)
	assert.Equal(t, 3, cfg.Moderation.ReportThreshold)

	assert.Equal(t, 3, cfg.RateLimit.CommentLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.CommentWindow)
	assert.Equal(t, 5, cfg.RateLimit.ReportLimit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.ReportWindow)
	assert.Equal(t, 5, cfg.RateLimit.LikeLimit)
	assert.Equal(t, 1, cfg.RateLimit.ViewLimit)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TRANSLATION_CALL_TIMEOUT", "5s")
	t.Setenv("TRUST_THRESHOLD", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 5*time.Second, cfg.Translation.CallTimeout)
	assert.Equal(t, 5, cfg.Moderation.TrustThreshold)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "7070"
translation:
  target_locale: "fr"
rate_limit:
  comment_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "fr", cfg.Translation.TargetLocale)
	assert.Equal(t, 10, cfg.RateLimit.CommentLimit)
	assert.Equal(t, time.Minute, cfg.RateLimit.CommentWindow)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat failed")
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"same locales", func(c *Config) { c.Translation.TargetLocale = c.Translation.DefaultLocale }, "must differ"},
		{"no workers", func(c *Config) { c.Translation.Workers = 0 }, "TRANSLATION_WORKERS"},
		{"zero trust threshold", func(c *Config) { c.Moderation.TrustThreshold = 0 }, "thresholds"},
		{"sub-second window", func(c *Config) { c.RateLimit.ViewWindow = 10 * time.Millisecond }, "view"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "DB_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "reviews", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=reviews sslmode=disable", c.GetDSN())
}
