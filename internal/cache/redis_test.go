package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/review-pipeline/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNew_EmptyURLIsDisabled(t *testing.T) {
	c, err := New(config.RedisConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	ctx := context.Background()
	_, err = c.Incr(ctx, "k")
	assert.ErrorIs(t, err, ErrDisabled)
	_, _, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.SetEx(ctx, "k", "v", time.Second), ErrDisabled)
	assert.ErrorIs(t, c.Ping(ctx), ErrDisabled)
	assert.NoError(t, c.Close())
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(config.RedisConfig{URL: "not-a-redis-url"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	_, err := c.TTL(context.Background(), "k")
	assert.ErrorIs(t, err, ErrDisabled)
}

// startRedis starts a throwaway Redis via testcontainers-go.
// Skipped unless GO_TEST_INTEGRATION is set.
func startRedis(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	c := NewFromClient(rdb, time.Second, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))
	return c
}

func TestIntegration_CounterAndTTL(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "ratelimit:test")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ttl, err := c.TTL(ctx, "ratelimit:test")
	require.NoError(t, err)
	assert.Less(t, ttl, time.Duration(0), "fresh counter has no expiry")

	require.NoError(t, c.Expire(ctx, "ratelimit:test", time.Minute))
	ttl, err = c.TTL(ctx, "ratelimit:test")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}

func TestIntegration_GetSetEx(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetEx(ctx, "translate:id:abc", "halo", time.Hour))
	val, ok, err := c.Get(ctx, "translate:id:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "halo", val)
}
