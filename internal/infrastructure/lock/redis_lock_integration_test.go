//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/lock"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker_ExclusionYLiberacion(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	a := lock.NewRedisLockerWithClient(client, time.Minute, zerolog.Nop())
	b := lock.NewRedisLockerWithClient(client, time.Minute, zerolog.Nop())

	release, err := a.TryLock(ctx, "emission:inv-1")
	require.NoError(t, err)

	_, err = b.TryLock(ctx, "emission:inv-1")
	assert.ErrorIs(t, err, domain.ErrEmissionInProgress)

	release()
	relB, err := b.TryLock(ctx, "emission:inv-1")
	require.NoError(t, err)
	relB()
}

func TestRedisLocker_NoLiberaLockAjeno(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	l := lock.NewRedisLockerWithClient(client, 200*time.Millisecond, zerolog.Nop())

	stale, err := l.TryLock(ctx, "emission:inv-9")
	require.NoError(t, err)
	time.Sleep(400 * time.Millisecond)

	fresh, err := l.TryLock(ctx, "emission:inv-9")
	require.NoError(t, err)
	stale()

	_, err = l.TryLock(ctx, "emission:inv-9")
	assert.ErrorIs(t, err, domain.ErrEmissionInProgress)
	fresh()
}
