// Package lock implementa el lock de emisión por factura.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

const defaultKeyPrefix = "facturacion:lock:"

// Solo borra la clave si sigue siendo nuestra (el TTL pudo vencer y otro la tomó).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker lock compartido entre instancias con SET NX PX.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       zerolog.Logger
}

var _ billing.EmissionLocker = (*RedisLocker)(nil)

// NewRedisLocker conecta y verifica con PING.
func NewRedisLocker(ctx context.Context, addr, password string, db int, ttl time.Duration, log zerolog.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a redis: %w", err)
	}
	return NewRedisLockerWithClient(client, ttl, log), nil
}

// NewRedisLockerWithClient usa un cliente existente.
func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, keyPrefix: defaultKeyPrefix, ttl: ttl, log: log}
}

// TryLock toma el lock sin esperar. El TTL libera el lock si el proceso muere.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	full := l.keyPrefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("tomar lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrEmissionInProgress
	}
	return func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{full}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", full).Msg("no se pudo liberar el lock")
		}
	}, nil
}

// Close cierra el cliente.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
