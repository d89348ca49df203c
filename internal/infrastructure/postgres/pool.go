package postgres

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jhoicas/Facturacion-api/pkg/config"
)

// NewPool abre el pool y verifica la conexión con un ping.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := NewPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// NewPoolConfig arma la configuración del pool sin conectar.
// El host del DSN no se reescribe: verify-full necesita el hostname original.
func NewPoolConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if cfg.ForceIPv4 {
		// contenedores sin ruta IPv6
		poolConfig.ConnConfig.DialFunc = ipv4Dial(&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 5 * time.Minute})
	}

	// Fechas civiles (issue_date, due_date) se leen como medianoche UTC.
	params := poolConfig.ConnConfig.RuntimeParams
	params["timezone"] = "UTC"
	if cfg.StatementTimeoutSeconds > 0 {
		params["statement_timeout"] = strconv.Itoa(cfg.StatementTimeoutSeconds * 1000)
	}
	if cfg.ApplicationName != "" {
		params["application_name"] = cfg.ApplicationName
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal en todas las conexiones del pool.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return poolConfig, nil
}

// ipv4Dial limita los sockets TCP a IPv4; los sockets unix pasan sin cambios.
func ipv4Dial(d *net.Dialer) pgconn.DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if network == "tcp" {
			network = "tcp4"
		}
		return d.DialContext(ctx, network, addr)
	}
}
