// internal/database/postgres.go
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Conn owns the connection pool and signals, once, when the database is
// usable.
type Conn struct {
	pool    *pgxpool.Pool
	url     string
	migrate bool
	logger  *slog.Logger

	once sync.Once
	open chan struct{}
}

// New parses url and builds a lazy pool. No connection is made until Open.
func New(ctx context.Context, url string, runMigrations bool, logger *slog.Logger) (*Conn, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return &Conn{
		pool:    pool,
		url:     url,
		migrate: runMigrations,
		logger:  logger,
		open:    make(chan struct{}),
	}, nil
}

func (c *Conn) Pool() *pgxpool.Pool {
	return c.pool
}

// Ready is closed after Open succeeds.
func (c *Conn) Ready() <-chan struct{} {
	return c.open
}

// Open verifies connectivity, applies pending migrations and fires the open
// event. Calling it again after success is a no-op.
func (c *Conn) Open(ctx context.Context) error {
	select {
	case <-c.open:
		return nil
	default:
	}

	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if c.migrate {
		if err := c.runMigrations(); err != nil {
			return err
		}
	}

	c.once.Do(func() {
		c.logger.Info("database connection open")
		close(c.open)
	})
	return nil
}

func (c *Conn) Close() {
	c.pool.Close()
}

func (c *Conn) runMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(c.url))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		c.logger.Info("migrations applied", "version", version, "dirty", dirty)
	}
	return nil
}

// migrateURL rewrites a postgres URL to the scheme the pgx/v5 migrate
// driver registers under.
func migrateURL(url string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(url, scheme) {
			return "pgx5://" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}
