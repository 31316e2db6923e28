package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/alumni-connect-server/database"
)

// DBTX is the subset of database/sql used by repositories. *sql.DB and
// *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Connection owns the pgx pool and a database/sql handle backed by it.
type Connection struct {
	*pgxpool.Pool
	db *sql.DB
}

// NewConnection opens a pool for dsn, verifies it and applies migrations.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	conn := &Connection{
		Pool: pool,
		db:   stdlib.OpenDBFromPool(pool),
	}

	if err := database.Migrate(ctx, conn.db); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return conn, nil
}

// DB returns the database/sql handle sharing the pool.
func (c *Connection) DB() *sql.DB {
	return c.db
}

func (c *Connection) Close() error {
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	return err
}

func (c *Connection) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	return c.Pool.Ping(ctx)
}
