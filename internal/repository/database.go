package repository

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS landmines (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		discoverer          TEXT NOT NULL,
		latitude            DOUBLE PRECISION NOT NULL,
		longitude           DOUBLE PRECISION NOT NULL,
		defused             BOOLEAN NOT NULL DEFAULT false,
		image_ref           TEXT NOT NULL,
		locality            TEXT,
		captured_at         TIMESTAMPTZ NOT NULL,
		enrichment_attempts INTEGER NOT NULL DEFAULT 0,
		enrichment_error    TEXT
	);
`

// NewDatabase opens a pgx connection pool and verifies it with a ping.
func NewDatabase(host, port, user, password, name string) (*pgxpool.Pool, error) {
	const pingTimeout = 5 * time.Second

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(context.Background(), dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the landmines table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}
