package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/UnknownOlympus/minemap/internal/models"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// cacheKeyPrecision rounds coordinates to roughly eleven meters before keying the cache.
const cacheKeyPrecision = 4

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS reverse_geocode (
		key        TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
`

// CachedProvider memoizes reverse geocoding results in a SQLite database.
// Entries never expire; places do not move.
type CachedProvider struct {
	next Provider
	db   *sql.DB
	log  *slog.Logger
}

// NewCachedProvider opens (or creates) the SQLite cache at path in front of next.
func NewCachedProvider(next Provider, path string, log *slog.Logger) (*CachedProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create geocode cache schema: %w", err)
	}

	return &CachedProvider{next: next, db: db, log: log}, nil
}

// ReverseGeocode answers from the cache when possible and stores fresh results.
// A broken cache degrades to calling the wrapped provider.
func (cp *CachedProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (string, error) {
	key := cacheKey(coords)

	var label string
	err := cp.db.QueryRowContext(ctx, `SELECT label FROM reverse_geocode WHERE key = ?`, key).Scan(&label)
	switch {
	case err == nil:
		cp.log.DebugContext(ctx, "Reverse geocode cache hit", "key", key)
		return label, nil
	case !errors.Is(err, sql.ErrNoRows):
		cp.log.WarnContext(ctx, "Reverse geocode cache lookup failed", "key", key, "error", err)
	}

	label, err = cp.next.ReverseGeocode(ctx, coords)
	if err != nil {
		return "", err
	}

	if _, err = cp.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reverse_geocode (key, label) VALUES (?, ?)`, key, label,
	); err != nil {
		cp.log.WarnContext(ctx, "Failed to store reverse geocode result", "key", key, "error", err)
	}

	return label, nil
}

// Close releases the cache database.
func (cp *CachedProvider) Close() error {
	return cp.db.Close()
}

func cacheKey(c models.Coordinates) string {
	p := math.Pow10(cacheKeyPrecision)
	lat := strconv.FormatFloat(math.Round(c.Latitude*p)/p, 'f', cacheKeyPrecision, 64)
	lon := strconv.FormatFloat(math.Round(c.Longitude*p)/p, 'f', cacheKeyPrecision, 64)

	return lat + "|" + lon
}
