package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by the repository.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	SaveLandmine(ctx context.Context, mine models.Landmine) error
	UpdateLandmine(ctx context.Context, mine models.Landmine) error
	DeleteLandmine(ctx context.Context, id string) error
	ListLandmines(ctx context.Context) ([]models.Landmine, error)
	FetchLandminesForEnrichment(ctx context.Context, limit int) ([]models.Landmine, error)
	UpdateLandmineLocality(ctx context.Context, id string, locality string) error
	IncrementEnrichmentFailure(ctx context.Context, id string, errMsg string) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
