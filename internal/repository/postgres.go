package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/minemap/internal/models"
)

// SaveLandmine inserts a newly bound landmine record.
func (r *Repository) SaveLandmine(ctx context.Context, mine models.Landmine) error {
	query := `
		INSERT INTO landmines
			(id, name, discoverer, latitude, longitude, defused, image_ref, locality, captured_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	_, err := r.db.Exec(ctx, query,
		mine.ID, mine.Name, mine.Discoverer, mine.Latitude, mine.Longitude,
		mine.Defused, mine.ImageRef, nullIfEmpty(mine.Locality), mine.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert landmine: %w", err)
	}

	r.log.DebugContext(ctx, "Landmine stored", "id", mine.ID)
	return nil
}

// UpdateLandmine overwrites the mutable columns of a record with its replacement.
func (r *Repository) UpdateLandmine(ctx context.Context, mine models.Landmine) error {
	query := `
		UPDATE landmines
		SET
			name = $1,
			discoverer = $2,
			latitude = $3,
			longitude = $4,
			defused = $5,
			image_ref = $6,
			locality = $7
		WHERE
			id = $8;
	`

	_, err := r.db.Exec(ctx, query,
		mine.Name, mine.Discoverer, mine.Latitude, mine.Longitude,
		mine.Defused, mine.ImageRef, nullIfEmpty(mine.Locality), mine.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update landmine: %w", err)
	}

	return nil
}

// DeleteLandmine removes a record. Deleting a missing record is not an error.
func (r *Repository) DeleteLandmine(ctx context.Context, id string) error {
	query := `DELETE FROM landmines WHERE id = $1;`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete landmine: %w", err)
	}

	return nil
}

// ListLandmines returns every stored landmine, oldest capture first.
func (r *Repository) ListLandmines(ctx context.Context) ([]models.Landmine, error) {
	var mines []models.Landmine
	query := `
		SELECT id, name, discoverer, latitude, longitude, defused, image_ref, COALESCE(locality, ''), captured_at
		FROM landmines
		ORDER BY captured_at ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query landmines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mine models.Landmine
		errScan := rows.Scan(
			&mine.ID, &mine.Name, &mine.Discoverer, &mine.Latitude, &mine.Longitude,
			&mine.Defused, &mine.ImageRef, &mine.Locality, &mine.CapturedAt,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan landmine: %w", errScan)
		}
		mines = append(mines, mine)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return mines, nil
}

// FetchLandminesForEnrichment retrieves records that still lack a locality label.
// It skips records that failed five times and returns the oldest captures first.
func (r *Repository) FetchLandminesForEnrichment(ctx context.Context, limit int) ([]models.Landmine, error) {
	var mines []models.Landmine
	query := `
		SELECT id, latitude, longitude
		FROM landmines
		WHERE
			locality IS NULL
			AND enrichment_attempts < 5
		ORDER BY captured_at ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query landmines without locality: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mine models.Landmine
		if errScan := rows.Scan(&mine.ID, &mine.Latitude, &mine.Longitude); errScan != nil {
			return nil, fmt.Errorf("failed to scan landmine without locality: %w", errScan)
		}
		r.log.DebugContext(ctx, "A landmine without locality has been received.", "ID", mine.ID)
		mines = append(mines, mine)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return mines, nil
}

// UpdateLandmineLocality stores the reverse-geocoded label and clears the last error.
func (r *Repository) UpdateLandmineLocality(ctx context.Context, id string, locality string) error {
	query := `
		UPDATE landmines
		SET
			locality = $1,
			enrichment_error = NULL
		WHERE
			id = $2;
	`

	_, err := r.db.Exec(ctx, query, locality, id)
	if err != nil {
		return fmt.Errorf("failed to update landmine locality: %w", err)
	}

	return nil
}

// IncrementEnrichmentFailure bumps the attempt counter of a record and stores the error message.
func (r *Repository) IncrementEnrichmentFailure(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE landmines
		SET
			enrichment_attempts = enrichment_attempts + 1,
			enrichment_error = $1
		WHERE id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update enrichment error and number of attempts: %w", err)
	}

	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
