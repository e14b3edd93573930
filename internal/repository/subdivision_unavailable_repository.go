package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// SubdivisionUnavailableRepository persists per-class unavailability windows.
type SubdivisionUnavailableRepository struct {
	db *sqlx.DB
}

// NewSubdivisionUnavailableRepository constructs the repository.
func NewSubdivisionUnavailableRepository(db *sqlx.DB) *SubdivisionUnavailableRepository {
	return &SubdivisionUnavailableRepository{db: db}
}

// ListByClassIDs returns unavailability rows for the given classes; classes
// with no rows simply have no restrictions.
func (r *SubdivisionUnavailableRepository) ListByClassIDs(ctx context.Context, classIDs []string) ([]models.SubdivisionUnavailable, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT id, class_id, unavailable, created_at, updated_at
FROM subdivision_unavailabilities WHERE class_id IN (%s)`, placeholders(len(classIDs)))
	args := make([]interface{}, len(classIDs))
	for i, id := range classIDs {
		args[i] = id
	}
	var rows []models.SubdivisionUnavailable
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subdivision unavailabilities: %w", err)
	}
	return rows, nil
}

// Upsert creates or updates the unavailability windows for a class.
func (r *SubdivisionUnavailableRepository) Upsert(ctx context.Context, row *models.SubdivisionUnavailable) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if len(row.Unavailable) == 0 {
		row.Unavailable = []byte("[]")
	}
	const query = `INSERT INTO subdivision_unavailabilities (id, class_id, unavailable, created_at, updated_at)
		VALUES (:id, :class_id, :unavailable, :created_at, :updated_at)
		ON CONFLICT (class_id) DO UPDATE
		SET unavailable = EXCLUDED.unavailable, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert subdivision unavailability: %w", err)
	}
	return nil
}
