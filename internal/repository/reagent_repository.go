package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sino-med/hms-lab-api/internal/models"
)

// ReagentRepository handles reagent lot and usage history persistence.
// Decrements happen only inside the submission transaction; this repository
// is the read side of the ledger.
type ReagentRepository struct {
	db *sqlx.DB
}

// NewReagentRepository creates a new reagent repository.
func NewReagentRepository(db *sqlx.DB) *ReagentRepository {
	return &ReagentRepository{db: db}
}

const reagentColumns = `id, name, country, expiry_date, total_tests, remaining_tests, total_price, created_at`

// FindByID returns a single reagent lot.
func (r *ReagentRepository) FindByID(ctx context.Context, id string) (*models.ReagentLot, error) {
	query := fmt.Sprintf(`SELECT %s FROM reagent_lots WHERE id = $1`, reagentColumns)
	var lot models.ReagentLot
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		return nil, err
	}
	return &lot, nil
}

// List returns every reagent lot, newest purchase first. Status filtering
// happens in the service because status is derived, not stored.
func (r *ReagentRepository) List(ctx context.Context) ([]models.ReagentLot, error) {
	query := fmt.Sprintf(`SELECT %s FROM reagent_lots ORDER BY created_at DESC`, reagentColumns)
	var lots []models.ReagentLot
	if err := r.db.SelectContext(ctx, &lots, query); err != nil {
		return nil, fmt.Errorf("list reagent lots: %w", err)
	}
	return lots, nil
}

// ListUsage returns the usage ledger for one lot, newest first.
func (r *ReagentRepository) ListUsage(ctx context.Context, reagentID string, limit int) ([]models.ReagentUsage, error) {
	query := `SELECT id, reagent_id, result_id, order_id, patient_id, used_by, tests_taken, created_at
        FROM reagent_usage WHERE reagent_id = $1 ORDER BY created_at DESC`
	args := []interface{}{reagentID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	var usage []models.ReagentUsage
	if err := r.db.SelectContext(ctx, &usage, query, args...); err != nil {
		return nil, fmt.Errorf("list reagent usage: %w", err)
	}
	return usage, nil
}
