package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sino-med/hms-lab-api/internal/models"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
)

// SubmissionRepository executes the result submission as a single unit of
// work: result insert, guarded reagent decrement, guarded order transition
// and usage-history append either all commit or all roll back.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// SubmissionRecord carries everything the transaction needs, already
// validated by the service.
type SubmissionRecord struct {
	OrderID        string
	PatientID      string
	ReagentID      string
	ExpectedStatus models.OrderStatus
	Entries        models.ResultEntries
	FreeText       string
	Notes          string
	CreatedBy      string
}

// Submit persists the result and all its side effects atomically.
//
// Failure mapping: a missed reagent guard means the lot expired or ran out
// between the precondition check and the commit (REAGENT_UNAVAILABLE); a
// missed order guard means a concurrent submission or transition won the race
// (CONCURRENT_MODIFICATION — the caller retries those).
func (r *SubmissionRepository) Submit(ctx context.Context, rec SubmissionRecord) (*models.LabResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}

	result := &models.LabResult{
		ID:        uuid.NewString(),
		OrderID:   rec.OrderID,
		Entries:   rec.Entries,
		FreeText:  rec.FreeText,
		Notes:     rec.Notes,
		ReagentID: rec.ReagentID,
		CreatedBy: rec.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}

	const insertResult = `INSERT INTO lab_results (id, order_id, entries, free_text, notes, reagent_id, created_by, created_at)
        VALUES (:id, :order_id, :entries, :free_text, :notes, :reagent_id, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertResult, result); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert result: %w", err)
	}

	// One submission consumes exactly one test regardless of parameter count.
	const decrement = `UPDATE reagent_lots SET remaining_tests = remaining_tests - 1
        WHERE id = $1 AND remaining_tests >= 1 AND expiry_date > NOW()`
	res, err := tx.ExecContext(ctx, decrement, rec.ReagentID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("decrement reagent: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Clone(appErrors.ErrReagentUnavailable, "reagent lot expired or depleted")
	}

	const updateOrder = `UPDATE lab_orders SET status = 'completed', result_id = $2
        WHERE id = $1 AND status = $3 AND result_id IS NULL`
	res, err = tx.ExecContext(ctx, updateOrder, rec.OrderID, result.ID, rec.ExpectedStatus)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("complete order: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Clone(appErrors.ErrConcurrentModification, "order changed during submission")
	}

	usage := models.ReagentUsage{
		ID:         uuid.NewString(),
		ReagentID:  rec.ReagentID,
		ResultID:   result.ID,
		OrderID:    rec.OrderID,
		PatientID:  rec.PatientID,
		UsedBy:     rec.CreatedBy,
		TestsTaken: 1,
		CreatedAt:  time.Now().UTC(),
	}
	const insertUsage = `INSERT INTO reagent_usage (id, reagent_id, result_id, order_id, patient_id, used_by, tests_taken, created_at)
        VALUES (:id, :reagent_id, :result_id, :order_id, :patient_id, :used_by, :tests_taken, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertUsage, usage); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("append usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}
	return result, nil
}
