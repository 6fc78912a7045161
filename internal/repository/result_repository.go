package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sino-med/hms-lab-api/internal/models"
)

// ResultRepository reads persisted lab results and the per-patient history
// projection. Writes go through the submission repository exclusively.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = `id, order_id, entries, free_text, notes, reagent_id, created_by, created_at, approved_at`

// FindByOrderID returns the result belonging to an order.
func (r *ResultRepository) FindByOrderID(ctx context.Context, orderID string) (*models.LabResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_results WHERE order_id = $1`, resultColumns)
	var result models.LabResult
	if err := r.db.GetContext(ctx, &result, query, orderID); err != nil {
		return nil, err
	}
	return &result, nil
}

// PatientSummary aggregates completed results for one patient.
func (r *ResultRepository) PatientSummary(ctx context.Context, patientID string) (*models.PatientHistoryRow, error) {
	const query = `SELECT o.patient_id, COUNT(res.id) AS test_count, MAX(res.created_at) AS last_result_at
        FROM lab_results res
        JOIN lab_orders o ON o.id = res.order_id
        WHERE o.patient_id = $1 AND o.status IN ('completed', 'approved')
        GROUP BY o.patient_id`
	var row models.PatientHistoryRow
	if err := r.db.GetContext(ctx, &row, query, patientID); err != nil {
		return nil, err
	}
	return &row, nil
}

// PatientResults lists result rows for one patient, newest first.
func (r *ResultRepository) PatientResults(ctx context.Context, patientID string) ([]models.PatientResultRow, error) {
	const query = `SELECT res.order_id, o.order_number, o.test_name, o.status, res.entries, res.created_at
        FROM lab_results res
        JOIN lab_orders o ON o.id = res.order_id
        WHERE o.patient_id = $1 AND o.status IN ('completed', 'approved')
        ORDER BY res.created_at DESC`
	var rows []models.PatientResultRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("list patient results: %w", err)
	}
	return rows, nil
}
