package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sino-med/hms-lab-api/internal/models"
)

// OrderRepository handles lab order persistence.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, patient_id, doctor_id, test_name, status, priority, result_id, created_at, sample_collected_at, approved_at`

// FindByID returns a single order.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.LabOrder, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_orders WHERE id = $1`, orderColumns)
	var order models.LabOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.LabOrder, int, error) {
	base := ` FROM lab_orders WHERE 1=1`
	var args []interface{}
	if filter.PatientID != "" {
		base += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
		args = append(args, filter.PatientID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		base += fmt.Sprintf(" AND priority = $%d", len(args)+1)
		args = append(args, filter.Priority)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + base + " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.PageSize, offset)
	}

	var orders []models.LabOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionStatus moves an order between statuses with an expected-current
// guard. It reports false when the guard missed, which means another caller
// changed the order first.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	const query = `UPDATE lab_orders
        SET status = $3,
            sample_collected_at = CASE WHEN $3 = 'sample_collected' THEN NOW() ELSE sample_collected_at END
        WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("transition order: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition order: %w", err)
	}
	return rows == 1, nil
}

// Approve marks a completed order and its result as approved inside one
// transaction. The status guard keeps two concurrent approvers from both
// succeeding.
func (r *OrderRepository) Approve(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	const orderQuery = `UPDATE lab_orders SET status = 'approved', approved_at = NOW()
        WHERE id = $1 AND status = 'completed' AND result_id IS NOT NULL`
	res, err := tx.ExecContext(ctx, orderQuery, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return false, fmt.Errorf("approve order: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil || rows == 0 {
		tx.Rollback() //nolint:errcheck
		return false, err
	}
	const resultQuery = `UPDATE lab_results SET approved_at = NOW() WHERE order_id = $1`
	if _, err := tx.ExecContext(ctx, resultQuery, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return false, fmt.Errorf("approve result: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit approve: %w", err)
	}
	return true, nil
}
