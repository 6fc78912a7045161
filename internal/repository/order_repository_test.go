package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sino-med/hms-lab-api/internal/models"
)

func newOrderRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_number", "patient_id", "doctor_id", "test_name", "status", "priority", "result_id", "created_at", "sample_collected_at", "approved_at"})
}

func TestOrderRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	rows := orderRows().
		AddRow("ord-1", "LAB-001", "pat-1", nil, "Таҳлили умумии хун", models.OrderStatusPending, models.PriorityNormal, nil, time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, order_number, patient_id, doctor_id, test_name, status, priority, result_id, created_at, sample_collected_at, approved_at FROM lab_orders WHERE id = $1")).
		WithArgs("ord-1").
		WillReturnRows(rows)

	order, err := repo.FindByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "LAB-001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryListFiltersByPatientAndStatus(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lab_orders WHERE 1=1 AND patient_id = $1 AND status = $2")).
		WithArgs("pat-1", models.OrderStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("AND patient_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("pat-1", models.OrderStatusPending, 20, 0).
		WillReturnRows(orderRows().
			AddRow("ord-1", "LAB-001", "pat-1", nil, "ОАК", models.OrderStatusPending, models.PriorityNormal, nil, time.Now(), nil, nil))

	orders, total, err := repo.List(context.Background(), models.OrderFilter{PatientID: "pat-1", Status: models.OrderStatusPending, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectExec("UPDATE lab_orders").
		WithArgs("ord-1", models.OrderStatusPending, models.OrderStatusSampleCollected).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionStatus(context.Background(), "ord-1", models.OrderStatusPending, models.OrderStatusSampleCollected)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryTransitionStatusGuardMiss(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectExec("UPDATE lab_orders").
		WithArgs("ord-1", models.OrderStatusPending, models.OrderStatusSampleCollected).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "ord-1", models.OrderStatusPending, models.OrderStatusSampleCollected)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE lab_orders SET status = 'approved'").
		WithArgs("ord-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lab_results SET approved_at").
		WithArgs("ord-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Approve(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryApproveGuardMissRollsBack(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE lab_orders SET status = 'approved'").
		WithArgs("ord-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ok, err := repo.Approve(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
