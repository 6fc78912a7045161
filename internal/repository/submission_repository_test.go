package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sino-med/hms-lab-api/internal/models"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleRecord() SubmissionRecord {
	return SubmissionRecord{
		OrderID:        "ord-1",
		PatientID:      "pat-1",
		ReagentID:      "rg-1",
		ExpectedStatus: models.OrderStatusInProgress,
		Entries: models.ResultEntries{
			{ParameterName: "Гемоглобин", Value: "135", Unit: "г/л", NormalRange: "120-160"},
		},
		CreatedBy: "usr-1",
	}
}

func TestSubmissionRepositorySubmitCommits(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lab_results").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reagent_lots SET remaining_tests = remaining_tests - 1").
		WithArgs("rg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lab_orders SET status = 'completed'").
		WithArgs("ord-1", sqlmock.AnyArg(), models.OrderStatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reagent_usage").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Submit(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, "rg-1", result.ReagentID)
	assert.Len(t, result.Entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySubmitReagentGuardMiss(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lab_results").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reagent_lots SET remaining_tests = remaining_tests - 1").
		WithArgs("rg-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrReagentUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySubmitOrderGuardMiss(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lab_results").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reagent_lots SET remaining_tests = remaining_tests - 1").
		WithArgs("rg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lab_orders SET status = 'completed'").
		WithArgs("ord-1", sqlmock.AnyArg(), models.OrderStatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConcurrentModification))
	assert.NoError(t, mock.ExpectationsWereMet())
}
