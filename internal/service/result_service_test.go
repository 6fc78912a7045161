package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sino-med/hms-lab-api/internal/labtest"
	"github.com/sino-med/hms-lab-api/internal/models"
	"github.com/sino-med/hms-lab-api/internal/repository"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
)

type fakeSubmissionOrders struct {
	orders map[string]*models.LabOrder
}

func (f *fakeSubmissionOrders) FindByID(ctx context.Context, id string) (*models.LabOrder, error) {
	if order, ok := f.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSubmissionReagents struct {
	lots map[string]*models.ReagentLot
}

func (f *fakeSubmissionReagents) FindByID(ctx context.Context, id string) (*models.ReagentLot, error) {
	if lot, ok := f.lots[id]; ok {
		copied := *lot
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeResultReader struct {
	results map[string]*models.LabResult
}

func (f *fakeResultReader) FindByOrderID(ctx context.Context, orderID string) (*models.LabResult, error) {
	if result, ok := f.results[orderID]; ok {
		return result, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSubmitter struct {
	conflicts int
	calls     int
	last      repository.SubmissionRecord
}

func (f *fakeSubmitter) Submit(ctx context.Context, rec repository.SubmissionRecord) (*models.LabResult, error) {
	f.calls++
	f.last = rec
	if f.conflicts > 0 {
		f.conflicts--
		return nil, appErrors.Clone(appErrors.ErrConcurrentModification, "order changed during submission")
	}
	return &models.LabResult{
		ID:        "res-1",
		OrderID:   rec.OrderID,
		Entries:   rec.Entries,
		FreeText:  rec.FreeText,
		Notes:     rec.Notes,
		ReagentID: rec.ReagentID,
		CreatedBy: rec.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type fakeInvalidator struct {
	deleted []string
}

func (f *fakeInvalidator) Delete(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

type resultFixture struct {
	orders   *fakeSubmissionOrders
	reagents *fakeSubmissionReagents
	results  *fakeResultReader
	tx       *fakeSubmitter
	cache    *fakeInvalidator
	svc      *ResultService
}

func newResultFixture(t *testing.T, status models.OrderStatus) *resultFixture {
	t.Helper()
	f := &resultFixture{
		orders: &fakeSubmissionOrders{orders: map[string]*models.LabOrder{
			"ord-1": {ID: "ord-1", OrderNumber: "LAB-001", PatientID: "pat-1", TestName: "Таҳлили умумии хун", Status: status},
		}},
		reagents: &fakeSubmissionReagents{lots: map[string]*models.ReagentLot{
			"rg-1": {ID: "rg-1", Name: "Набор ОАК", ExpiryDate: time.Now().AddDate(1, 0, 0), TotalTests: 100, RemainingTests: 50},
		}},
		results: &fakeResultReader{results: map[string]*models.LabResult{}},
		tx:      &fakeSubmitter{},
		cache:   &fakeInvalidator{},
	}
	f.svc = NewResultService(f.orders, f.reagents, f.results, f.tx, f.cache, nil, nil, 3)
	return f
}

func TestResultServiceSubmit(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)

	result, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values: map[string]string{
			"Гемоглобин": " 135 ",
			"Лейкоциты":  "5.6",
			"СОЭ":        "   ",
		},
		Notes: "повтор через месяц",
	}, "usr-1")
	require.NoError(t, err)

	// Whitespace-only values are dropped, the rest trimmed; unit and range
	// come from the registry.
	require.Len(t, result.Entries, 2)
	byName := map[string]models.ResultEntry{}
	for _, entry := range result.Entries {
		byName[entry.ParameterName] = entry
	}
	hb := byName["Гемоглобин"]
	assert.Equal(t, "135", hb.Value)
	assert.Equal(t, "г/л", hb.Unit)
	assert.Equal(t, "120-160", hb.NormalRange)

	assert.Equal(t, models.OrderStatusInProgress, f.tx.last.ExpectedStatus)
	assert.Equal(t, "usr-1", f.tx.last.CreatedBy)
	assert.Equal(t, "pat-1", f.tx.last.PatientID)
	assert.Contains(t, f.cache.deleted, reagentListCacheKey)
}

func TestResultServiceSubmitRequiresReagentID(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		Values: map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, f.tx.calls)
}

func TestResultServiceSubmitOrderNotReady(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusPending)

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOrderNotReady))
}

func TestResultServiceSubmitDuplicate(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	resultID := "res-0"
	f.orders.orders["ord-1"].ResultID = &resultID

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateSubmission))
}

func TestResultServiceSubmitExpiredReagent(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.reagents.lots["rg-1"].ExpiryDate = time.Now().AddDate(0, 0, -1)

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrReagentUnavailable))
	assert.Zero(t, f.tx.calls)
}

func TestResultServiceSubmitDepletedReagent(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.reagents.lots["rg-1"].RemainingTests = 0

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrReagentUnavailable))
}

func TestResultServiceSubmitNoValues(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusSampleCollected)

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "   ", "Неизвестный": "5"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoResultData))
}

func TestResultServiceSubmitFreeText(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.orders.orders["ord-1"].TestName = "Специальное исследование"

	result, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		FreeText:  "Патологии не выявлено",
	}, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, "Патологии не выявлено", result.FreeText)
}

func TestResultServiceSubmitFreeTextEmpty(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.orders.orders["ord-1"].TestName = "Специальное исследование"

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		FreeText:  "   ",
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoResultData))
}

func TestResultServiceSubmitRetriesOnConflict(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.tx.conflicts = 1

	result, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.tx.calls)
	assert.Equal(t, "res-1", result.ID)
}

func TestResultServiceSubmitGivesUpAfterRetries(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusInProgress)
	f.tx.conflicts = 10

	_, err := f.svc.Submit(context.Background(), "ord-1", SubmitResultRequest{
		ReagentID: "rg-1",
		Values:    map[string]string{"Гемоглобин": "135"},
	}, "usr-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConcurrentModification))
	assert.Equal(t, 3, f.tx.calls)
}

func TestResultServiceGetOrderResult(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusCompleted)
	resultID := "res-1"
	f.orders.orders["ord-1"].ResultID = &resultID
	f.results.results["ord-1"] = &models.LabResult{
		ID:      "res-1",
		OrderID: "ord-1",
		Entries: models.ResultEntries{{ParameterName: "Гемоглобин", Value: "135"}},
	}

	view, err := f.svc.GetOrderResult(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, labtest.TypeBloodCount, view.TestType)
	require.NotNil(t, view.Result)
	assert.Equal(t, "res-1", view.Result.ID)
}

func TestResultServiceClassify(t *testing.T) {
	f := newResultFixture(t, models.OrderStatusPending)

	view, err := f.svc.Classify(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, labtest.TypeBloodCount, view.TestType)
	assert.Len(t, view.Schema.Parameters, 12)
	assert.Nil(t, view.Result)

	_, err = f.svc.Classify(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
