package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sino-med/hms-lab-api/internal/labtest"
	"github.com/sino-med/hms-lab-api/internal/models"
	"github.com/sino-med/hms-lab-api/internal/repository"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
)

type submissionOrderReader interface {
	FindByID(ctx context.Context, id string) (*models.LabOrder, error)
}

type submissionReagentReader interface {
	FindByID(ctx context.Context, id string) (*models.ReagentLot, error)
}

type resultReader interface {
	FindByOrderID(ctx context.Context, orderID string) (*models.LabResult, error)
}

type submitter interface {
	Submit(ctx context.Context, rec repository.SubmissionRecord) (*models.LabResult, error)
}

type cacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// SubmitResultRequest is the payload for recording an order's result. Values
// are keyed by schema parameter name; FreeText is used only when the derived
// schema has no fixed parameters. Units and reference ranges are never
// accepted from the client.
type SubmitResultRequest struct {
	ReagentID string            `json:"reagent_id" validate:"required"`
	Values    map[string]string `json:"values"`
	FreeText  string            `json:"free_text"`
	Notes     string            `json:"notes"`
}

// OrderResultView combines an order with its classification and, when
// present, the persisted result.
type OrderResultView struct {
	Order    models.LabOrder   `json:"order"`
	TestType labtest.TestType  `json:"test_type"`
	Schema   labtest.Schema    `json:"schema"`
	Result   *models.LabResult `json:"result,omitempty"`
}

// ResultService orchestrates the result submission transaction.
type ResultService struct {
	orders    submissionOrderReader
	reagents  submissionReagentReader
	results   resultReader
	tx        submitter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	retries   int
}

// NewResultService constructs ResultService. retries bounds the automatic
// replays of the transaction after a CONCURRENT_MODIFICATION conflict.
func NewResultService(orders submissionOrderReader, reagents submissionReagentReader, results resultReader, tx submitter, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger, retries int) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries <= 0 {
		retries = 3
	}
	return &ResultService{orders: orders, reagents: reagents, results: results, tx: tx, cache: cache, validator: validate, logger: logger, retries: retries}
}

// Submit validates preconditions, builds schema-bound entries and runs the
// atomic submission. A failed submission leaves order, result and ledger
// untouched.
func (s *ResultService) Submit(ctx context.Context, orderID string, req SubmitResultRequest, createdBy string) (*models.LabResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if err := s.checkReagent(ctx, req.ReagentID); err != nil {
			return nil, err
		}

		// The schema is always re-derived from the order's test name; a
		// client-supplied tag is never trusted.
		schema := labtest.SchemaForName(order.TestName)
		entries, freeText, err := buildEntries(schema, req)
		if err != nil {
			return nil, err
		}

		result, err := s.tx.Submit(ctx, repository.SubmissionRecord{
			OrderID:        order.ID,
			PatientID:      order.PatientID,
			ReagentID:      req.ReagentID,
			ExpectedStatus: order.Status,
			Entries:        entries,
			FreeText:       freeText,
			Notes:          req.Notes,
			CreatedBy:      createdBy,
		})
		if err != nil {
			if appErrors.Is(err, appErrors.ErrConcurrentModification) {
				lastErr = err
				s.logger.Warn("submission conflict, retrying",
					zap.String("order_id", orderID),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Delete(ctx, reagentListCacheKey); err != nil {
				s.logger.Warn("failed to invalidate reagent cache", zap.Error(err))
			}
		}
		s.logger.Info("result submitted",
			zap.String("order_id", order.ID),
			zap.String("result_id", result.ID),
			zap.String("reagent_id", req.ReagentID),
			zap.String("test_type", string(schema.Type)))
		return result, nil
	}
	return nil, lastErr
}

// GetOrderResult returns the order together with its classification and the
// stored result when one exists.
func (s *ResultService) GetOrderResult(ctx context.Context, orderID string) (*OrderResultView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	view := &OrderResultView{
		Order:    *order,
		TestType: labtest.Classify(order.TestName),
	}
	view.Schema = labtest.SchemaFor(view.TestType)
	if order.ResultID != nil {
		result, err := s.results.FindByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
		}
		view.Result = result
	}
	return view, nil
}

// Classify returns the tag and schema the entry form should render for an
// order, without touching any persisted result.
func (s *ResultService) Classify(ctx context.Context, orderID string) (*OrderResultView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	tag := labtest.Classify(order.TestName)
	return &OrderResultView{Order: *order, TestType: tag, Schema: labtest.SchemaFor(tag)}, nil
}

func (s *ResultService) loadOrder(ctx context.Context, orderID string) (*models.LabOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	if order.ResultID != nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSubmission,
			fmt.Sprintf("order %s already has a result", order.OrderNumber))
	}
	if !order.Status.AllowsSubmission() {
		return nil, appErrors.Clone(appErrors.ErrOrderNotReady,
			fmt.Sprintf("order is %q, results require sample_collected or in_progress", order.Status))
	}
	return order, nil
}

func (s *ResultService) checkReagent(ctx context.Context, reagentID string) error {
	lot, err := s.reagents.FindByID(ctx, reagentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrReagentUnavailable, "reagent lot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reagent lot")
	}
	now := timeNow()
	switch {
	case now.After(lot.ExpiryDate):
		return appErrors.Clone(appErrors.ErrReagentUnavailable, fmt.Sprintf("reagent lot %s is expired", lot.Name))
	case lot.RemainingTests < 1:
		return appErrors.Clone(appErrors.ErrReagentUnavailable, fmt.Sprintf("reagent lot %s is depleted", lot.Name))
	}
	return nil
}

// buildEntries pairs submitted values to the schema by parameter name,
// carries unit and normal range over from the registry and drops entries
// with empty values. At least one non-empty value (or a non-empty free-text
// blob for free-text schemas) is required.
func buildEntries(schema labtest.Schema, req SubmitResultRequest) (models.ResultEntries, string, error) {
	if schema.FreeText {
		blob := strings.TrimSpace(req.FreeText)
		if blob == "" {
			return nil, "", appErrors.Clone(appErrors.ErrNoResultData, "free-text result is empty")
		}
		return nil, blob, nil
	}

	entries := make(models.ResultEntries, 0, len(schema.Parameters))
	for _, def := range schema.Parameters {
		value := strings.TrimSpace(req.Values[def.Name])
		if value == "" {
			continue
		}
		entries = append(entries, models.ResultEntry{
			ParameterName: def.Name,
			Value:         value,
			Unit:          def.Unit,
			NormalRange:   def.NormalRange,
		})
	}
	if len(entries) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrNoResultData, "no parameter values provided")
	}
	return entries, "", nil
}
