package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sino-med/hms-lab-api/internal/models"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
)

type orderRepo interface {
	FindByID(ctx context.Context, id string) (*models.LabOrder, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.LabOrder, int, error)
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
	Approve(ctx context.Context, id string) (bool, error)
}

// OrderService drives the order state machine. Every persisted transition is
// guarded by the expected current status so concurrent callers cannot both
// win the same move.
type OrderService struct {
	orders orderRepo
	logger *zap.Logger
}

// NewOrderService constructs OrderService.
func NewOrderService(orders orderRepo, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, logger: logger}
}

// Get returns a single order.
func (s *OrderService) Get(ctx context.Context, id string) (*models.LabOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return order, nil
}

// List returns orders with pagination metadata.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.LabOrder, *models.Pagination, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return orders, pagination, nil
}

// CollectSample marks the physical sample as taken. The UI opens the result
// entry flow off the back of this transition.
func (s *OrderService) CollectSample(ctx context.Context, id string) (*models.LabOrder, error) {
	return s.transition(ctx, id, models.OrderStatusSampleCollected)
}

// StartProcessing moves an order into in_progress. Optional: submission is
// also allowed straight from sample_collected.
func (s *OrderService) StartProcessing(ctx context.Context, id string) (*models.LabOrder, error) {
	return s.transition(ctx, id, models.OrderStatusInProgress)
}

// Cancel cancels an order. Allowed from any non-approved state.
func (s *OrderService) Cancel(ctx context.Context, id string) (*models.LabOrder, error) {
	return s.transition(ctx, id, models.OrderStatusCancelled)
}

// Approve finalises a completed order. Role enforcement happens at the
// route; here only the state machine is checked.
func (s *OrderService) Approve(ctx context.Context, id string) (*models.LabOrder, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, models.OrderStatusApproved) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot approve order in status %q, want %q", order.Status, models.OrderStatusCompleted))
	}
	ok, err := s.orders.Approve(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve order")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConcurrentModification, "order changed before approval was recorded")
	}
	s.logger.Info("order approved", zap.String("order_id", id))
	return s.Get(ctx, id)
}

func (s *OrderService) transition(ctx context.Context, id string, to models.OrderStatus) (*models.LabOrder, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot move order from %q to %q", order.Status, to))
	}
	ok, err := s.orders.TransitionStatus(ctx, id, order.Status, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConcurrentModification, "order status changed concurrently")
	}
	s.logger.Info("order transitioned",
		zap.String("order_id", id),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)))
	return s.Get(ctx, id)
}
