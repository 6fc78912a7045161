package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sino-med/hms-lab-api/internal/models"
	"github.com/sino-med/hms-lab-api/pkg/config"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
	"github.com/sino-med/hms-lab-api/pkg/export"
)

const reagentListCacheKey = "lab:reagents:views"

// timeNow is stubbed in tests to pin status derivation.
var timeNow = time.Now

type reagentRepo interface {
	FindByID(ctx context.Context, id string) (*models.ReagentLot, error)
	List(ctx context.Context) ([]models.ReagentLot, error)
	ListUsage(ctx context.Context, reagentID string, limit int) ([]models.ReagentUsage, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ReagentService is the read side of the reagent ledger: derived status,
// per-test price and the usage audit trail. All lot readers go through here
// rather than holding their own copy of lot state.
type ReagentService struct {
	reagents reagentRepo
	cache    viewCache
	metrics  cacheMetrics
	cfg      config.ReagentConfig
	csv      *export.CSVExporter
	logger   *zap.Logger
}

// NewReagentService constructs ReagentService.
func NewReagentService(reagents reagentRepo, cache viewCache, metrics cacheMetrics, cfg config.ReagentConfig, logger *zap.Logger) *ReagentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LowStockRatio <= 0 {
		cfg.LowStockRatio = 0.2
	}
	if cfg.ExpiryWarnDays <= 0 {
		cfg.ExpiryWarnDays = 30
	}
	return &ReagentService{reagents: reagents, cache: cache, metrics: metrics, cfg: cfg, csv: export.NewCSVExporter(), logger: logger}
}

// Derive computes the ledger view of one lot at the given instant. Status
// precedence: expired beats depleted beats low_stock beats active. The badge
// overloads "running out" and "expiring soon"; both causes are also reported
// separately.
func (s *ReagentService) Derive(lot models.ReagentLot, now time.Time) models.ReagentView {
	view := models.ReagentView{
		ReagentLot:   lot,
		PricePerTest: lot.PricePerTest(),
	}
	if lot.TotalTests > 0 {
		ratio := float64(lot.RemainingTests) / float64(lot.TotalTests)
		view.LowOnStock = ratio <= s.cfg.LowStockRatio
	}
	daysToExpiry := lot.ExpiryDate.Sub(now).Hours() / 24
	view.ExpiringSoon = daysToExpiry >= 0 && daysToExpiry <= float64(s.cfg.ExpiryWarnDays)

	switch {
	case now.After(lot.ExpiryDate):
		view.Status = models.ReagentStatusExpired
	case lot.RemainingTests == 0:
		view.Status = models.ReagentStatusDepleted
	case view.LowOnStock || view.ExpiringSoon:
		view.Status = models.ReagentStatusLowStock
	default:
		view.Status = models.ReagentStatusActive
	}
	return view
}

// List returns derived lot views, optionally filtered by status badge.
func (s *ReagentService) List(ctx context.Context, statusFilter models.ReagentStatus) ([]models.ReagentView, error) {
	views, err := s.loadViews(ctx)
	if err != nil {
		return nil, err
	}
	if statusFilter == "" {
		return views, nil
	}
	filtered := make([]models.ReagentView, 0, len(views))
	for _, v := range views {
		if v.Status == statusFilter {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

// Get returns the derived view of one lot.
func (s *ReagentService) Get(ctx context.Context, id string) (*models.ReagentView, error) {
	lot, err := s.reagents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reagent lot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reagent lot")
	}
	view := s.Derive(*lot, timeNow().UTC())
	return &view, nil
}

// Usage returns the append-only consumption ledger of one lot.
func (s *ReagentService) Usage(ctx context.Context, id string, limit int) ([]models.ReagentUsage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	usage, err := s.reagents.ListUsage(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load usage history")
	}
	return usage, nil
}

// ExportCSV renders the current inventory as CSV.
func (s *ReagentService) ExportCSV(ctx context.Context) ([]byte, error) {
	views, err := s.loadViews(ctx)
	if err != nil {
		return nil, err
	}
	headers := []string{"Name", "Country", "Expiry", "Total", "Remaining", "PricePerTest", "Status"}
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, map[string]string{
			"Name":         v.Name,
			"Country":      v.Country,
			"Expiry":       v.ExpiryDate.Format("2006-01-02"),
			"Total":        fmt.Sprintf("%d", v.TotalTests),
			"Remaining":    fmt.Sprintf("%d", v.RemainingTests),
			"PricePerTest": fmt.Sprintf("%d", v.PricePerTest),
			"Status":       string(v.Status),
		})
	}
	payload, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render inventory export")
	}
	return payload, nil
}

func (s *ReagentService) loadViews(ctx context.Context) ([]models.ReagentView, error) {
	if s.cache != nil {
		start := timeNow()
		var cached []models.ReagentView
		err := s.cache.Get(ctx, reagentListCacheKey, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return cached, nil
		}
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("reagent cache read failed", zap.Error(err))
		}
	}

	lots, err := s.reagents.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reagent lots")
	}
	now := timeNow().UTC()
	views := make([]models.ReagentView, 0, len(lots))
	for _, lot := range lots {
		views = append(views, s.Derive(lot, now))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, reagentListCacheKey, views, s.cfg.ListCacheTTL); err != nil {
			s.logger.Warn("reagent cache write failed", zap.Error(err))
		}
	}
	return views, nil
}
