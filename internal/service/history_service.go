package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sino-med/hms-lab-api/internal/models"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
	"github.com/sino-med/hms-lab-api/pkg/export"
)

type historyRepo interface {
	PatientSummary(ctx context.Context, patientID string) (*models.PatientHistoryRow, error)
	PatientResults(ctx context.Context, patientID string) ([]models.PatientResultRow, error)
}

// PatientHistory is the read-only projection of a patient's completed tests.
type PatientHistory struct {
	Summary models.PatientHistoryRow  `json:"summary"`
	Results []models.PatientResultRow `json:"results"`
}

// HistoryService aggregates completed results per patient. It consumes the
// write path's output and produces no state of its own.
type HistoryService struct {
	results historyRepo
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewHistoryService constructs HistoryService.
func NewHistoryService(results historyRepo, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{results: results, pdf: export.NewPDFExporter(), logger: logger}
}

// History returns the projection for one patient. A patient with no
// completed tests yields an empty summary rather than an error.
func (s *HistoryService) History(ctx context.Context, patientID string) (*PatientHistory, error) {
	summary, err := s.results.PatientSummary(ctx, patientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &PatientHistory{Summary: models.PatientHistoryRow{PatientID: patientID}}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient summary")
	}
	rows, err := s.results.PatientResults(ctx, patientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load patient results")
	}
	return &PatientHistory{Summary: *summary, Results: rows}, nil
}

// ReportPDF renders the patient's completed tests as a plain tabular PDF.
func (s *HistoryService) ReportPDF(ctx context.Context, patientID string) ([]byte, error) {
	history, err := s.History(ctx, patientID)
	if err != nil {
		return nil, err
	}
	headers := []string{"Order", "Test", "Parameter", "Value", "Unit", "Range", "Date"}
	var rows []map[string]string
	for _, res := range history.Results {
		date := res.CreatedAt.Format("2006-01-02")
		if len(res.Entries) == 0 {
			rows = append(rows, map[string]string{
				"Order": res.OrderNumber, "Test": res.TestName, "Date": date,
			})
			continue
		}
		for _, entry := range res.Entries {
			rows = append(rows, map[string]string{
				"Order":     res.OrderNumber,
				"Test":      res.TestName,
				"Parameter": entry.ParameterName,
				"Value":     entry.Value,
				"Unit":      entry.Unit,
				"Range":     entry.NormalRange,
				"Date":      date,
			})
		}
	}
	title := fmt.Sprintf("Lab history %s", patientID)
	payload, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render history report")
	}
	return payload, nil
}
