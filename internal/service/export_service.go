package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/export"
)

type departmentTenderLister interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Tender, error)
}

// ExportFile is a rendered register ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the per-department tender register as CSV or PDF.
type ExportService struct {
	tenders departmentTenderLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(tenders departmentTenderLister, logger *zap.Logger) *ExportService {
	return &ExportService{
		tenders: tenders,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

var registerHeaders = []string{
	"Reference", "Title", "Stage", "Contractor", "Amount", "Created", "Awarded",
}

// TenderRegister renders a department's tender register. Only platform
// admins and the department's own admins may export it.
func (s *ExportService) TenderRegister(ctx context.Context, actor *models.Actor, departmentID, format string) (*ExportFile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnidentified
	}
	if actor.Role != models.RolePlatformAdmin && !actor.AdministersDepartment(&departmentID) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule export.REGISTER")
	}

	tenders, err := s.tenders.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "load tender register")
	}
	dataset := export.Dataset{Headers: registerHeaders, Rows: make([]map[string]string, 0, len(tenders))}
	for i := range tenders {
		dataset.Rows = append(dataset.Rows, registerRow(&tenders[i]))
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Internal(err, "render csv register")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tender-register-%s-%s.csv", departmentID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Tender Register")
		if err != nil {
			return nil, appErrors.Internal(err, "render pdf register")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tender-register-%s-%s.pdf", departmentID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func registerRow(t *models.Tender) map[string]string {
	row := map[string]string{
		"Reference": t.Reference,
		"Title":     t.Title,
		"Stage":     string(t.WorkflowStage),
		"Created":   t.CreatedAt.Format("2006-01-02"),
	}
	if t.AwardedContractorID != nil {
		row["Contractor"] = *t.AwardedContractorID
	}
	if t.AwardedAmount != nil {
		row["Amount"] = strconv.FormatFloat(*t.AwardedAmount, 'f', 2, 64)
	}
	if t.AwardedAt != nil {
		row["Awarded"] = t.AwardedAt.Format("2006-01-02")
	}
	return row
}
