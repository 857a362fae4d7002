package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
	"github.com/cetinnova/registro-escolar/pkg/export"
)

// Roster export formats.
const (
	RosterFormatXLSX = "xlsx"
	RosterFormatCSV  = "csv"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

type rosterLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

type workbookRenderer interface {
	Render(students []models.Student) ([]byte, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RosterFile is a rendered roster ready to download.
type RosterFile struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// RosterExportService renders the filtered student roster.
type RosterExportService struct {
	students rosterLister
	workbook workbookRenderer
	csv      datasetRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewRosterExportService constructs the export service with the default renderers.
func NewRosterExportService(students rosterLister, workbook workbookRenderer, csv datasetRenderer, logger *zap.Logger) *RosterExportService {
	if workbook == nil {
		workbook = export.NewWorkbookExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterExportService{students: students, workbook: workbook, csv: csv, logger: logger, now: time.Now}
}

// Export renders the students matching filter. An empty roster is reported
// as NO_DATA instead of producing an empty file.
func (s *RosterExportService) Export(ctx context.Context, filter models.StudentFilter, format string) (*RosterFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = RosterFormatXLSX
	}
	if format != RosterFormatXLSX && format != RosterFormatCSV {
		return nil, appErrors.Validation("formato de exportación no soportado")
	}

	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, appErrors.ErrNoData
	}

	file := &RosterFile{Rows: len(students)}
	switch format {
	case RosterFormatCSV:
		file.Data, err = s.csv.Render(export.RosterDataset(students))
		file.Filename = export.RosterCSVFilename(s.now())
		file.ContentType = contentTypeCSV
	default:
		file.Data, err = s.workbook.Render(students)
		file.Filename = export.RosterFilename(s.now())
		file.ContentType = contentTypeXLSX
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "no se pudo generar el reporte")
	}

	s.logger.Info("roster exported", zap.String("format", format), zap.Int("rows", file.Rows))
	return file, nil
}
