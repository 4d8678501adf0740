package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/export"
)

// ExportFormat enumerates result sheet encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

const (
	colRollNumber     = "Roll Number"
	colStudent        = "Student"
	colGradePoints    = "Grade Points"
	colMaxGradePoints = "Max Grade Points"
	colSGPA           = "SGPA"
)

type semesterGradeRowReader interface {
	ListRowsBySemester(ctx context.Context, semesterID string) ([]models.SemesterGradeRow, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
}

// ExportResult is a rendered result sheet ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders semester result sheets.
type ExportService struct {
	rows      semesterGradeRowReader
	semesters semesterLookup
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(rows semesterGradeRowReader, semesters semesterLookup, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Semester Results"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rows: rows, semesters: semesters, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// SemesterResults renders every semester grade of a semester in the requested format.
func (s *ExportService) SemesterResults(ctx context.Context, semesterID string, format ExportFormat) (*ExportResult, error) {
	if semesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semesterId is required")
	}
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}
	rows, err := s.rows.ListRowsBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load semester grades")
	}
	dataset := buildSemesterDataset(rows)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("%s - %s", s.cfg.Title, semester.Name))
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("semester results exported",
		zap.String("semester_id", semesterID),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
	)
	return &ExportResult{
		Filename:    buildFilename(semester, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func buildSemesterDataset(rows []models.SemesterGradeRow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{colRollNumber, colStudent, colGradePoints, colMaxGradePoints, colSGPA},
		Numeric: map[string]bool{colGradePoints: true, colMaxGradePoints: true, colSGPA: true},
	}
	sum := 0.0
	for _, row := range rows {
		sum += row.SGPA
		dataset.Rows = append(dataset.Rows, map[string]string{
			colRollNumber:     row.RollNumber,
			colStudent:        row.StudentName,
			colGradePoints:    fmt.Sprintf("%.2f", row.GradePoints),
			colMaxGradePoints: fmt.Sprintf("%.2f", row.MaxGradePoints),
			colSGPA:           fmt.Sprintf("%.2f", row.SGPA),
		})
	}
	dataset.Notes = append(dataset.Notes, fmt.Sprintf("Students: %d", len(rows)))
	if len(rows) > 0 {
		dataset.Notes = append(dataset.Notes, fmt.Sprintf("Average SGPA: %.2f", sum/float64(len(rows))))
	}
	return dataset
}

func buildFilename(semester *models.Semester, format ExportFormat) string {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(semester.Name), " ", "-"))
	if name == "" {
		name = fmt.Sprintf("semester-%d", semester.Number)
	}
	return fmt.Sprintf("results-%s-%s.%s", name, time.Now().UTC().Format("20060102"), format)
}
