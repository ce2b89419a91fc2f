package labeling

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/labels"
)

// ErrNothingToPrint is returned when the selection resolves to no assets.
var ErrNothingToPrint = errors.New("no assets selected for labels")

// RecordSource resolves selected asset tags to label records.
type RecordSource interface {
	LabelRecords(ctx context.Context, tags []string) ([]models.LabelRecord, error)
}

// Request selects assets and optionally overrides the sheet grid.
type Request struct {
	Tags []string     `json:"tags"`
	Grid *labels.Grid `json:"grid,omitempty"`
}

// Sheet is a rendered label document.
type Sheet struct {
	PDF      []byte
	Pages    int
	Labels   int
	Warnings []labels.Warning
}

// Service turns asset selections into printable label sheets.
type Service struct {
	records RecordSource
	writer  *labels.PDFWriter
	grid    labels.Grid
	style   labels.Style
	logger  *zap.Logger
}

// NewService wires a label service with the default grid used when a request has none.
func NewService(records RecordSource, writer *labels.PDFWriter, grid labels.Grid, logger *zap.Logger) (*Service, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records: records,
		writer:  writer,
		grid:    grid,
		style:   labels.DefaultStyle(),
		logger:  logger,
	}, nil
}

// BuildPDF lays out and renders labels for the requested assets.
func (s *Service) BuildPDF(ctx context.Context, req Request) (Sheet, error) {
	grid := s.grid
	if req.Grid != nil {
		grid = *req.Grid
	}

	records, err := s.records.LabelRecords(ctx, req.Tags)
	if err != nil {
		return Sheet{}, fmt.Errorf("resolve label records: %w", err)
	}
	if len(records) == 0 {
		return Sheet{}, ErrNothingToPrint
	}

	pages, err := labels.Layout(records, grid, s.style)
	if err != nil {
		return Sheet{}, err
	}

	pdf, warnings, err := s.writer.Render(pages, grid, s.style)
	if err != nil {
		return Sheet{}, err
	}

	s.logger.Info("label sheet rendered",
		zap.Int("labels", len(records)),
		zap.Int("pages", len(pages)),
		zap.Int("warnings", len(warnings)))

	return Sheet{
		PDF:      pdf,
		Pages:    len(pages),
		Labels:   len(records),
		Warnings: warnings,
	}, nil
}
