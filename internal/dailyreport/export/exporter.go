package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
	"github.com/dailyflow/dailyflow/internal/observability"
)

// ErrNoReports is returned when the area has no reports in the work week.
var ErrNoReports = errors.New("export: no reports in work week")

// Content types of the produced files.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportSource reads the rows of an area.
type ReportSource interface {
	FetchAreaReports(ctx context.Context, areaID uuid.UUID, from, to time.Time) ([]dailyreport.ReportRow, error)
}

// DocumentRenderer produces HTML for a document.
type DocumentRenderer interface {
	Render(doc Document) ([]byte, error)
}

// PDFConverter turns HTML into PDF bytes.
type PDFConverter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Request selects the area and the work week containing Reference.
type Request struct {
	AreaID    uuid.UUID
	Reference time.Time
}

// Result is a finished export ready to be sent or stored.
type Result struct {
	Filename    string
	ContentType string
	Body        []byte
	Week        dailyreport.Week
	AreaName    string
	Reports     int
}

// ExporterConfig wires an Exporter.
type ExporterConfig struct {
	Source   ReportSource
	Images   ImageSource
	Renderer DocumentRenderer
	PDF      PDFConverter
	Location *time.Location
	Metrics  *observability.ExportMetrics
	Logger   *slog.Logger
}

// Exporter runs the weekly area pipeline: window, query, inline, group,
// render.
type Exporter struct {
	source   ReportSource
	images   ImageSource
	renderer DocumentRenderer
	pdf      PDFConverter
	location *time.Location
	metrics  *observability.ExportMetrics
	logger   *slog.Logger
}

// NewExporter constructs an Exporter.
func NewExporter(cfg ExporterConfig) *Exporter {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		source:   cfg.Source,
		images:   cfg.Images,
		renderer: cfg.Renderer,
		pdf:      cfg.PDF,
		location: loc,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Location is the zone work weeks are computed in.
func (e *Exporter) Location() *time.Location {
	return e.location
}

// ExportPDF builds the weekly PDF for an area.
func (e *Exporter) ExportPDF(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() { e.observe("pdf", start, err) }()

	week, rows, err := e.load(ctx, req)
	if err != nil {
		return Result{}, err
	}
	var images map[uuid.UUID][]Image
	if e.images != nil {
		images = InlineReports(ctx, e.images, rows)
	}
	doc := BuildDocument(rows[0].AreaName, week, dailyreport.GroupByEmployee(rows), images, e.location)
	html, err := e.renderer.Render(doc)
	if err != nil {
		return Result{}, fmt.Errorf("render document: %w", err)
	}
	pdf, err := e.pdf.RenderHTML(ctx, html)
	if err != nil {
		return Result{}, fmt.Errorf("convert to pdf: %w", err)
	}
	return Result{
		Filename:    dailyreport.ExportFilename(doc.AreaName, week, "pdf"),
		ContentType: ContentTypePDF,
		Body:        pdf,
		Week:        week,
		AreaName:    doc.AreaName,
		Reports:     len(rows),
	}, nil
}

// ExportXLSX builds the weekly spreadsheet for an area. Images are counted,
// not embedded.
func (e *Exporter) ExportXLSX(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() { e.observe("xlsx", start, err) }()

	week, rows, err := e.load(ctx, req)
	if err != nil {
		return Result{}, err
	}
	doc := BuildDocument(rows[0].AreaName, week, dailyreport.GroupByEmployee(rows), nil, e.location)
	body, err := WriteXLSX(doc)
	if err != nil {
		return Result{}, fmt.Errorf("write xlsx: %w", err)
	}
	return Result{
		Filename:    dailyreport.ExportFilename(doc.AreaName, week, "xlsx"),
		ContentType: ContentTypeXLSX,
		Body:        body,
		Week:        week,
		AreaName:    doc.AreaName,
		Reports:     len(rows),
	}, nil
}

func (e *Exporter) load(ctx context.Context, req Request) (dailyreport.Week, []dailyreport.ReportRow, error) {
	ref := req.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	week := dailyreport.WorkWeek(ref.In(e.location))
	rows, err := e.source.FetchAreaReports(ctx, req.AreaID, week.Start, week.End)
	if err != nil {
		return week, nil, fmt.Errorf("fetch area reports: %w", err)
	}
	if len(rows) == 0 {
		return week, nil, ErrNoReports
	}
	return week, rows, nil
}

func (e *Exporter) observe(format string, start time.Time, err error) {
	outcome := observability.OutcomeOK
	switch {
	case errors.Is(err, ErrNoReports):
		outcome = observability.OutcomeEmpty
	case err != nil:
		outcome = observability.OutcomeError
	}
	e.metrics.ObserveExport(format, outcome, time.Since(start))
}
