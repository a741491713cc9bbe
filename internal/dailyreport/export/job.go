package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
	jobmetrics "github.com/dailyflow/dailyflow/internal/jobs"
	"github.com/dailyflow/dailyflow/jobs"
)

const archiveJobName = "weekly_archive"

// AreaLister lists the areas to archive.
type AreaLister interface {
	ListAreas(ctx context.Context) ([]dailyreport.Area, error)
}

// PDFExporter produces the weekly PDF for an area.
type PDFExporter interface {
	ExportPDF(ctx context.Context, req Request) (Result, error)
}

// ArchiveJobConfig wires an ArchiveJob.
type ArchiveJobConfig struct {
	Exporter PDFExporter
	Areas    AreaLister
	Dir      string
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// ArchiveJob writes weekly area PDFs to disk from queued tasks.
type ArchiveJob struct {
	exporter PDFExporter
	areas    AreaLister
	dir      string
	location *time.Location
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewArchiveJob constructs an ArchiveJob.
func NewArchiveJob(cfg ArchiveJobConfig) *ArchiveJob {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "dailyflow-archive")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveJob{
		exporter: cfg.Exporter,
		areas:    cfg.Areas,
		dir:      dir,
		location: loc,
		logger:   logger,
		metrics:  cfg.Metrics,
		clock:    time.Now,
	}
}

// WithClock overrides the time source used when the payload has no reference.
func (j *ArchiveJob) WithClock(clock func() time.Time) *ArchiveJob {
	if clock != nil {
		j.clock = clock
	}
	return j
}

// Handle fulfils the asynq.HandlerFunc contract. Malformed payloads are not
// retried. Areas without reports are skipped. Failures on individual areas do
// not stop the others and are returned together so asynq retries the task.
func (j *ArchiveJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.exporter == nil || j.areas == nil {
		return errors.New("weekly archive job not configured")
	}
	var payload jobs.WeeklyArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		j.logger.Warn("weekly archive: bad payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	areaID, single, err := payload.Area()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	ref, err := payload.ReferenceIn(j.location, j.clock())
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	tracker := j.metrics.Track(archiveJobName)
	var areas []dailyreport.Area
	if single {
		areas = []dailyreport.Area{{ID: areaID}}
	} else {
		areas, err = j.areas.ListAreas(ctx)
		if err != nil {
			return tracker.End(fmt.Errorf("list areas: %w", err))
		}
	}

	var (
		failures []error
		written  int
		skipped  int
	)
	for _, area := range areas {
		path, err := j.archive(ctx, area.ID, ref)
		switch {
		case errors.Is(err, ErrNoReports):
			skipped++
		case err != nil:
			j.logger.Error("weekly archive: area failed", slog.String("area_id", area.ID.String()), slog.Any("error", err))
			failures = append(failures, fmt.Errorf("area %s: %w", area.ID, err))
		default:
			written++
			j.logger.Info("weekly archive written", slog.String("area_id", area.ID.String()), slog.String("file", path))
		}
	}
	j.metrics.AddArchived("written", written)
	j.metrics.AddArchived("skipped", skipped)
	j.metrics.AddArchived("failed", len(failures))
	return tracker.End(errors.Join(failures...))
}

func (j *ArchiveJob) archive(ctx context.Context, areaID uuid.UUID, ref time.Time) (string, error) {
	res, err := j.exporter.ExportPDF(ctx, Request{AreaID: areaID, Reference: ref})
	if err != nil {
		return "", err
	}
	return j.save(areaID, res)
}

// save writes res under <dir>/<area id>/<filename>. Area names that slug to the
// same text keep separate files because the directory is the area id.
func (j *ArchiveJob) save(areaID uuid.UUID, res Result) (string, error) {
	dir := filepath.Join(j.dir, areaID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".archive-*")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(res.Body); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	path := filepath.Join(dir, res.Filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
