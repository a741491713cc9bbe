package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
)

// Exit codes returned by ExportCommand.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitFailure   = 2
	ExitNoReports = 10
)

// Exporter produces weekly area files.
type Exporter interface {
	ExportPDF(ctx context.Context, req export.Request) (export.Result, error)
	ExportXLSX(ctx context.Context, req export.Request) (export.Result, error)
}

// ExportOptions configures a one-off export to disk.
type ExportOptions struct {
	AreaID     string
	Week       string
	Format     string
	OutDir     string
	JSONOutput bool
	Location   *time.Location
	Now        func() time.Time
	Stdout     io.Writer
	Stderr     io.Writer
}

// ExportSummary is printed after a successful export.
type ExportSummary struct {
	Path      string `json:"path"`
	Area      string `json:"area"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Reports   int    `json:"reports"`
	Bytes     int    `json:"bytes"`
}

// ExportCommand renders one area week and writes it under OutDir. It returns
// a process exit code.
func ExportCommand(ctx context.Context, exporter Exporter, opts ExportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	areaID, err := uuid.Parse(strings.TrimSpace(opts.AreaID))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "invalid area id %q\n", opts.AreaID)
		return ExitUsage
	}
	ref := opts.Now().In(opts.Location)
	if opts.Week != "" {
		ref, err = time.ParseInLocation("2006-01-02", opts.Week, opts.Location)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "invalid week %q, expected YYYY-MM-DD\n", opts.Week)
			return ExitUsage
		}
	}

	var run func(context.Context, export.Request) (export.Result, error)
	switch strings.ToLower(opts.Format) {
	case "", "pdf":
		run = exporter.ExportPDF
	case "xlsx":
		run = exporter.ExportXLSX
	default:
		fmt.Fprintf(opts.Stderr, "unsupported format %q\n", opts.Format)
		return ExitUsage
	}

	res, err := run(ctx, export.Request{AreaID: areaID, Reference: ref})
	if err != nil {
		if errors.Is(err, export.ErrNoReports) {
			fmt.Fprintln(opts.Stderr, "no reports in that work week")
			return ExitNoReports
		}
		fmt.Fprintf(opts.Stderr, "export failed: %v\n", err)
		return ExitFailure
	}

	dir := opts.OutDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(opts.Stderr, "create output dir: %v\n", err)
		return ExitFailure
	}
	path := filepath.Join(dir, res.Filename)
	if err := os.WriteFile(path, res.Body, 0o644); err != nil {
		fmt.Fprintf(opts.Stderr, "write %s: %v\n", path, err)
		return ExitFailure
	}

	summary := ExportSummary{
		Path:      path,
		Area:      res.AreaName,
		WeekStart: res.Week.Start.Format("2006-01-02"),
		WeekEnd:   res.Week.End.Format("2006-01-02"),
		Reports:   res.Reports,
		Bytes:     len(res.Body),
	}
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(opts.Stderr, "encode summary: %v\n", err)
			return ExitFailure
		}
		return ExitOK
	}
	fmt.Fprintf(opts.Stdout, "%s: %d reports (%s a %s) -> %s\n", summary.Area, summary.Reports, summary.WeekStart, summary.WeekEnd, summary.Path)
	return ExitOK
}
