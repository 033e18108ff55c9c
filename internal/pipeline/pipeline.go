package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bazaar-items/internal/cleaner"
	"bazaar-items/internal/exporter"
	"bazaar-items/internal/fetcher"
	"bazaar-items/internal/merger"
	"bazaar-items/lib/wiki"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bazaar/pipeline")

type Options struct {
	WorkDir string
	Query   wiki.AskQuery
	Pages   int
	Clean   cleaner.Options
	// items json destinations
	JSON   []string
	SQLite []exporter.SQLiteTarget
	// skips deleting the csv files in WorkDir
	KeepIntermediate bool
}

type Result struct {
	Fetch fetcher.Result
	Clean cleaner.Report
	// number of exported items
	Items int
}

// Run downloads, merges, cleans and exports the item table. A failure to
// write the json or sqlite output is returned, per-page and per-file
// failures are only logged.
func Run(ctx context.Context, src fetcher.Source, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	start := time.Now()
	slog.InfoContext(ctx, "starting item scrape", "pages", opts.Pages, "work_dir", opts.WorkDir)

	// parts left over from a kept run would be merged into this one
	if n := Cleanup(ctx, opts.WorkDir); n > 0 {
		slog.DebugContext(ctx, "removed stale csv files", "count", n)
	}

	var result Result
	fetched, err := fetcher.Fetch(ctx, src, fetcher.Options{
		WorkDir: opts.WorkDir,
		Query:   opts.Query,
		Pages:   opts.Pages,
	})
	result.Fetch = fetched
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return result, fmt.Errorf("fetch: %w", err)
	}

	combined, err := merger.Merge(ctx, opts.WorkDir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to merge")
		return result, fmt.Errorf("merge: %w", err)
	}

	records, report, err := cleaner.Clean(ctx, combined, opts.Clean)
	result.Clean = report
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clean")
		return result, fmt.Errorf("clean: %w", err)
	}
	slog.InfoContext(
		ctx, "cleaned items",
		"kept", report.Kept,
		"untradeable", report.Untradeable,
		"legacy", report.Legacy,
	)

	// the combined csv is replaced by its cleaned version
	err = exporter.WriteCSV(filepath.Join(opts.WorkDir, merger.CombinedName), records)
	if err != nil {
		slog.WarnContext(ctx, "failed to write cleaned csv", "err", err)
	}

	err = exporter.WriteJSON(ctx, opts.JSON, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write json")
		return result, err
	}
	err = exporter.ExportSQLite(ctx, opts.SQLite, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write sqlite")
		return result, err
	}
	result.Items = len(records)

	if !opts.KeepIntermediate {
		Cleanup(ctx, opts.WorkDir)
	}

	span.SetAttributes(attribute.Int("items", result.Items))
	slog.InfoContext(
		ctx, "item scrape complete",
		"items", result.Items,
		"seconds", time.Since(start).Seconds(),
	)
	return result, nil
}

// Cleanup deletes every csv file in workDir and returns how many were
// removed. Failures are logged per file.
func Cleanup(ctx context.Context, workDir string) int {
	files, err := filepath.Glob(filepath.Join(workDir, "*.csv"))
	if err != nil {
		slog.WarnContext(ctx, "failed to list csv files", "dir", workDir, "err", err)
		return 0
	}

	removed := 0
	for _, f := range files {
		err := os.Remove(f)
		switch {
		case err == nil:
			removed++
			slog.DebugContext(ctx, "deleted", "path", f)
		case errors.Is(err, fs.ErrNotExist):
			slog.WarnContext(ctx, "file not found", "path", f)
		case errors.Is(err, fs.ErrPermission):
			slog.WarnContext(ctx, "permission denied", "path", f)
		default:
			slog.WarnContext(ctx, "failed to delete", "path", f, "err", err)
		}
	}
	return removed
}
