package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"bazaar-items/internal/items"
	"bazaar-items/lib/wiki"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bazaar/fetcher")
var meter = otel.Meter("bazaar/fetcher")

var ErrNoPages = errors.New("no pages fetched")

// PartPattern matches the files written by Fetch.
const PartPattern = "itemsPart*.csv"

// Source is implemented by *wiki.Client.
type Source interface {
	AskCSV(ctx context.Context, q wiki.AskQuery) ([]byte, int, error)
}

type Options struct {
	WorkDir string
	// the first page, later pages advance the offset by Query.Limit
	Query wiki.AskQuery
	Pages int
}

type Result struct {
	// paths of the written parts, in page order
	Parts []string
	Rows  int
	// pages that returned an error or a non-200 status
	Skipped int
}

// PartPath returns the path page n (one based) is written to.
func PartPath(workDir string, n int) string {
	return filepath.Join(workDir, fmt.Sprintf("itemsPart%d.csv", n))
}

// Fetch downloads up to opts.Pages pages of the export into opts.WorkDir.
// Failed pages are logged and skipped, fetching stops at the first page that
// has no rows. An error is only returned when no page could be written.
func Fetch(ctx context.Context, src Source, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	err := os.MkdirAll(opts.WorkDir, 0o755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create work dir")
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}

	rowsFetched, _ := meter.Int64Counter("items.fetched_rows")

	var result Result
	var pageErrs []error
	for i := 0; i < opts.Pages; i++ {
		q := opts.Query.Page(i)
		log := slog.With("page", i+1, "offset", q.Offset)

		body, status, err := src.AskCSV(ctx, q)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err != nil {
			log.WarnContext(ctx, "failed to fetch page", "err", err)
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", i+1, err))
			result.Skipped++
			continue
		}
		if status != http.StatusOK {
			log.WarnContext(ctx, "skipping page", "status", status)
			pageErrs = append(pageErrs, fmt.Errorf("page %d: status %d", i+1, status))
			result.Skipped++
			continue
		}

		table, err := items.ReadCSV(bytes.NewReader(body))
		if err != nil {
			log.WarnContext(ctx, "page is not valid csv", "err", err)
			pageErrs = append(pageErrs, fmt.Errorf("page %d: %w", i+1, err))
			result.Skipped++
			continue
		}
		if len(table.Rows) == 0 {
			log.InfoContext(ctx, "reached the end of the export")
			break
		}

		path := PartPath(opts.WorkDir, i+1)
		err = os.WriteFile(path, body, 0o644)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write part")
			return result, fmt.Errorf("write %s: %w", path, err)
		}

		log.InfoContext(ctx, "fetched page", "rows", len(table.Rows), "path", path)
		result.Parts = append(result.Parts, path)
		result.Rows += len(table.Rows)
		if rowsFetched != nil {
			rowsFetched.Add(ctx, int64(len(table.Rows)))
		}
	}

	span.SetAttributes(
		attribute.Int("parts", len(result.Parts)),
		attribute.Int("rows", result.Rows),
	)

	if len(result.Parts) == 0 {
		err = ErrNoPages
		if len(pageErrs) > 0 {
			err = fmt.Errorf("%w: %w", ErrNoPages, errors.Join(pageErrs...))
		}
		span.SetStatus(codes.Error, "no pages fetched")
		return result, err
	}
	return result, nil
}
