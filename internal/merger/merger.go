package merger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"bazaar-items/internal/fetcher"
	"bazaar-items/internal/items"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("bazaar/merger")

// CombinedName is the file the merged table is written to.
const CombinedName = "items_combined.csv"

// Concat stacks tables on top of each other. The header is the union of all
// headers in first-seen order, cells of columns a table does not have are
// left missing.
func Concat(tables ...*items.Table) *items.Table {
	out := &items.Table{}
	positions := map[string]int{}
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := positions[h]; ok {
				continue
			}
			positions[h] = len(out.Header)
			out.Header = append(out.Header, h)
		}
	}

	for _, t := range tables {
		for _, row := range t.Rows {
			merged := make(items.Row, len(out.Header))
			for i, h := range t.Header {
				merged[positions[h]] = row.Cell(i)
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// Parts returns the part files in workDir, sorted by page number.
func Parts(workDir string) ([]string, error) {
	parts, err := filepath.Glob(filepath.Join(workDir, fetcher.PartPattern))
	if err != nil {
		return nil, err
	}
	sort.Slice(parts, func(i, j int) bool {
		return partNumber(parts[i]) < partNumber(parts[j])
	})
	return parts, nil
}

func partNumber(path string) int {
	var n int
	_, err := fmt.Sscanf(filepath.Base(path), "itemsPart%d.csv", &n)
	if err != nil {
		return -1
	}
	return n
}

// Merge reads every part in workDir, concatenates them and writes the result
// to CombinedName in the same directory.
func Merge(ctx context.Context, workDir string) (*items.Table, error) {
	ctx, span := tracer.Start(ctx, "Merge")
	defer span.End()

	parts, err := Parts(workDir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no %s files in %s", fetcher.PartPattern, workDir)
	}

	tables := make([]*items.Table, 0, len(parts))
	for _, p := range parts {
		table, err := items.ReadCSVFile(p)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	combined := Concat(tables...)

	path := filepath.Join(workDir, CombinedName)
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	err = combined.WriteCSV(f)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	span.SetAttributes(
		attribute.Int("parts", len(parts)),
		attribute.Int("rows", len(combined.Rows)),
	)
	slog.InfoContext(ctx, "merged parts", "parts", len(parts), "rows", len(combined.Rows), "path", path)
	return combined, nil
}
