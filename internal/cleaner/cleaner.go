package cleaner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"bazaar-items/internal/items"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("bazaar/cleaner")
var meter = otel.Meter("bazaar/cleaner")

var ErrMissingColumn = errors.New("missing column")

// names the unlabeled first column of a Special:Ask export can have, the
// last one is what a previously cleaned table uses
var nameColumns = []string{"", "Unnamed: 0", items.ColItems}

type Options struct {
	// prepended to every cleaned image filename
	AssetPrefix string `json:"asset_prefix"`
	// percent-encode the image filename after replacing spaces
	PercentEncode bool `json:"percent_encode"`
	// profession values rewritten to CombatName
	CombatAliases []string `json:"combat_aliases"`
	CombatName    string   `json:"combat_name"`
	// rows with this substring in any field are dropped
	LegacyMarker string `json:"legacy_marker"`
}

func DefaultOptions() Options {
	return Options{
		AssetPrefix:   "/assets/items/",
		CombatAliases: []string{"Hammermage", "Cryoknight", "Guardian"},
		CombatName:    "Combat",
		LegacyMarker:  "(Legacy)",
	}
}

// Report counts what happened to the rows of a single Clean call.
type Report struct {
	Input       int
	Kept        int
	Untradeable int
	Legacy      int
}

type columnIndexes struct {
	name             int
	image            int
	episode          int
	variantOf        int
	professionA      int
	professionLevelA int
	professionB      int
	professionLevelB int
	tradeable        int
}

func resolveColumns(table *items.Table) (columnIndexes, error) {
	idx := columnIndexes{name: -1}
	for _, name := range nameColumns {
		if i := table.Index(name); i >= 0 {
			idx.name = i
			break
		}
	}
	if idx.name < 0 {
		return idx, fmt.Errorf("%w: %q", ErrMissingColumn, "Unnamed: 0")
	}

	targets := []struct {
		column string
		dest   *int
	}{
		{items.ColImage, &idx.image},
		{items.ColEpisode, &idx.episode},
		{items.ColVariantOf, &idx.variantOf},
		{items.ColProfessionA, &idx.professionA},
		{items.ColProfessionLevelA, &idx.professionLevelA},
		{items.ColProfessionB, &idx.professionB},
		{items.ColProfessionLevelB, &idx.professionLevelB},
		{items.ColTradeable, &idx.tradeable},
	}
	for _, target := range targets {
		i := table.Index(target.column)
		if i < 0 {
			return idx, fmt.Errorf("%w: %q", ErrMissingColumn, target.column)
		}
		*target.dest = i
	}
	return idx, nil
}

// Clean projects a raw wiki table onto the item columns and normalizes every
// row. The result does not depend on anything but the table and opts, and
// cleaning an already cleaned table returns it unchanged.
func Clean(ctx context.Context, table *items.Table, opts Options) ([]items.Item, Report, error) {
	ctx, span := tracer.Start(ctx, "Clean")
	defer span.End()

	idx, err := resolveColumns(table)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve columns")
		return nil, Report{}, err
	}

	report := Report{Input: len(table.Rows)}
	out := make([]items.Item, 0, len(table.Rows))
	for _, row := range table.Rows {
		item := items.Item{
			Name:             cellValue(row.Cell(idx.name)),
			Image:            cleanImage(row.Cell(idx.image), opts),
			Episode:          fillNone(row.Cell(idx.episode)),
			VariantOf:        fillNone(row.Cell(idx.variantOf)),
			ProfessionA:      fillNone(row.Cell(idx.professionA)),
			ProfessionLevelA: fillNone(row.Cell(idx.professionLevelA)),
			ProfessionB:      fillNone(row.Cell(idx.professionB)),
			ProfessionLevelB: fillNone(row.Cell(idx.professionLevelB)),
			Tradeable:        items.TradeableUnknown,
		}
		if cell := row.Cell(idx.tradeable); cell.Valid {
			item.Tradeable = items.ParseTradeable(cell.Value)
		}

		if item.Tradeable.IsFalse() {
			report.Untradeable++
			continue
		}
		if isLegacy(item, opts.LegacyMarker) {
			report.Legacy++
			continue
		}

		item.ProfessionLevelA = stripDecimal(item.ProfessionLevelA)
		item.ProfessionLevelB = stripDecimal(item.ProfessionLevelB)
		item.ProfessionA = normalizeProfession(item.ProfessionA, opts)
		item.ProfessionB = normalizeProfession(item.ProfessionB, opts)

		out = append(out, item)
	}
	report.Kept = len(out)

	span.SetAttributes(
		attribute.Int("rows.input", report.Input),
		attribute.Int("rows.kept", report.Kept),
	)
	recordReport(ctx, report)
	slog.DebugContext(
		ctx, "cleaned item table",
		"input", report.Input,
		"kept", report.Kept,
		"untradeable", report.Untradeable,
		"legacy", report.Legacy,
	)

	return out, report, nil
}

func recordReport(ctx context.Context, report Report) {
	kept, err := meter.Int64Counter("items.kept")
	if err == nil {
		kept.Add(ctx, int64(report.Kept))
	}
	dropped, err := meter.Int64Counter("items.dropped")
	if err == nil {
		dropped.Add(ctx, int64(report.Untradeable), metric.WithAttributes(attribute.String("reason", "untradeable")))
		dropped.Add(ctx, int64(report.Legacy), metric.WithAttributes(attribute.String("reason", "legacy")))
	}
}

func cellValue(cell items.Cell) string {
	if !cell.Valid {
		return ""
	}
	return cell.Value
}

func fillNone(cell items.Cell) string {
	if !cell.Valid {
		return items.None
	}
	return cell.Value
}

func cleanImage(cell items.Cell, opts Options) string {
	if !cell.Valid {
		return ""
	}
	if opts.AssetPrefix != "" && strings.HasPrefix(cell.Value, opts.AssetPrefix) {
		return cell.Value
	}

	name := strings.ReplaceAll(cell.Value, "File:", "")
	name = strings.ReplaceAll(name, " ", "_")
	if opts.PercentEncode {
		name = url.QueryEscape(name)
	}
	return opts.AssetPrefix + name
}

func isLegacy(item items.Item, marker string) bool {
	if marker == "" {
		return false
	}
	for _, v := range item.Values() {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}

// stripDecimal truncates a numeric level toward zero, "12.0" becomes "12".
// Anything that does not parse as a finite number is returned as is.
func stripDecimal(value string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return value
	}
	truncated := math.Trunc(f)
	if truncated == 0 {
		// avoids "-0"
		return "0"
	}
	return strconv.FormatFloat(truncated, 'f', 0, 64)
}

func normalizeProfession(value string, opts Options) string {
	if slices.Contains(opts.CombatAliases, value) {
		return opts.CombatName
	}
	return value
}
