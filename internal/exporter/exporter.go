package exporter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bazaar-items/internal/items"
	"bazaar-items/lib/sqliteutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bazaar/exporter")

// SQLiteTarget is one SQLite destination of an export.
type SQLiteTarget struct {
	DB    sqliteutil.Config `json:"db"`
	Table string            `json:"table"`
	// adds an "id INTEGER PRIMARY KEY AUTOINCREMENT" column, the server
	// database has one, the client copy does not
	AutoincrementID bool `json:"autoincrement_id"`
}

func (t SQLiteTarget) table() string {
	if t.Table == "" {
		return "items"
	}
	return t.Table
}

// EncodeJSON writes records as a json array of objects indented by two
// spaces.
func EncodeJSON(w io.Writer, records []items.Item) error {
	if records == nil {
		records = []items.Item{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(records)
}

// writeFileAtomic replaces path with contents through a temporary file in
// the same directory, readers never see a partial file.
func writeFileAtomic(path string, contents []byte) error {
	dir := filepath.Dir(path)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(contents)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	err = os.Chmod(tmp.Name(), 0o644)
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	err = os.Rename(tmp.Name(), path)
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// WriteJSON writes records to every path, creating parent directories.
func WriteJSON(ctx context.Context, paths []string, records []items.Item) error {
	ctx, span := tracer.Start(ctx, "WriteJSON")
	defer span.End()

	var buf bytes.Buffer
	err := EncodeJSON(&buf, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode items")
		return fmt.Errorf("encode items: %w", err)
	}

	for _, path := range paths {
		err = writeFileAtomic(path, buf.Bytes())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write json")
			return fmt.Errorf("write %s: %w", path, err)
		}
		slog.InfoContext(ctx, "wrote items json", "path", path, "items", len(records))
	}
	return nil
}

// WriteCSV writes records to path in export column order.
func WriteCSV(path string, records []items.Item) error {
	var buf bytes.Buffer
	err := items.ToTable(records).WriteCSV(&buf)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func createTableSQL(table string, autoincrementID bool) string {
	columns := make([]string, 0, len(items.Columns)+1)
	if autoincrementID {
		columns = append(columns, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	}
	for _, c := range items.Columns {
		columns = append(columns, sqliteutil.QuoteIdent(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", sqliteutil.QuoteIdent(table), strings.Join(columns, ", "))
}

func insertSQL(table string) string {
	quoted := make([]string, len(items.Columns))
	placeholders := make([]string, len(items.Columns))
	for i, c := range items.Columns {
		quoted[i] = sqliteutil.QuoteIdent(c)
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqliteutil.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
}

// WriteSQLite replaces table in db with records inside a single
// transaction.
func WriteSQLite(ctx context.Context, db *sql.DB, table string, autoincrementID bool, records []items.Item) error {
	ctx, span := tracer.Start(ctx, "WriteSQLite")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", table),
		attribute.Int("items", len(records)),
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqliteutil.QuoteIdent(table))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to drop table")
		return fmt.Errorf("drop table: %w", err)
	}
	_, err = tx.ExecContext(ctx, createTableSQL(table, autoincrementID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create table")
		return fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to prepare insert")
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		values := r.Values()
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = v
		}
		_, err = stmt.ExecContext(ctx, args...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert item")
			return fmt.Errorf("insert %q: %w", r.Name, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit")
		return err
	}
	return nil
}

// ExportSQLite writes records to every target. Every target is attempted,
// the failures are joined.
func ExportSQLite(ctx context.Context, targets []SQLiteTarget, records []items.Item) error {
	var errs []error
	for _, target := range targets {
		err := exportTarget(ctx, target, records)
		if err != nil {
			slog.ErrorContext(ctx, "failed to write sqlite", "db", target.DB.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", target.DB.String(), err))
			continue
		}
		slog.InfoContext(ctx, "wrote items sqlite", "db", target.DB.String(), "table", target.table(), "items", len(records))
	}
	return errors.Join(errs...)
}

func exportTarget(ctx context.Context, target SQLiteTarget, records []items.Item) error {
	db, err := target.DB.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return WriteSQLite(ctx, db, target.table(), target.AutoincrementID, records)
}

// JSONToSQLite loads an items json file and writes it to targets.
func JSONToSQLite(ctx context.Context, jsonPath string, targets []SQLiteTarget) (int, error) {
	ctx, span := tracer.Start(ctx, "JSONToSQLite")
	defer span.End()

	records, err := items.ReadJSONFile(jsonPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read items json")
		return 0, fmt.Errorf("read %s: %w", jsonPath, err)
	}
	if len(records) == 0 {
		slog.WarnContext(ctx, "no items found in json", "path", jsonPath)
		return 0, nil
	}
	return len(records), ExportSQLite(ctx, targets, records)
}
