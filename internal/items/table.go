package items

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Cell is a single table value. Valid is false for cells the source left
// empty (or spelled as a missing-value marker), which keeps them apart from
// the literal string "None".
type Cell struct {
	Value string
	Valid bool
}

type Row []Cell

// Table is an in-memory CSV table with an ordered header.
type Table struct {
	Header []string
	Rows   []Row
}

// Index returns the position of column name in the header, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value of column idx in row, or an invalid cell when the
// row is shorter than the header.
func (r Row) Cell(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return Cell{}
	}
	return r[idx]
}

// values treated as missing when reading csv, the wiki export and
// spreadsheet tools emit these for empty properties
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-NaN":     {},
	"-nan":     {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw csv value denotes an absent value.
func IsMissing(raw string) bool {
	_, ok := missingMarkers[raw]
	return ok
}

const utf8BOM = "\ufeff"

// ReadCSV reads a csv document with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(table.Rows)+1, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}

		row := make(Row, len(header))
		for i := range header {
			if i >= len(record) {
				break
			}
			row[i] = Cell{Value: record[i], Valid: !IsMissing(record[i])}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadCSVFile is ReadCSV on the file at path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// WriteCSV writes the table with its header. Invalid cells are written
// empty.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	err := writer.Write(t.Header)
	if err != nil {
		return err
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			cell := row.Cell(i)
			record[i] = ""
			if cell.Valid {
				record[i] = cell.Value
			}
		}
		err = writer.Write(record)
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
