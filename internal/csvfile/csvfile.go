// Package csvfile loads and saves a dataset as a comma-space separated file
// with one header line.
package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/etl76/etl/internal/model"
)

// ErrNoHeader is returned for a file without a header line.
var ErrNoHeader = errors.New("csvfile: missing header line")

// SchemaError lists mandatory columns absent from a header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "csvfile: missing mandatory column(s): " + strings.Join(e.Missing, ", ")
}

// RowError locates a cell that could not be parsed.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csvfile: line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// binding maps each canonical column to its position in the file, or -1.
type binding []int

const utf8BOM = "\ufeff"

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bindHeader(header []string, logger *slog.Logger) (binding, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		key := normalizeName(name)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	b := make(binding, len(model.Columns))
	used := make(map[int]bool, len(header))
	var missing []string
	for ci, col := range model.Columns {
		b[ci] = -1
		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if pos, ok := positions[name]; ok {
				b[ci] = pos
				used[pos] = true
				break
			}
		}
		if b[ci] < 0 && !col.Optional {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	for i, name := range header {
		if !used[i] {
			logger.Debug("ignoring unknown column", "column", strings.TrimSpace(strings.TrimPrefix(name, utf8BOM)))
		}
	}
	return b, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// Read parses a header line and all data lines. Unknown columns are ignored
// and optional columns missing from the header read as zero values.
func Read(r io.Reader, logger *slog.Logger) ([]*model.Record, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cr := newReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csvfile: read header: %w", err)
	}
	b, err := bindHeader(header, logger)
	if err != nil {
		return nil, err
	}

	var records []*model.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvfile: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec := &model.Record{}
		for ci, col := range model.Columns {
			pos := b[ci]
			if pos < 0 {
				continue
			}
			var cell string
			if pos < len(row) {
				cell = row[pos]
			}
			if err := col.Parse(rec, cell); err != nil {
				return nil, &RowError{Line: line, Column: col.Name, Err: err}
			}
		}
		rec.SetDatasetIndex(len(records))
		records = append(records, rec)
	}
	return records, nil
}

// Write emits the canonical header and one line per record.
func Write(w io.Writer, records []*model.Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(model.Header() + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString(r.ToCsvRow()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
