// Package importer converts activity exports from other services and older
// log formats into log entries.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/etl76/etl/internal/model"
)

// SourceImport marks entries that came from an import without a more
// specific origin.
const SourceImport = "import"

// newRecord returns the template every importer starts from.
func newRecord() *model.Record {
	return &model.Record{
		Year:      2020,
		Month:     1,
		Day:       1,
		When:      12*3600 + 30*60,
		Phase:     1,
		Activity:  "rest",
		Intensity: "fartlek",
		Source:    SourceImport,
	}
}

func setStart(r *model.Record, t time.Time) {
	r.Year = uint(t.Year())
	r.Month = uint(t.Month())
	r.Day = uint(t.Day())
	r.When = uint(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// LineError locates a row of an export that could not be converted.
type LineError struct {
	Format string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s: line %d: %v", e.Format, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// table reads a headed CSV export and looks cells up by column name.
type table struct {
	format  string
	reader  *csv.Reader
	columns map[string]int
	row     []string
	line    int
}

func newTable(format string, r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty export", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", format, err)
	}
	t := &table{format: format, reader: cr, columns: make(map[string]int, len(header))}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		t.columns[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := t.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing column(s): %s", format, strings.Join(missing, ", "))
	}
	return t, nil
}

// next advances to the following row and reports whether there is one.
func (t *table) next() (bool, error) {
	row, err := t.reader.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", t.format, err)
	}
	t.row = row
	t.line, _ = t.reader.FieldPos(0)
	return true, nil
}

func (t *table) get(name string) string {
	i, ok := t.columns[name]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

func (t *table) fail(err error) error {
	return &LineError{Format: t.format, Line: t.line, Err: err}
}

// number parses an optional decimal cell; empty and "None" read as zero.
func (t *table) number(name string) (float64, error) {
	s := t.get(name)
	if s == "" || s == "None" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, s)
	}
	return v, nil
}

// truncate converts a non-negative decimal to uint, dropping the fraction.
func truncate(v float64) uint {
	if v <= 0 {
		return 0
	}
	return uint(v)
}
