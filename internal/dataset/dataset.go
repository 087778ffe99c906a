// Package dataset holds the ordered, in-memory collection of log entries the
// editor works on.
package dataset

import (
	"fmt"

	"github.com/etl76/etl/internal/model"
)

const (
	// NotMoved is returned by MoveUp and MoveDown when nothing was swapped.
	NotMoved = -1
	// NoSelection is returned by RemoveAt when the dataset became empty.
	NoSelection = -1
)

// IndexError reports a position outside the current bounds.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("dataset: %s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// Dataset is an ordered sequence of records. Insertion order is the file
// order. It is not safe for concurrent use.
type Dataset struct {
	records []*model.Record
	dirty   bool
}

// New returns a dataset holding records in the given order.
func New(records ...*model.Record) *Dataset {
	d := &Dataset{records: append([]*model.Record(nil), records...)}
	d.Refresh()
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the record at index.
func (d *Dataset) At(index int) (*model.Record, error) {
	if err := d.check("at", index); err != nil {
		return nil, err
	}
	return d.records[index], nil
}

// Instances returns the live ordered records with their transient indexes
// refreshed. Callers must not modify the returned slice.
func (d *Dataset) Instances() []*model.Record {
	d.Refresh()
	return d.records
}

// Refresh sets every record's transient index to its current position.
func (d *Dataset) Refresh() {
	for i, r := range d.records {
		r.SetDatasetIndex(i)
	}
}

// Append adds r at the end.
func (d *Dataset) Append(r *model.Record) {
	r.SetDatasetIndex(len(d.records))
	d.records = append(d.records, r)
	d.dirty = true
}

// InsertAt inserts r at the position stored in its transient index, clamped
// to [0, Len()], and returns the position used.
func (d *Dataset) InsertAt(r *model.Record) int {
	pos := min(max(r.DatasetIndex(), 0), len(d.records))
	d.records = append(d.records, nil)
	copy(d.records[pos+1:], d.records[pos:])
	d.records[pos] = r
	d.Refresh()
	d.dirty = true
	return pos
}

// RemoveAt removes the record at index and returns the index to select next,
// or NoSelection when the dataset is now empty.
func (d *Dataset) RemoveAt(index int) (int, error) {
	if err := d.check("remove", index); err != nil {
		return NoSelection, err
	}
	d.records[index].SetDatasetIndex(NoSelection)
	d.records = append(d.records[:index], d.records[index+1:]...)
	d.Refresh()
	d.dirty = true
	if len(d.records) == 0 {
		return NoSelection, nil
	}
	return min(index, len(d.records)-1), nil
}

// ReplaceAt puts r in the slot at index.
func (d *Dataset) ReplaceAt(index int, r *model.Record) error {
	if err := d.check("replace", index); err != nil {
		return err
	}
	d.records[index] = r
	r.SetDatasetIndex(index)
	d.dirty = true
	return nil
}

// MoveUp swaps the record at index with its predecessor and returns its new
// index, or NotMoved when it is already first.
func (d *Dataset) MoveUp(index int) (int, error) {
	if err := d.check("move up", index); err != nil {
		return NotMoved, err
	}
	if index == 0 {
		return NotMoved, nil
	}
	d.swap(index, index-1)
	return index - 1, nil
}

// MoveDown swaps the record at index with its successor and returns its new
// index, or NotMoved when it is already last.
func (d *Dataset) MoveDown(index int) (int, error) {
	if err := d.check("move down", index); err != nil {
		return NotMoved, err
	}
	if index == len(d.records)-1 {
		return NotMoved, nil
	}
	d.swap(index, index+1)
	return index + 1, nil
}

// Clear releases all records.
func (d *Dataset) Clear() {
	if len(d.records) > 0 {
		d.dirty = true
	}
	d.records = nil
}

// Reset replaces the whole content and marks the dataset clean. Loading uses
// it to swap in a fully parsed file.
func (d *Dataset) Reset(records []*model.Record) {
	d.records = records
	d.Refresh()
	d.dirty = false
}

// Dirty reports whether the dataset changed since the last Reset or MarkClean.
func (d *Dataset) Dirty() bool {
	return d.dirty
}

// MarkClean records that the content is persisted.
func (d *Dataset) MarkClean() {
	d.dirty = false
}

func (d *Dataset) swap(i, j int) {
	d.records[i], d.records[j] = d.records[j], d.records[i]
	d.records[i].SetDatasetIndex(i)
	d.records[j].SetDatasetIndex(j)
	d.dirty = true
}

func (d *Dataset) check(op string, index int) error {
	if index < 0 || index >= len(d.records) {
		return &IndexError{Op: op, Index: index, Len: len(d.records)}
	}
	return nil
}
