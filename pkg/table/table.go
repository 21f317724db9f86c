// Package table holds event data as equally long chunked columns and answers
// queries over selections of rows.
//
// A Table is built by one goroutine and may then be read concurrently.
// Append requires exclusive access to both tables.
package table

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
)

// Table is a set of columns of equal length with an index from event id to
// row.
type Table struct {
	schema   *arrow.Schema
	columns  []*columnar.Column
	eventIDs map[uint64]int
}

// New creates a table. It fails when the columns differ in length. A table
// without columns has no rows and ignores eventIDs.
func New(schema *arrow.Schema, columns []*columnar.Column, eventIDs map[uint64]int) (*Table, error) {
	if len(columns) == 0 {
		return &Table{schema: schema, eventIDs: make(map[uint64]int)}, nil
	}
	n := columns[0].Len()
	for i, c := range columns[1:] {
		if c.Len() != n {
			return nil, errors.Newf(errors.ErrorTypeSchema,
				"columns must have the same length: column 0 has %d rows, column %d has %d", n, i+1, c.Len()).
				WithDetail("column", i+1)
		}
	}
	if eventIDs == nil {
		eventIDs = make(map[uint64]int)
	}
	return &Table{schema: schema, columns: columns, eventIDs: eventIDs}, nil
}

// Append moves every row of other into t, leaving other empty. Event ids of
// other are shifted by the rows t held before. The schemas must match; only
// the column storage types are verified, before anything moves. A table
// without columns adopts the schema and columns of other.
func (t *Table) Append(other *Table) error {
	if other == t {
		return errors.New(errors.ErrorTypeSchema, "cannot append a table to itself")
	}
	if len(t.columns) == 0 {
		t.schema, t.columns, t.eventIDs = other.schema, other.columns, other.eventIDs
		other.columns, other.eventIDs = nil, make(map[uint64]int)
		return nil
	}
	if len(other.columns) != len(t.columns) {
		return errors.Newf(errors.ErrorTypeSchema, "cannot append %d columns to %d", len(other.columns), len(t.columns))
	}
	for i, c := range other.columns {
		have, got := t.columns[i].DataType(), c.DataType()
		if have != nil && got != nil && !arrow.TypeEqual(have, got) {
			return errors.Wrap(&columnar.TypeError{Want: have, Got: got}, errors.ErrorTypeTypeMismatch,
				fmt.Sprintf("column %d", i)).WithDetail("column", i)
		}
	}

	base := t.NumRows()
	for i, c := range other.columns {
		if err := t.columns[i].Append(c); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, fmt.Sprintf("column %d", i))
		}
	}
	for id, row := range other.eventIDs {
		t.eventIDs[id] = base + row
	}
	other.eventIDs = make(map[uint64]int)
	return nil
}

// Schema returns the Arrow schema the table was created with.
func (t *Table) Schema() *arrow.Schema { return t.schema }

// Columns returns the columns. The slice must not be modified.
func (t *Table) Columns() []*columnar.Column { return t.columns }

// Column returns column i, or nil when i is out of range.
func (t *Table) Column(i int) *columnar.Column {
	if i < 0 || i >= len(t.columns) {
		return nil
	}
	return t.columns[i]
}

func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the length of the columns.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// EventIndex returns the row of an event.
func (t *Table) EventIndex(eventID uint64) (int, bool) {
	row, ok := t.eventIDs[eventID]
	return row, ok
}

// EventRows returns the rows of the events that exist in t.
func (t *Table) EventRows(events []uint64) *roaring.Bitmap {
	bm := roaring.New()
	for _, id := range events {
		if row, ok := t.eventIDs[id]; ok {
			bm.Add(uint32(row))
		}
	}
	return bm
}

// Rows converts a row bitmap into an ascending selection.
func Rows(bm *roaring.Bitmap) []int {
	rows := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}

// AllRows returns every row of t in order.
func (t *Table) AllRows() []int {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// Release releases the memory of every column.
func (t *Table) Release() {
	for _, c := range t.columns {
		c.Release()
	}
	t.columns = nil
}

type resolved struct {
	event uint64
	row   int
}

// resolve keeps the events that have a row, in request order.
func (t *Table) resolve(events []uint64) []resolved {
	out := make([]resolved, 0, len(events))
	for _, id := range events {
		if row, ok := t.eventIDs[id]; ok {
			out = append(out, resolved{event: id, row: row})
		}
	}
	return out
}
