package table

import (
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/token"
)

// ColumnValues holds the rendered cells of one column.
type ColumnValues struct {
	Column   int                   `json:"column"`
	Messages *token.ColumnMessages `json:"messages"`
}

// ColumnValues renders, for every target column with a declared type, the
// cells of the events that exist in t. Cells that cannot be rendered are
// left out; a target column missing from t yields no messages.
func (t *Table) ColumnValues(events []uint64, types []schema.ColumnType, targets []int, flag token.ContentFlag) []ColumnValues {
	timer := metrics.NewTimer("column_values")
	defer timer.ObserveQuery()

	selected := t.resolve(events)
	out := make([]ColumnValues, 0, len(targets))
	for _, col := range targets {
		if col < 0 || col >= len(types) {
			continue
		}
		msg := token.NewColumnMessages()
		if c := t.Column(col); c != nil {
			for _, s := range selected {
				if v, ok := cellString(c, types[col], s.row); ok {
					msg.Add(s.event, v, flag)
				}
			}
		}
		out = append(out, ColumnValues{Column: col, Messages: msg})
	}
	return out
}

// ColumnRawContent renders the target columns of each event that exists in t.
// Every event gets one slot per target, in target order; a slot is nil when
// the column is missing or the cell cannot be rendered.
func (t *Table) ColumnRawContent(events []uint64, types []schema.ColumnType, targets []int) map[uint64][]*string {
	timer := metrics.NewTimer("column_raw_content")
	defer timer.ObserveQuery()

	selected := t.resolve(events)
	out := make(map[uint64][]*string, len(selected))
	for _, s := range selected {
		if _, dup := out[s.event]; dup {
			continue
		}
		slots := make([]*string, len(targets))
		for i, col := range targets {
			c := t.Column(col)
			if c == nil || col >= len(types) {
				continue
			}
			if v, ok := cellString(c, types[col], s.row); ok {
				slots[i] = &v
			}
		}
		out[s.event] = slots
	}
	return out
}
