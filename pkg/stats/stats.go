// Package stats computes descriptive statistics and value frequencies over a
// selection of rows of a column.
//
// Every kernel reads through columnar.Select, so rows outside the column are
// ignored and a column whose storage does not match the requested type
// produces an empty result instead of an error.
package stats

// ColumnStatistics is the summary of one column.
type ColumnStatistics struct {
	Description   Description   `json:"description"`
	NLargestCount NLargestCount `json:"n_largest_count"`
}
