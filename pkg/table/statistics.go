package table

import (
	"fmt"

	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/stats"
)

// Statistics describes every column over rows and counts its most frequent
// values. topN holds the number of values to keep per column. Enum columns
// resolve labels through reverseEnumMaps; the k-th DateTime column is
// bucketed by timeIntervals[k]; Float64 columns are counted in ranges between
// their minimum and maximum.
//
// It panics when types, topN or timeIntervals lack an entry for a column.
func (t *Table) Statistics(rows []int, types []schema.ColumnType, reverseEnumMaps map[int]map[uint64][]string, timeIntervals []uint32, topN []uint32) []stats.ColumnStatistics {
	timer := metrics.NewTimer("statistics")
	defer timer.ObserveQuery()

	out := make([]stats.ColumnStatistics, len(t.columns))
	datetimes := 0
	for i, c := range t.columns {
		if i >= len(types) {
			panic(fmt.Sprintf("table: no column type for column %d", i))
		}
		if i >= len(topN) {
			panic(fmt.Sprintf("table: no top N number for column %d", i))
		}
		ct, n := types[i], topN[i]

		desc := stats.Describe(c, rows, ct)
		var nl stats.NLargestCount
		switch ct {
		case schema.Enum:
			nl = stats.NLargestEnum(c, rows, reverseEnumMaps[i], n)
		case schema.DateTime:
			if datetimes >= len(timeIntervals) {
				panic(fmt.Sprintf("table: no time interval for datetime column %d", i))
			}
			nl = stats.NLargestDateTime(c, rows, timeIntervals[datetimes], n)
			datetimes++
		case schema.Float64:
			if desc.Min != nil && desc.Max != nil {
				nl = stats.NLargestFloat64(c, rows, n, desc.Min.Float, desc.Max.Float)
			}
		default:
			nl = stats.NLargest(c, rows, ct, n)
		}
		out[i] = stats.ColumnStatistics{Description: desc, NLargestCount: nl}
	}
	return out
}
