package table

import (
	"cmp"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/stats"
)

// CountGroupBy buckets the selected rows by the DateTime column byColumn in
// intervals of byInterval seconds and totals each counted column per bucket.
// Counting byColumn itself counts rows; counting an Int64 column sums its
// values with negatives taken as zero. Other counted columns are skipped.
// Buckets totalling zero are left out and series ascend by bucket.
//
// Only DateTime bucketing with a non-zero interval is supported; anything else
// returns nil.
func (t *Table) CountGroupBy(rows []int, types []schema.ColumnType, byColumn int, byInterval uint32, countColumns []int) []stats.GroupCount {
	timer := metrics.NewTimer("count_group_by")
	defer timer.ObserveQuery()

	by := t.Column(byColumn)
	if by == nil || byColumn >= len(types) || types[byColumn] != schema.DateTime || byInterval == 0 {
		logger.Debug("count_group_by not applicable",
			zap.Int("by_column", byColumn),
			zap.Uint32("by_interval", byInterval))
		return nil
	}

	n := t.NumRows()
	valid := make([]int, 0, len(rows))
	for _, r := range rows {
		if r >= 0 && r < n {
			valid = append(valid, r)
		}
	}
	buckets, err := stats.ConvertTimeIntervals(by, valid, byInterval)
	if err != nil {
		logger.Debug("count_group_by bucketing column is not int64", zap.Error(err))
		return nil
	}

	var out []stats.GroupCount
	for _, idx := range countColumns {
		c := t.Column(idx)
		if c == nil {
			continue
		}
		totals := make(map[int64]int64)
		switch {
		case idx == byColumn:
			for _, b := range buckets {
				totals[b]++
			}
		case idx < len(types) && types[idx] == schema.Int64:
			seq, err := columnar.Select[int64](c, valid)
			if err != nil {
				continue
			}
			i := 0
			for v := range seq {
				totals[buckets[i]] += max(v, 0)
				i++
			}
		default:
			continue
		}

		series := make([]stats.GroupElementCount, 0, len(totals))
		for b, total := range totals {
			if total == 0 {
				continue
			}
			series = append(series, stats.GroupElementCount{
				Value: stats.GroupElement{DateTime: time.Unix(b, 0).UTC()},
				Count: total,
			})
		}
		if len(series) == 0 {
			continue
		}
		slices.SortFunc(series, func(a, b stats.GroupElementCount) int {
			return cmp.Compare(a.Value.DateTime.Unix(), b.Value.DateTime.Unix())
		})

		gc := stats.GroupCount{Series: series}
		if idx != byColumn {
			gc.CountIndex = &idx
		}
		out = append(out, gc)
	}
	return out
}
