package stats

import (
	"iter"
	"slices"
	"time"

	mstats "github.com/montanaflynn/stats"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Description summarizes the selected rows of one column.
type Description struct {
	Count        int      `json:"count"`
	Mean         *float64 `json:"mean"`
	StdDeviation *float64 `json:"s_deviation"`
	Min          *Element `json:"min"`
	Max          *Element `json:"max"`
}

// Describe counts the selected rows of c that exist. Numeric columns also get
// the mean and population standard deviation; numeric, DateTime and IpAddr
// columns get the minimum and maximum. A column whose storage does not match
// t yields a zero Description.
func Describe(c *columnar.Column, rows []int, t schema.ColumnType) Description {
	switch t {
	case schema.Int64:
		seq, err := columnar.Select[int64](c, rows)
		if err != nil {
			return Description{}
		}
		return describeNumeric(seq, IntElement)
	case schema.Float64:
		seq, err := columnar.Select[float64](c, rows)
		if err != nil {
			return Description{}
		}
		return describeNumeric(seq, FloatElement)
	case schema.DateTime:
		seq, err := columnar.Select[int64](c, rows)
		if err != nil {
			return Description{}
		}
		return describeRange(seq, func(v int64) Element {
			return DateTimeElement(time.Unix(v, 0))
		})
	case schema.IpAddr:
		seq, err := columnar.Select[uint32](c, rows)
		if err != nil {
			return Description{}
		}
		return describeRange(seq, func(v uint32) Element { return IPElement(ipv4(v)) })
	default:
		n := 0
		for _, r := range rows {
			if r >= 0 && r < c.Len() {
				n++
			}
		}
		return Description{Count: n}
	}
}

type number interface {
	~int64 | ~uint32 | ~float64
}

func describeRange[T number](seq iter.Seq[T], elem func(T) Element) Description {
	var d Description
	var lo, hi T
	for v := range seq {
		if d.Count == 0 || v < lo {
			lo = v
		}
		if d.Count == 0 || v > hi {
			hi = v
		}
		d.Count++
	}
	if d.Count > 0 {
		minE, maxE := elem(lo), elem(hi)
		d.Min, d.Max = &minE, &maxE
	}
	return d
}

func describeNumeric[T int64 | float64](seq iter.Seq[T], elem func(T) Element) Description {
	var vals []T
	for v := range seq {
		vals = append(vals, v)
	}
	d := describeRange(slices.Values(vals), elem)
	data := make(mstats.Float64Data, len(vals))
	for i, v := range vals {
		data[i] = float64(v)
	}
	if mean, err := mstats.Mean(data); err == nil {
		d.Mean = &mean
	}
	if sd, err := mstats.StandardDeviationPopulation(data); err == nil {
		d.StdDeviation = &sd
	}
	return d
}
