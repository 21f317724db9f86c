package stats

import (
	"cmp"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// FloatBuckets is the number of equal-width ranges float columns are counted in.
const FloatBuckets = 100

// ElementCount is a value and the number of selected rows holding it.
type ElementCount struct {
	Value Element `json:"value"`
	Count int     `json:"count"`
}

// NLargestCount holds the most frequent values of a column.
type NLargestCount struct {
	// NumberOfElements is the number of distinct values before truncation.
	NumberOfElements int            `json:"number_of_elements"`
	TopN             []ElementCount `json:"top_n"`
	Mode             *Element       `json:"mode"`
}

// NLargest counts the distinct values of the selected rows of c and keeps
// the n most frequent. Enum columns are rendered as decimal codes; use
// NLargestEnum to resolve labels. Float64 columns count exact values;
// NLargestFloat64 counts ranges.
func NLargest(c *columnar.Column, rows []int, t schema.ColumnType, n uint32) NLargestCount {
	switch t {
	case schema.Int64:
		return countSelected(c, rows, n, IntElement)
	case schema.Float64:
		return countSelected(c, rows, n, FloatElement)
	case schema.DateTime:
		return countSelected(c, rows, n, func(v int64) Element {
			return DateTimeElement(time.Unix(v, 0))
		})
	case schema.IpAddr:
		return countSelected(c, rows, n, func(v uint32) Element { return IPElement(ipv4(v)) })
	case schema.Enum:
		return NLargestEnum(c, rows, nil, n)
	case schema.Utf8:
		return countSelected(c, rows, n, TextElement)
	case schema.Binary:
		seq, err := columnar.Select[[]byte](c, rows)
		if err != nil {
			return NLargestCount{}
		}
		strs := func(yield func(string) bool) {
			for b := range seq {
				if !yield(string(b)) {
					return
				}
			}
		}
		return largest(countValues(strs), n, func(s string) Element {
			return BinaryElement([]byte(s))
		})
	}
	return NLargestCount{}
}

// NLargestEnum counts dictionary codes stored as uint32 or uint64.
// reverse maps a code to its labels, joined with "|" when there are several;
// codes missing from reverse are rendered in decimal.
func NLargestEnum(c *columnar.Column, rows []int, reverse map[uint64][]string, n uint32) NLargestCount {
	var counts map[uint64]int
	if seq, err := columnar.Select[uint32](c, rows); err == nil {
		counts = make(map[uint64]int)
		for v := range seq {
			counts[uint64(v)]++
		}
	} else if seq, err := columnar.Select[uint64](c, rows); err == nil {
		counts = countValues(seq)
	} else {
		return NLargestCount{}
	}
	return largest(counts, n, func(code uint64) Element {
		if labels, ok := reverse[code]; ok {
			return EnumElement(strings.Join(labels, "|"))
		}
		return EnumElement(strconv.FormatUint(code, 10))
	})
}

// NLargestDateTime counts the selected timestamps truncated to interval
// seconds.
func NLargestDateTime(c *columnar.Column, rows []int, interval uint32, n uint32) NLargestCount {
	buckets, err := ConvertTimeIntervals(c, rows, interval)
	if err != nil {
		return NLargestCount{}
	}
	return largest(countValues(slices.Values(buckets)), n, func(v int64) Element {
		return DateTimeElement(time.Unix(v, 0))
	})
}

// NLargestFloat64 splits [lo, hi] into FloatBuckets equal ranges and
// counts the selected values per range. Values outside the bounds fall into
// the first or last range.
func NLargestFloat64(c *columnar.Column, rows []int, n uint32, lo, hi float64) NLargestCount {
	seq, err := columnar.Select[float64](c, rows)
	if err != nil {
		return NLargestCount{}
	}
	width := (hi - lo) / FloatBuckets
	idx := func(yield func(int) bool) {
		for v := range seq {
			i := 0
			if width > 0 {
				i = int(math.Floor((v - lo) / width))
				i = max(0, min(i, FloatBuckets-1))
			}
			if !yield(i) {
				return
			}
		}
	}
	return largest(countValues(idx), n, func(i int) Element {
		return RangeElement(lo+float64(i)*width, lo+float64(i+1)*width)
	})
}

func countSelected[T comparable](c *columnar.Column, rows []int, n uint32, elem func(T) Element) NLargestCount {
	seq, err := columnar.Select[T](c, rows)
	if err != nil {
		return NLargestCount{}
	}
	return largest(countValues(seq), n, elem)
}

func countValues[T comparable](seq iter.Seq[T]) map[T]int {
	counts := make(map[T]int)
	for v := range seq {
		counts[v]++
	}
	return counts
}

// largest orders counts by frequency, highest first, breaking ties by value.
func largest[T comparable](counts map[T]int, n uint32, elem func(T) Element) NLargestCount {
	if len(counts) == 0 {
		return NLargestCount{}
	}
	all := make([]ElementCount, 0, len(counts))
	for v, cnt := range counts {
		all = append(all, ElementCount{Value: elem(v), Count: cnt})
	}
	slices.SortFunc(all, func(a, b ElementCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return Compare(a.Value, b.Value)
	})
	mode := all[0].Value
	return NLargestCount{
		NumberOfElements: len(all),
		TopN:             all[:min(len(all), int(n))],
		Mode:             &mode,
	}
}
