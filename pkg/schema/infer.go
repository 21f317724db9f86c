package schema

import (
	"strconv"

	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/strings"
)

// Inferrer guesses column types from sample records.
type Inferrer struct {
	// SampleSize caps the records inspected; zero inspects all of them.
	SampleSize int
	// ConfidenceThreshold is the share of non-empty values the dominant type
	// must reach; below it the column falls back to Utf8.
	ConfidenceThreshold float64
	// EnumCardinality is the highest distinct-value ratio for which a text
	// column is treated as an enum.
	EnumCardinality float64
}

// NewInferrer returns an inferrer with the default thresholds.
func NewInferrer() *Inferrer {
	return &Inferrer{
		SampleSize:          1000,
		ConfidenceThreshold: 0.95,
		EnumCardinality:     0.1,
	}
}

// Infer returns one column type per field of the widest sampled record.
func (e *Inferrer) Infer(records []csv.Record) []ColumnType {
	if e.SampleSize > 0 && len(records) > e.SampleSize {
		records = records[:e.SampleSize]
	}
	width := 0
	for _, rec := range records {
		width = max(width, rec.Len())
	}
	out := make([]ColumnType, width)
	for col := range out {
		out[col] = e.inferColumn(records, col)
	}
	return out
}

func (e *Inferrer) inferColumn(records []csv.Record, col int) ColumnType {
	counts := make(map[ColumnType]int)
	distinct := make(map[string]struct{})
	nonEmpty := 0
	for _, rec := range records {
		b, ok := rec.Get(col)
		if !ok || len(b) == 0 {
			continue
		}
		nonEmpty++
		counts[detectValueType(b)]++
		if _, seen := distinct[strings.BytesToString(b)]; !seen {
			distinct[string(b)] = struct{}{}
		}
	}
	if nonEmpty == 0 {
		return Utf8
	}

	dominant, best := Utf8, 0
	for _, t := range []ColumnType{Int64, Float64, DateTime, IpAddr, Utf8, Binary} {
		if counts[t] > best {
			dominant, best = t, counts[t]
		}
	}
	// Integers mixed with decimals are floats.
	if dominant == Int64 || dominant == Float64 {
		best = counts[Int64] + counts[Float64]
		if counts[Float64] > 0 {
			dominant = Float64
		}
	}
	if float64(best)/float64(nonEmpty) < e.ConfidenceThreshold {
		dominant = Utf8
	}
	if dominant == Utf8 && len(records) > 1 &&
		float64(len(distinct))/float64(nonEmpty) <= e.EnumCardinality {
		return Enum
	}
	return dominant
}

// detectValueType detects the type of a single value
func detectValueType(b []byte) ColumnType {
	s := strings.BytesToString(b)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int64
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return Float64
	}
	if _, err := csv.ParseIPv4(b); err == nil {
		return IpAddr
	}
	if _, err := csv.ParseTimestamp(b); err == nil {
		return DateTime
	}
	for _, c := range b {
		if c < 0x20 && c != '\t' || c == 0x7f {
			return Binary
		}
	}
	return Utf8
}
