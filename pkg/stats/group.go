package stats

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/strata/pkg/columnar"
)

// ConvertTimeIntervals returns, for each selected row of a timestamp column,
// the start of its interval-second bucket. Rows outside the column are
// skipped. An interval of zero leaves timestamps unchanged.
func ConvertTimeIntervals(c *columnar.Column, rows []int, interval uint32) ([]int64, error) {
	seq, err := columnar.Select[int64](c, rows)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for ts := range seq {
		out = append(out, floorInterval(ts, int64(interval)))
	}
	return out, nil
}

func floorInterval(ts, interval int64) int64 {
	if interval <= 1 {
		return ts
	}
	m := ts % interval
	if m < 0 {
		m += interval
	}
	return ts - m
}

// GroupElement is the key of a group-by bucket.
type GroupElement struct {
	DateTime time.Time
}

// MarshalJSON encodes the key as {"DateTime":"2006-01-02T15:04:05"}.
func (g GroupElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"DateTime": g.DateTime.UTC().Format("2006-01-02T15:04:05")})
}

// GroupElementCount is the total of one bucket.
type GroupElementCount struct {
	Value GroupElement `json:"value"`
	Count int64        `json:"count"`
}

// GroupCount is the bucket series of one counted column. CountIndex is nil
// when the series counts rows of the grouping column itself.
type GroupCount struct {
	CountIndex *int                `json:"count_index"`
	Series     []GroupElementCount `json:"series"`
}
