package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestParseSubstitutionsCounter(t *testing.T) {
	before := testutil.ToFloat64(ParseSubstitutions.WithLabelValues("int64"))
	ParseSubstitutions.WithLabelValues("int64").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ParseSubstitutions.WithLabelValues("int64")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("statistics")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
	assert.Equal(t, "statistics", timer.Name())

	timer.ObserveQuery()
	assert.Equal(t, 1, testutil.CollectAndCount(QueryLatency))
}
