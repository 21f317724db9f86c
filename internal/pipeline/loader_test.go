package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

var header = []string{"id", "ts", "ip", "level", "msg", "latency"}

var rows = [][]string{
	{"100", "2021-06-01T12:00:00", "10.0.0.1", "info", "started", "0.5"},
	{"101", "2021-06-01T12:00:30", "10.0.0.2", "warn", "slow disk", "1.5"},
	{"102", "2021-06-01T13:10:00", "10.0.0.1", "info", "request", "bad"},
	{"103", "2021-06-01T13:20:00", "10.0.0.3", "error", "failed", "2.0"},
	{"104", "2021-06-01T14:00:00", "10.0.0.1", "info", "stopped", ""},
}

func testConfig(path string) *config.Config {
	cfg := config.NewConfig("events")
	cfg.Source.Path = path
	cfg.Source.HasHeader = true
	cfg.Ingest.BatchSize = 2
	cfg.Ingest.Workers = 2
	cfg.EventID.Column = "id"
	cfg.Schema = []schema.Field{
		{Name: "id", Type: schema.Int64},
		{Name: "ts", Type: schema.DateTime},
		{Name: "ip", Type: schema.IpAddr},
		{Name: "level", Type: schema.Enum},
		{Name: "msg", Type: schema.Utf8},
		{Name: "latency", Type: schema.Float64},
	}
	return cfg
}

func fixture() []byte {
	return testutil.CSV(append([][]string{header}, rows...)...)
}

func newLoader(t *testing.T, cfg *config.Config) *Loader {
	t.Helper()
	l, err := NewLoader(cfg, WithLogger(zaptest.NewLogger(t)), WithAllocator(testutil.CheckedAllocator(t)))
	require.NoError(t, err)
	return l
}

func TestLoadFile(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Gzip, compression.Zstd, compression.LZ4} {
		t.Run(string(algo), func(t *testing.T) {
			name := "events.csv"
			if ext := map[compression.Algorithm]string{
				compression.Gzip: ".gz", compression.Zstd: ".zst", compression.LZ4: ".lz4",
			}[algo]; ext != "" {
				name += ext
			}
			path := testutil.WriteFile(t, name, fixture(), algo)
			l := newLoader(t, testConfig(path))

			ctx, cancel := testutil.TestContext(t)
			defer cancel()
			res, err := l.Load(ctx)
			require.NoError(t, err)
			defer res.Table.Release()

			assert.Equal(t, header, res.Header)
			assert.Equal(t, 5, res.Records)
			assert.Equal(t, 3, res.Batches)
			assert.Equal(t, 5, res.Table.NumRows())
			assert.Equal(t, 6, res.Table.NumColumns())

			ids, err := columnar.Values[int64](res.Table.Column(0))
			require.NoError(t, err)
			assert.Equal(t, []int64{100, 101, 102, 103, 104}, ids)

			for i, id := range ids {
				row, ok := res.Table.EventIndex(uint64(id))
				require.True(t, ok)
				assert.Equal(t, i, row)
			}

			latency, err := columnar.Values[float64](res.Table.Column(5))
			require.NoError(t, err)
			assert.Equal(t, []float64{0.5, 1.5, 0, 2.0, 0}, latency)
		})
	}
}

func TestLoadDictionaries(t *testing.T) {
	cfg := testConfig("events.csv")
	cfg.Ingest.Workers = 1
	l := newLoader(t, cfg)

	res, err := l.LoadReader(context.Background(), bytes.NewReader(fixture()), "events.csv")
	require.NoError(t, err)
	defer res.Table.Release()

	d, ok := l.Dictionaries().Get(3)
	require.True(t, ok)
	assert.Equal(t, 3, d.Len())
	e, _ := d.Lookup("info")
	assert.Equal(t, columnar.Entry{Code: 1, Count: 3}, e)

	codes, err := columnar.Values[uint32](res.Table.Column(3))
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 1, 3, 1}, codes)

	rev := l.ReverseEnumMaps()
	assert.Equal(t, []string{"warn"}, rev[3][2])
	assert.Equal(t, []string{"error"}, rev[3][3])

	stats := res.Table.Statistics(res.Table.AllRows(), l.Types(), rev,
		[]uint32{3600}, []uint32{2, 2, 2, 2, 2, 2})
	require.Len(t, stats, 6)
	require.NotNil(t, stats[3].NLargestCount.Mode)
	assert.Equal(t, "info", stats[3].NLargestCount.Mode.Text)
	assert.Equal(t, 3, stats[3].NLargestCount.NumberOfElements)
}

func TestLoadBaseEventIDs(t *testing.T) {
	cfg := testConfig("events.csv")
	cfg.EventID = config.EventIDConfig{Base: 1000}
	l := newLoader(t, cfg)

	res, err := l.LoadReader(context.Background(), bytes.NewReader(fixture()), "events.csv")
	require.NoError(t, err)
	defer res.Table.Release()

	for row := 0; row < 5; row++ {
		got, ok := res.Table.EventIndex(1000 + uint64(row))
		require.True(t, ok)
		assert.Equal(t, row, got)
	}
	_, ok := res.Table.EventIndex(100)
	assert.False(t, ok)
}

func TestLoadEmpty(t *testing.T) {
	l := newLoader(t, testConfig("events.csv"))

	res, err := l.LoadReader(context.Background(), bytes.NewReader(testutil.CSV(header)), "events.csv")
	require.NoError(t, err)
	defer res.Table.Release()

	assert.Equal(t, 0, res.Records)
	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, 6, res.Table.NumColumns())
	assert.Equal(t, 0, res.Table.NumRows())
}

func TestLoadInvalidUTF8(t *testing.T) {
	l := newLoader(t, testConfig("events.csv"))

	input := append(fixture(), []byte("105,2021-06-01T15:00:00,10.0.0.1,info,\xff\xfe,1\n")...)
	_, err := l.LoadReader(context.Background(), bytes.NewReader(input), "events.csv")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEncoding))
}

func TestLoadCancelled(t *testing.T) {
	l := newLoader(t, testConfig("events.csv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.LoadReader(ctx, bytes.NewReader(fixture()), "events.csv")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadMissingFile(t *testing.T) {
	l := newLoader(t, testConfig("does-not-exist.csv"))
	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestNewLoaderValidates(t *testing.T) {
	cfg := testConfig("events.csv")
	cfg.EventID.Column = "msg"
	_, err := NewLoader(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadMemoryMapped(t *testing.T) {
	path := testutil.WriteFile(t, "events.csv", fixture(), compression.None)
	cfg := testConfig(path)
	cfg.Source.MemoryMap = true
	l := newLoader(t, cfg)

	res, err := l.Load(context.Background())
	require.NoError(t, err)
	defer res.Table.Release()

	assert.Equal(t, header, res.Header)
	assert.Equal(t, 5, res.Table.NumRows())
	msgs, err := columnar.Values[string](res.Table.Column(4))
	require.NoError(t, err)
	assert.Equal(t, []string{"started", "slow disk", "request", "failed", "stopped"}, msgs)
}
