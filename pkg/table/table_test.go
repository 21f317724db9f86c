package table

import (
	"hash/fnv"
	"net/netip"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/stats"
	"github.com/ajitpratap0/strata/pkg/token"
)

var mem = memory.DefaultAllocator

func ts(y int, mo time.Month, d, h, mi, s int) int64 {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC).Unix()
}

func ip(s string) uint32 {
	b := netip.MustParseAddr(s).As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func TestNewEmpty(t *testing.T) {
	tbl, err := New(arrow.NewSchema(nil, nil), nil, map[uint64]int{1: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumColumns())
	assert.Equal(t, 0, tbl.NumRows())
	_, ok := tbl.EventIndex(1)
	assert.False(t, ok)
}

func TestNewRejectsUnequalColumns(t *testing.T) {
	_, err := New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []int64{1, 2}),
		columnar.FromSlice(mem, []int64{1}),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestAppend(t *testing.T) {
	a, err := New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []int64{1, 2}),
		columnar.FromStrings(mem, []string{"a", "b"}),
	}, map[uint64]int{10: 0, 11: 1})
	require.NoError(t, err)
	b, err := New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []int64{3}),
		columnar.FromStrings(mem, []string{"c"}),
	}, map[uint64]int{12: 0})
	require.NoError(t, err)

	require.NoError(t, a.Append(b))
	assert.Equal(t, 3, a.NumRows())
	assert.Equal(t, 0, b.NumRows())
	row, ok := a.EventIndex(12)
	require.True(t, ok)
	assert.Equal(t, 2, row)
	_, ok = b.EventIndex(12)
	assert.False(t, ok)

	s, ok, err := a.Column(1).StringAt(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", s)

	bad, err := New(nil, []*columnar.Column{
		columnar.FromSlice(mem, []float64{1}),
		columnar.FromStrings(mem, []string{"d"}),
	}, nil)
	require.NoError(t, err)
	err = a.Append(bad)
	require.ErrorIs(t, err, columnar.ErrTypeMismatch)
	assert.Equal(t, 3, a.NumRows())
	assert.Equal(t, 1, bad.NumRows())

	assert.Error(t, a.Append(a))
}

func TestAppendIntoEmpty(t *testing.T) {
	empty, err := New(nil, nil, nil)
	require.NoError(t, err)
	b, err := New(nil, []*columnar.Column{columnar.FromSlice(mem, []int64{3})}, map[uint64]int{5: 0})
	require.NoError(t, err)

	require.NoError(t, empty.Append(b))
	assert.Equal(t, 1, empty.NumRows())
	row, ok := empty.EventIndex(5)
	assert.True(t, ok)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, b.NumColumns())
}

func TestEventRows(t *testing.T) {
	tbl, err := New(nil, []*columnar.Column{columnar.FromSlice(mem, []int64{1, 2, 3})},
		map[uint64]int{100: 0, 101: 1, 102: 2})
	require.NoError(t, err)

	bm := tbl.EventRows([]uint64{102, 100, 999, 102})
	assert.Equal(t, []int{0, 2}, Rows(bm))
	assert.Equal(t, []int{0, 1, 2}, tbl.AllRows())
}

func TestCountGroupBy(t *testing.T) {
	c0 := columnar.FromSlice(mem, []int64{
		ts(2020, 1, 1, 0, 0, 10),
		ts(2020, 1, 1, 0, 0, 13),
		ts(2020, 1, 1, 0, 0, 15),
		ts(2020, 1, 1, 0, 0, 22),
		ts(2020, 1, 1, 0, 0, 22),
		ts(2020, 1, 1, 0, 0, 31),
		ts(2020, 1, 1, 0, 0, 33),
		ts(2020, 1, 1, 0, 1, 1),
	})
	c1 := columnar.FromSlice(mem, []int64{1, 32, 3, 5, 2, 1, 3, 24})
	c2 := columnar.FromSlice(mem, []int64{2, 33, 4, 6, 3, 2, 4, 25})
	tbl, err := New(nil, []*columnar.Column{c0, c1, c2}, nil)
	require.NoError(t, err)
	types := []schema.ColumnType{schema.DateTime, schema.Int64, schema.Int64}
	rows := []int{0, 3, 1, 4, 2, 6, 5, 7}

	gc := tbl.CountGroupBy(rows, types, 0, 30, []int{0, 1, 2})
	require.Len(t, gc, 3)
	assert.Nil(t, gc[0].CountIndex)
	require.NotNil(t, gc[1].CountIndex)
	assert.Equal(t, 1, *gc[1].CountIndex)
	require.NotNil(t, gc[2].CountIndex)
	assert.Equal(t, 2, *gc[2].CountIndex)
	assert.Equal(t, int64(5), gc[0].Series[0].Count)
	assert.Equal(t, int64(43), gc[1].Series[0].Count)
	assert.Equal(t, int64(48), gc[2].Series[0].Count)

	assert.True(t, gc[0].Series[0].Value.DateTime.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	counts := make([]int64, 0, 3)
	for _, s := range gc[0].Series {
		counts = append(counts, s.Count)
	}
	assert.Equal(t, []int64{5, 2, 1}, counts)
}

func TestCountGroupByEdgeCases(t *testing.T) {
	c0 := columnar.FromSlice(mem, []int64{0, 10, 40})
	c1 := columnar.FromSlice(mem, []int64{-5, 0, 7})
	c2 := columnar.FromStrings(mem, []string{"a", "b", "c"})
	tbl, err := New(nil, []*columnar.Column{c0, c1, c2}, nil)
	require.NoError(t, err)
	types := []schema.ColumnType{schema.DateTime, schema.Int64, schema.Utf8}

	assert.Empty(t, tbl.CountGroupBy([]int{0, 1, 2}, types, 1, 30, []int{1}))
	assert.Empty(t, tbl.CountGroupBy([]int{0, 1, 2}, types, 0, 0, []int{0}))
	assert.Empty(t, tbl.CountGroupBy([]int{0, 1, 2}, types, 9, 30, []int{0}))

	gc := tbl.CountGroupBy([]int{0, 1, 2, 17}, types, 0, 30, []int{1, 2, 5})
	require.Len(t, gc, 1)
	assert.Equal(t, 1, *gc[0].CountIndex)
	require.Len(t, gc[0].Series, 1)
	assert.Equal(t, int64(7), gc[0].Series[0].Count)
	assert.Equal(t, int64(30), gc[0].Series[0].Value.DateTime.Unix())
}

func rawContentTable(t *testing.T) *Table {
	t.Helper()
	cols := []*columnar.Column{
		columnar.FromSlice(mem, []int64{
			ts(2020, 1, 1, 0, 0, 10),
			ts(2020, 1, 2, 0, 0, 13),
			ts(2020, 1, 3, 0, 0, 15),
			ts(2020, 1, 4, 0, 0, 22),
		}),
		columnar.FromSlice(mem, []uint32{ip("127.0.0.1"), ip("127.0.0.2"), ip("127.0.0.3"), ip("127.0.0.4")}),
		columnar.FromSlice(mem, []uint64{1000, 2000, 3000, 4000}),
		columnar.FromStrings(mem, []string{
			"/setup.cgi?next_file=netgear.cfg",
			"/index.php?s=/index/thinkapp/invokefunction",
			"/phpmyadmin/scripts/setup.php",
			"/?XDEBUG_SESSION_START=phpstorm",
		}),
	}
	sch, err := schema.New([]string{"ts", "src_addr", "src_port", "uri"},
		[]schema.ColumnType{schema.DateTime, schema.IpAddr, schema.Enum, schema.Utf8})
	require.NoError(t, err)
	tbl, err := New(sch.Arrow(), cols, map[uint64]int{1001: 0, 1002: 1, 1003: 2, 1004: 3})
	require.NoError(t, err)
	return tbl
}

func strs(ss ...string) []*string {
	out := make([]*string, len(ss))
	for i := range ss {
		out[i] = &ss[i]
	}
	return out
}

func TestColumnRawContent(t *testing.T) {
	tbl := rawContentTable(t)
	types := []schema.ColumnType{schema.DateTime, schema.IpAddr, schema.Enum, schema.Utf8}

	got := tbl.ColumnRawContent([]uint64{1001, 1002, 1003, 1004}, types, []int{0, 1, 2, 3})
	require.Len(t, got, 4)
	assert.Equal(t, strs("1577836810", "127.0.0.1", "1000", "/setup.cgi?next_file=netgear.cfg"), got[1001])
	assert.Equal(t, strs("1577923213", "127.0.0.2", "2000", "/index.php?s=/index/thinkapp/invokefunction"), got[1002])
	assert.Equal(t, strs("1578009615", "127.0.0.3", "3000", "/phpmyadmin/scripts/setup.php"), got[1003])
	assert.Equal(t, strs("1578096022", "127.0.0.4", "4000", "/?XDEBUG_SESSION_START=phpstorm"), got[1004])
}

func TestColumnRawContentMissing(t *testing.T) {
	tbl := rawContentTable(t)
	// Column 3 declared as Int64 does not resolve; column 9 does not exist.
	types := []schema.ColumnType{schema.DateTime, schema.IpAddr, schema.Enum, schema.Int64}

	got := tbl.ColumnRawContent([]uint64{1003, 42}, types, []int{9, 1, 3})
	require.Len(t, got, 1)
	slots := got[1003]
	require.Len(t, slots, 3)
	assert.Nil(t, slots[0])
	require.NotNil(t, slots[1])
	assert.Equal(t, "127.0.0.3", *slots[1])
	assert.Nil(t, slots[2])
}

func TestColumnValues(t *testing.T) {
	tbl := rawContentTable(t)
	types := []schema.ColumnType{schema.DateTime, schema.IpAddr, schema.Enum, schema.Int64}

	got := tbl.ColumnValues([]uint64{1002, 1001, 77}, types, []int{1, 3, 8}, token.ContentFlag{})
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Column)
	assert.Equal(t, []uint64{1002, 1001}, got[0].Messages.Events())
	assert.Equal(t, []string{"127.0.0.2"}, got[0].Messages.Get(1002))
	assert.Equal(t, 3, got[1].Column)
	assert.Equal(t, 0, got[1].Messages.Len())

	got = tbl.ColumnValues([]uint64{1001}, []schema.ColumnType{0, 0, 0, schema.Utf8}, []int{3}, token.ContentFlag{MaxLength: 6})
	assert.Equal(t, []string{"/setup"}, got[0].Messages.Get(1001))
}

func hash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func TestStatistics(t *testing.T) {
	sid := []uint64{hash("t1"), hash("t2"), hash("t3")}
	text := []string{"111a qwer", "b", "c", "d", "b", "111a qwer", "111a qwer"}
	raw := make([][]byte, len(text))
	for i, s := range text {
		raw[i] = []byte(s)
	}
	cols := []*columnar.Column{
		columnar.FromSlice(mem, []int64{1, 3, 3, 5, 2, 1, 3}),
		columnar.FromStrings(mem, text),
		columnar.FromSlice(mem, []uint32{
			ip("127.0.0.1"), ip("127.0.0.2"), ip("127.0.0.3"), ip("127.0.0.4"),
			ip("127.0.0.2"), ip("127.0.0.2"), ip("127.0.0.3"),
		}),
		columnar.FromSlice(mem, []float64{2.2, 3.14, 122.8, 5.3123, 7.0, 10320.811, 5.5}),
		columnar.FromSlice(mem, []int64{
			ts(2019, 9, 22, 6, 10, 11),
			ts(2019, 9, 22, 6, 15, 11),
			ts(2019, 9, 21, 20, 10, 11),
			ts(2019, 9, 21, 20, 10, 11),
			ts(2019, 9, 22, 6, 45, 11),
			ts(2019, 9, 21, 8, 10, 11),
			ts(2019, 9, 22, 9, 10, 11),
		}),
		columnar.FromSlice(mem, []uint64{sid[0], sid[1], sid[1], sid[1], sid[1], sid[1], sid[2]}),
		columnar.FromBinary(mem, raw),
	}
	tbl, err := New(nil, cols, nil)
	require.NoError(t, err)
	types := []schema.ColumnType{
		schema.Int64, schema.Utf8, schema.IpAddr, schema.Float64,
		schema.DateTime, schema.Enum, schema.Binary,
	}
	rows := []int{0, 3, 1, 4, 2, 6, 5}
	intervals := []uint32{3600}
	topN := []uint32{10, 10, 10, 10, 10, 10, 10}

	check := func(st []stats.ColumnStatistics) {
		t.Helper()
		require.Len(t, st, 7)
		assert.Equal(t, 4, st[0].NLargestCount.NumberOfElements)
		assert.Equal(t, stats.TextElement("111a qwer"), *st[1].NLargestCount.Mode)
		assert.Equal(t, stats.IPElement(netip.MustParseAddr("127.0.0.3")), st[2].NLargestCount.TopN[1].Value)
		assert.Equal(t, 3, st[3].NLargestCount.NumberOfElements)
		top := st[4].NLargestCount.TopN[0].Value
		assert.Equal(t, stats.KindDateTime, top.Kind)
		assert.True(t, top.Time.Equal(time.Date(2019, 9, 22, 6, 0, 0, 0, time.UTC)))
		assert.Equal(t, 3, st[5].NLargestCount.NumberOfElements)
		assert.Equal(t, stats.BinaryElement([]byte("111a qwer")), *st[6].NLargestCount.Mode)
	}

	check(tbl.Statistics(rows, types, nil, intervals, topN))

	reverse := map[int]map[uint64][]string{
		5: {sid[0]: {"t1"}, sid[1]: {"t2"}, sid[2]: {"t3"}},
	}
	st := tbl.Statistics(rows, types, reverse, intervals, topN)
	check(st)
	assert.Equal(t, stats.EnumElement("t2"), *st[5].NLargestCount.Mode)
	assert.Equal(t, 7, st[0].Description.Count)

	assert.Panics(t, func() { tbl.Statistics(rows, types, nil, intervals, topN[:3]) })
	assert.Panics(t, func() { tbl.Statistics(rows, types, nil, nil, topN) })
}
