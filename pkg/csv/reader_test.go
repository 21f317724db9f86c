package csv

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = "1,111a qwer,127.0.0.1,2.2,2019-09-22 06:10:11,t1\n" +
	"3,b,127.0.0.2,3.14,2019-09-22 06:15:11,t2\n" +
	"3,c,127.0.0.3,122.8,2019-09-21 20:10:11,t2\n" +
	"5,d,127.0.0.4,5.3123,2019-09-21 20:10:11,t2\n" +
	"2,b,127.0.0.2,7.0,2019-09-22 06:45:11,t2\n" +
	"1,111a qwer,127.0.0.2,10320.811,2019-09-21 08:10:11,t2\n" +
	"3,111a qwer,127.0.0.3,5.5,2019-09-22 09:10:11,t3\n"

func fieldStrings(rec Record) []string {
	out := make([]string, rec.Len())
	for i, f := range rec.Fields() {
		out[i] = string(f)
	}
	return out
}

func referenceSplit(input string) [][]string {
	var out [][]string
	for _, line := range strings.Split(input, "\n") {
		if line == "" {
			continue
		}
		out = append(out, strings.Split(line, ","))
	}
	return out
}

var bufferSizes = []struct{ fields, ends int }{
	{0, 0}, {1, 1}, {2, 3}, {3, 2}, {7, 5}, {64, 8}, {DefaultFieldBufferSize, DefaultEndsBufferSize},
}

func TestReadSliceMatchesReference(t *testing.T) {
	want := referenceSplit(sampleLog)
	for _, size := range bufferSizes {
		t.Run(fmt.Sprintf("fields=%d/ends=%d", size.fields, size.ends), func(t *testing.T) {
			r := NewReader(WithBufferSizes(size.fields, size.ends))
			var got [][]string
			for rec := range r.Records([]byte(sampleLog)) {
				got = append(got, fieldStrings(rec))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestReadStreamMatchesReference(t *testing.T) {
	want := referenceSplit(sampleLog)
	for _, size := range bufferSizes {
		t.Run(fmt.Sprintf("fields=%d/ends=%d", size.fields, size.ends), func(t *testing.T) {
			// OneByteReader forces a refill in the middle of every field.
			src := bufio.NewReaderSize(iotest.OneByteReader(strings.NewReader(sampleLog)), 16)
			r := NewReader(WithBufferSizes(size.fields, size.ends))
			var got [][]string
			for {
				rec, ok, err := r.Read(src)
				require.NoError(t, err)
				if !ok {
					break
				}
				got = append(got, fieldStrings(rec))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestReadStreamPropagatesSourceError(t *testing.T) {
	src := bufio.NewReader(iotest.TimeoutReader(strings.NewReader("a,b\nc,d")))
	r := NewReader()
	rec, ok, err := r.Read(src)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, fieldStrings(rec))

	_, _, err = r.Read(src)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestEmptyInputYieldsNoRecords(t *testing.T) {
	r := NewReader()
	rec, n, ok := r.ReadSlice(nil)
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.Zero(t, rec.Len())

	rec2, ok, err := r.Read(bufio.NewReader(bytes.NewReader(nil)))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, rec2.Len())
}

func TestEndIsSticky(t *testing.T) {
	r := NewReader()
	input := []byte("x")
	rec, n, ok := r.ReadSlice(input)
	require.True(t, ok)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"x"}, fieldStrings(rec))

	for i := 0; i < 3; i++ {
		_, _, ok = r.ReadSlice(input[n:])
		assert.False(t, ok)
	}
}

func TestDialect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  [][]string
	}{
		{"trailing record without newline", "a,b\nc,d", nil, [][]string{{"a", "b"}, {"c", "d"}}},
		{"crlf terminators", "a,b\r\nc,d\r\n", nil, [][]string{{"a", "b"}, {"c", "d"}}},
		{"bare cr terminators", "a\rb\r", nil, [][]string{{"a"}, {"b"}}},
		{"empty lines skipped", "\n\na\n\n\nb\n", nil, [][]string{{"a"}, {"b"}}},
		{"empty fields", ",,\na,,b\n", nil, [][]string{{"", "", ""}, {"a", "", "b"}}},
		{"trailing delimiter", "a,\n", nil, [][]string{{"a", ""}}},
		{"trailing delimiter at eof", "a,", nil, [][]string{{"a", ""}}},
		{"quoted delimiter", `"a,b",c` + "\n", nil, [][]string{{"a,b", "c"}}},
		{"quoted newline", "\"a\nb\",c\n", nil, [][]string{{"a\nb", "c"}}},
		{"doubled quote", `"say ""hi""",x`, nil, [][]string{{`say "hi"`, "x"}}},
		{"text after closing quote", `"ab"cd,e`, nil, [][]string{{"abcd", "e"}}},
		{"unterminated quote at eof", `"abc`, nil, [][]string{{"abc"}}},
		{"tab delimiter", "a\tb,c\n", []Option{WithDelimiter('\t')}, [][]string{{"a", "b,c"}}},
		{"quoting disabled", `"a",b` + "\n", []Option{WithQuote(0)}, [][]string{{`"a"`, "b"}}},
		{"double quote disabled", `"a""b"`, []Option{WithDoubleQuote(false)}, [][]string{{`a"b"`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithBufferSizes(1, 1)}, tt.opts...)
			r := NewReader(opts...)
			var got [][]string
			for rec := range r.Records([]byte(tt.input)) {
				got = append(got, fieldStrings(rec))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordsFromData(t *testing.T) {
	rows := [][]byte{[]byte("1,a\n"), nil, []byte("2,b")}
	recs := RecordsFromData(rows)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"1", "a"}, fieldStrings(recs[0]))
	assert.Zero(t, recs[1].Len())
	assert.Equal(t, []string{"2", "b"}, fieldStrings(recs[2]))
}

func TestRecordsAreIndependent(t *testing.T) {
	r := NewReader(WithBufferSizes(4, 2))
	first, n, ok := r.ReadSlice([]byte("abc,de\nfgh,ij\n"))
	require.True(t, ok)
	second, _, ok := r.ReadSlice([]byte("abc,de\nfgh,ij\n")[n:])
	require.True(t, ok)
	assert.Equal(t, []string{"abc", "de"}, fieldStrings(first))
	assert.Equal(t, []string{"fgh", "ij"}, fieldStrings(second))
}

func TestRecordGet(t *testing.T) {
	rec := NewRecord([]byte("abcd"), []int{1, 1, 4})
	f, ok := rec.Get(0)
	require.True(t, ok)
	assert.Equal(t, "a", string(f))
	f, ok = rec.Get(1)
	require.True(t, ok)
	assert.Empty(t, f)
	f, ok = rec.Get(2)
	require.True(t, ok)
	assert.Equal(t, "bcd", string(f))
	_, ok = rec.Get(3)
	assert.False(t, ok)
	_, ok = rec.Get(-1)
	assert.False(t, ok)
	assert.Equal(t, []byte("abcd"), rec.Bytes())
}
