package columnar

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Native lists the Go element types that map directly onto Arrow primitive
// arrays.
type Native interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Column is an append-only sequence of same-typed Arrow array chunks.
type Column struct {
	chunks []arrow.Array
	cumlen []int
	len    int
}

// NewColumn returns an empty column.
func NewColumn() *Column {
	return &Column{cumlen: []int{0}}
}

// FromArray wraps a single array. The column takes over the caller's
// reference to arr.
func FromArray(arr arrow.Array) *Column {
	return &Column{
		chunks: []arrow.Array{arr},
		cumlen: []int{0, arr.Len()},
		len:    arr.Len(),
	}
}

// FromArrays wraps several same-typed arrays, taking over each reference.
func FromArrays(arrs ...arrow.Array) (*Column, error) {
	c := NewColumn()
	for _, arr := range arrs {
		if err := c.Append(FromArray(arr)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// FromSlice builds a single-chunk column holding a copy of values.
func FromSlice[T Native](mem memory.Allocator, values []T) *Column {
	return FromArray(buildPrimitive(mem, values))
}

// FromStrings builds a single-chunk text column.
func FromStrings(mem memory.Allocator, values []string) *Column {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.AppendValues(values, nil)
	return FromArray(b.NewArray())
}

// FromBinary builds a single-chunk binary column.
func FromBinary(mem memory.Allocator, values [][]byte) *Column {
	b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer b.Release()
	b.AppendValues(values, nil)
	return FromArray(b.NewArray())
}

func buildPrimitive[T Native](mem memory.Allocator, values []T) arrow.Array {
	switch v := any(values).(type) {
	case []int8:
		return appendAll(array.NewInt8Builder(mem), v)
	case []int16:
		return appendAll(array.NewInt16Builder(mem), v)
	case []int32:
		return appendAll(array.NewInt32Builder(mem), v)
	case []int64:
		return appendAll(array.NewInt64Builder(mem), v)
	case []uint8:
		return appendAll(array.NewUint8Builder(mem), v)
	case []uint16:
		return appendAll(array.NewUint16Builder(mem), v)
	case []uint32:
		return appendAll(array.NewUint32Builder(mem), v)
	case []uint64:
		return appendAll(array.NewUint64Builder(mem), v)
	case []float32:
		return appendAll(array.NewFloat32Builder(mem), v)
	case []float64:
		return appendAll(array.NewFloat64Builder(mem), v)
	default:
		panic(fmt.Sprintf("columnar: no arrow builder for %T", values))
	}
}

type valuesBuilder[T any] interface {
	array.Builder
	AppendValues([]T, []bool)
}

func appendAll[T any](b valuesBuilder[T], values []T) arrow.Array {
	defer b.Release()
	b.AppendValues(values, nil)
	return b.NewArray()
}

// Len returns the number of elements across all chunks.
func (c *Column) Len() int {
	return c.len
}

// NumChunks returns the number of chunks.
func (c *Column) NumChunks() int {
	return len(c.chunks)
}

// Chunk returns chunk i.
func (c *Column) Chunk(i int) arrow.Array {
	return c.chunks[i]
}

// DataType returns the Arrow type of the column, or nil when it has no chunks.
func (c *Column) DataType() arrow.DataType {
	if len(c.chunks) == 0 {
		return nil
	}
	return c.chunks[0].DataType()
}

// locate maps a logical row to its chunk and the offset inside that chunk.
// It picks the last chunk starting at or before i so empty chunks are skipped.
func (c *Column) locate(i int) (chunk, offset int, ok bool) {
	if i < 0 || i >= c.len {
		return 0, 0, false
	}
	k := sort.Search(len(c.cumlen), func(k int) bool { return c.cumlen[k] > i }) - 1
	return k, i - c.cumlen[k], true
}

// Append moves every chunk of other to the end of c. Afterwards other is
// empty. Both columns must hold the same data type unless one is empty.
func (c *Column) Append(other *Column) error {
	if other == c {
		return fmt.Errorf("columnar: cannot append a column to itself")
	}
	if err := c.checkAppendable(other); err != nil {
		return err
	}
	base := c.len
	c.chunks = append(c.chunks, other.chunks...)
	for _, n := range other.cumlen[1:] {
		c.cumlen = append(c.cumlen, base+n)
	}
	c.len += other.len

	other.chunks = nil
	other.cumlen = []int{0}
	other.len = 0
	return nil
}

func (c *Column) checkAppendable(other *Column) error {
	mine, theirs := c.DataType(), other.DataType()
	if mine == nil || theirs == nil || arrow.TypeEqual(mine, theirs) {
		return nil
	}
	return &TypeError{Want: mine, Got: theirs}
}

// Release drops the column's reference to every chunk and empties it.
func (c *Column) Release() {
	for _, arr := range c.chunks {
		arr.Release()
	}
	c.chunks = nil
	c.cumlen = []int{0}
	c.len = 0
}

func (c *Column) String() string {
	dt := "empty"
	if t := c.DataType(); t != nil {
		dt = t.String()
	}
	return fmt.Sprintf("Column(%s, len=%d, chunks=%d)", dt, c.len, len(c.chunks))
}
