package columnar

import (
	"bytes"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
)

// Equal reports whether c and other have the same data type, the same length
// and pairwise equal elements. Chunk boundaries do not matter. Two columns
// without chunks are equal.
func (c *Column) Equal(other *Column) bool {
	if c.len != other.len {
		return false
	}
	mine, theirs := c.DataType(), other.DataType()
	if mine == nil || theirs == nil {
		return mine == nil && theirs == nil
	}
	if !arrow.TypeEqual(mine, theirs) {
		return false
	}

	switch mine.ID() {
	case arrow.INT8:
		return equalAs[int8](c, other, eq)
	case arrow.INT16:
		return equalAs[int16](c, other, eq)
	case arrow.INT32:
		return equalAs[int32](c, other, eq)
	case arrow.INT64:
		return equalAs[int64](c, other, eq)
	case arrow.UINT8:
		return equalAs[uint8](c, other, eq)
	case arrow.UINT16:
		return equalAs[uint16](c, other, eq)
	case arrow.UINT32:
		return equalAs[uint32](c, other, eq)
	case arrow.UINT64:
		return equalAs[uint64](c, other, eq)
	case arrow.FLOAT32:
		return equalAs[float32](c, other, eq)
	case arrow.FLOAT64:
		return equalAs[float64](c, other, eq)
	case arrow.TIMESTAMP:
		return equalAs[arrow.Timestamp](c, other, eq)
	case arrow.BOOL:
		return equalAs[bool](c, other, eq)
	case arrow.STRING:
		return equalAs[string](c, other, eq)
	case arrow.BINARY:
		return equalAs[[]byte](c, other, bytes.Equal)
	default:
		return false
	}
}

func eq[T comparable](a, b T) bool { return a == b }

func equalAs[T any](a, b *Column, same func(T, T) bool) bool {
	left, err := All[T](a)
	if err != nil {
		return false
	}
	right, err := All[T](b)
	if err != nil {
		return false
	}
	next, stop := iter.Pull(right)
	defer stop()
	for x := range left {
		y, ok := next()
		if !ok || !same(x, y) {
			return false
		}
	}
	_, more := next()
	return !more
}
