package columnar

import (
	"errors"
	"fmt"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
)

// ErrTypeMismatch is matched by every *TypeError.
var ErrTypeMismatch = errors.New("column type mismatch")

// TypeError reports a typed access that does not match the column's storage.
type TypeError struct {
	// Want is the stored type for append mismatches; nil for reads.
	Want arrow.DataType
	// GoType names the requested Go element type for reads.
	GoType string
	Got    arrow.DataType
}

func (e *TypeError) Error() string {
	if e.Want != nil {
		return fmt.Sprintf("column type mismatch: have %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("column type mismatch: %s requested from %s column", e.GoType, e.Got)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// valuer is satisfied by the concrete Arrow array whose storage is T, for
// example *array.Int64 for int64 and *array.String for string.
type valuer[T any] interface {
	arrow.Array
	Value(int) T
}

func typeErr[T any](arr arrow.Array) *TypeError {
	var zero T
	return &TypeError{GoType: fmt.Sprintf("%T", zero), Got: arr.DataType()}
}

func asValuer[T any](arr arrow.Array) (valuer[T], error) {
	v, ok := arr.(valuer[T])
	if !ok {
		return nil, typeErr[T](arr)
	}
	return v, nil
}

// TryGet returns element i of c as T. It returns false when i is out of range
// and a *TypeError when the element's chunk does not store T.
func TryGet[T any](c *Column, i int) (T, bool, error) {
	var zero T
	k, off, ok := c.locate(i)
	if !ok {
		return zero, false, nil
	}
	v, err := asValuer[T](c.chunks[k])
	if err != nil {
		return zero, false, err
	}
	return v.Value(off), true, nil
}

// StringAt returns element i of a text column.
func (c *Column) StringAt(i int) (string, bool, error) {
	return TryGet[string](c, i)
}

// BinaryAt returns element i of a binary column. The slice aliases column
// memory.
func (c *Column) BinaryAt(i int) ([]byte, bool, error) {
	return TryGet[[]byte](c, i)
}

// checkType verifies that every chunk of c stores T.
func checkType[T any](c *Column) error {
	for _, arr := range c.chunks {
		if _, err := asValuer[T](arr); err != nil {
			return err
		}
	}
	return nil
}

// Select returns the elements at rows, in order. Rows outside the column are
// skipped. The sequence is lazy and does one binary search per row.
func Select[T any](c *Column, rows []int) (iter.Seq[T], error) {
	if err := checkType[T](c); err != nil {
		return nil, err
	}
	return func(yield func(T) bool) {
		for _, i := range rows {
			k, off, ok := c.locate(i)
			if !ok {
				continue
			}
			if !yield(c.chunks[k].(valuer[T]).Value(off)) {
				return
			}
		}
	}, nil
}

// All returns every element of c in order.
func All[T any](c *Column) (iter.Seq[T], error) {
	if err := checkType[T](c); err != nil {
		return nil, err
	}
	return func(yield func(T) bool) {
		for _, arr := range c.chunks {
			v := arr.(valuer[T])
			for i, n := 0, v.Len(); i < n; i++ {
				if !yield(v.Value(i)) {
					return
				}
			}
		}
	}, nil
}

// Values collects every element of c into a slice.
func Values[T any](c *Column) ([]T, error) {
	seq, err := All[T](c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, c.len)
	for v := range seq {
		out = append(out, v)
	}
	return out, nil
}
