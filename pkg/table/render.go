package table

import (
	"strconv"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// cellString renders row of c the way its declared type is presented to
// users: integers and timestamps as decimal seconds, addresses as dotted
// quads, enums as their decimal code. It reports false when the row does not
// exist or the storage does not match ct.
func cellString(c *columnar.Column, ct schema.ColumnType, row int) (string, bool) {
	switch ct {
	case schema.Int64, schema.DateTime:
		v, ok, err := columnar.TryGet[int64](c, row)
		if err != nil || !ok {
			return "", false
		}
		return strconv.FormatInt(v, 10), true
	case schema.Float64:
		v, ok, err := columnar.TryGet[float64](c, row)
		if err != nil || !ok {
			return "", false
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case schema.IpAddr:
		v, ok, err := columnar.TryGet[uint32](c, row)
		if err != nil || !ok {
			return "", false
		}
		return csv.FormatIPv4(v), true
	case schema.Enum:
		if v, ok, err := columnar.TryGet[uint32](c, row); err == nil {
			return strconv.FormatUint(uint64(v), 10), ok
		}
		v, ok, err := columnar.TryGet[uint64](c, row)
		if err != nil || !ok {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	case schema.Binary:
		if v, ok, err := c.BinaryAt(row); err == nil {
			return string(v), ok
		}
	}
	v, ok, err := c.StringAt(row)
	if err != nil || !ok {
		return "", false
	}
	return v, true
}
