// Package schema describes the logical column types of an event table and
// maps them onto Arrow storage and field parsers.
package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/strata/pkg/csv"
)

// ColumnType is the logical type of a column. It decides how raw fields are
// parsed, how cells are rendered and which statistics apply.
type ColumnType uint8

const (
	Int64 ColumnType = iota
	Float64
	DateTime
	IpAddr
	Enum
	Utf8
	Binary
)

var columnTypeNames = [...]string{
	Int64:    "int64",
	Float64:  "float64",
	DateTime: "datetime",
	IpAddr:   "ipaddr",
	Enum:     "enum",
	Utf8:     "utf8",
	Binary:   "binary",
}

func (t ColumnType) String() string {
	if int(t) < len(columnTypeNames) {
		return columnTypeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", uint8(t))
}

// ParseColumnType accepts the lowercase name of a type. Underscored spellings
// such as "date_time" and "ip_addr" are accepted too.
func ParseColumnType(s string) (ColumnType, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	for i, name := range columnTypeNames {
		if norm == name {
			return ColumnType(i), nil
		}
	}
	switch norm {
	case "text", "string":
		return Utf8, nil
	case "ip", "ipv4":
		return IpAddr, nil
	case "timestamp":
		return DateTime, nil
	}
	return 0, fmt.Errorf("unknown column type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ColumnType) MarshalText() ([]byte, error) {
	if int(t) >= len(columnTypeNames) {
		return nil, fmt.Errorf("unknown column type %d", uint8(t))
	}
	return []byte(columnTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ColumnType) UnmarshalText(b []byte) error {
	ct, err := ParseColumnType(string(b))
	if err != nil {
		return err
	}
	*t = ct
	return nil
}

// DataType returns the Arrow type a column of type t is declared with.
// DateTime columns are declared as second-resolution timestamps although the
// materializer stores epoch seconds as int64. Enum columns hold dictionary
// codes.
func (t ColumnType) DataType() arrow.DataType {
	switch t {
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case DateTime:
		return arrow.FixedWidthTypes.Timestamp_s
	case IpAddr, Enum:
		return arrow.PrimitiveTypes.Uint32
	case Utf8:
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.Binary
	}
}

// Parser returns the default field parser for t.
func (t ColumnType) Parser() csv.FieldParser {
	switch t {
	case Int64:
		return csv.Int64()
	case Float64:
		return csv.Float64()
	case DateTime:
		return csv.Timestamp()
	case IpAddr:
		return csv.IPv4()
	case Enum:
		return csv.Dict()
	case Utf8:
		return csv.Utf8()
	default:
		return csv.Binary()
	}
}
