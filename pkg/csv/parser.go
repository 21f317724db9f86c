package csv

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"github.com/ajitpratap0/strata/pkg/strings"
)

// Kind identifies a FieldParser variant.
type Kind uint8

const (
	KindInt64 Kind = iota
	KindUInt32
	KindFloat64
	KindUtf8
	KindBinary
	KindTimestamp
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindUInt32:
		return "uint32"
	case KindFloat64:
		return "float64"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindTimestamp:
		return "timestamp"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// ParseError reports a field that could not be converted.
type ParseError struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s from %q: %v", e.Kind, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(kind Kind, b []byte, err error) *ParseError {
	return &ParseError{Kind: kind, Input: string(b), Err: err}
}

// FieldParser describes how one column's raw field bytes become a value.
// The zero value is not useful; use one of the constructors.
type FieldParser struct {
	kind Kind
	name string

	int64Fn   func([]byte) (int64, error)
	uint32Fn  func([]byte) (uint32, error)
	float64Fn func([]byte) (float64, error)
}

// Kind returns the parser variant.
func (p FieldParser) Kind() Kind { return p.kind }

func (p FieldParser) String() string {
	if p.name != "" {
		return p.name
	}
	return p.kind.String()
}

// ParseInt64 converts b with the parser's int64 conversion. It is valid for
// KindInt64 and KindTimestamp parsers.
func (p FieldParser) ParseInt64(b []byte) (int64, error) {
	if p.int64Fn == nil {
		return 0, fmt.Errorf("parser %s does not produce int64", p)
	}
	return p.int64Fn(b)
}

// ParseUInt32 converts b with the parser's uint32 conversion.
func (p FieldParser) ParseUInt32(b []byte) (uint32, error) {
	if p.uint32Fn == nil {
		return 0, fmt.Errorf("parser %s does not produce uint32", p)
	}
	return p.uint32Fn(b)
}

// ParseFloat64 converts b with the parser's float64 conversion.
func (p FieldParser) ParseFloat64(b []byte) (float64, error) {
	if p.float64Fn == nil {
		return 0, fmt.Errorf("parser %s does not produce float64", p)
	}
	return p.float64Fn(b)
}

// Int64 parses base-10 signed integers.
func Int64() FieldParser {
	return Int64With(parseInt64)
}

// Int64With parses signed integers with fn.
func Int64With(fn func([]byte) (int64, error)) FieldParser {
	return FieldParser{kind: KindInt64, int64Fn: fn}
}

// UInt32 parses base-10 unsigned 32-bit integers.
func UInt32() FieldParser {
	return UInt32With(parseUInt32)
}

// UInt32With parses unsigned 32-bit integers with fn.
func UInt32With(fn func([]byte) (uint32, error)) FieldParser {
	return FieldParser{kind: KindUInt32, uint32Fn: fn}
}

// IPv4 parses dotted-quad addresses into their big-endian uint32 form.
func IPv4() FieldParser {
	p := UInt32With(ParseIPv4)
	p.name = "ipv4"
	return p
}

// Float64 parses floating point numbers.
func Float64() FieldParser {
	return Float64With(parseFloat64)
}

// Float64With parses floating point numbers with fn.
func Float64With(fn func([]byte) (float64, error)) FieldParser {
	return FieldParser{kind: KindFloat64, float64Fn: fn}
}

// Timestamp parses RFC 3339 style date-times into epoch seconds.
func Timestamp() FieldParser {
	return TimestampWith(ParseTimestamp)
}

// TimestampLayout parses date-times in the given time layout, interpreted as
// UTC unless the layout carries a zone, into epoch seconds.
func TimestampLayout(layout string) FieldParser {
	p := TimestampWith(func(b []byte) (int64, error) {
		t, err := time.ParseInLocation(layout, strings.BytesToString(b), time.UTC)
		if err != nil {
			return 0, parseError(KindTimestamp, b, err)
		}
		return t.Unix(), nil
	})
	p.name = "timestamp(" + layout + ")"
	return p
}

// TimestampWith parses epoch-second timestamps with fn.
func TimestampWith(fn func([]byte) (int64, error)) FieldParser {
	return FieldParser{kind: KindTimestamp, int64Fn: fn}
}

// Utf8 keeps fields as text. Fields must be valid UTF-8.
func Utf8() FieldParser {
	return FieldParser{kind: KindUtf8}
}

// Binary keeps fields as raw bytes.
func Binary() FieldParser {
	return FieldParser{kind: KindBinary}
}

// Dict encodes text fields as dictionary codes.
func Dict() FieldParser {
	return FieldParser{kind: KindDict}
}

func parseInt64(b []byte) (int64, error) {
	v, err := strconv.ParseInt(strings.BytesToString(b), 10, 64)
	if err != nil {
		return 0, parseError(KindInt64, b, err)
	}
	return v, nil
}

func parseUInt32(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(strings.BytesToString(b), 10, 32)
	if err != nil {
		return 0, parseError(KindUInt32, b, err)
	}
	return uint32(v), nil
}

func parseFloat64(b []byte) (float64, error) {
	v, err := strconv.ParseFloat(strings.BytesToString(b), 64)
	if err != nil {
		return 0, parseError(KindFloat64, b, err)
	}
	return v, nil
}

// ParseIPv4 converts a dotted-quad address to its big-endian uint32 value.
func ParseIPv4(b []byte) (uint32, error) {
	addr, err := netip.ParseAddr(strings.BytesToString(b))
	if err != nil {
		return 0, parseError(KindUInt32, b, err)
	}
	if !addr.Is4() {
		return 0, parseError(KindUInt32, b, fmt.Errorf("not an IPv4 address"))
	}
	a4 := addr.As4()
	return binary.BigEndian.Uint32(a4[:]), nil
}

// FormatIPv4 renders a big-endian uint32 address as a dotted quad.
func FormatIPv4(v uint32) string {
	var a4 [4]byte
	binary.BigEndian.PutUint32(a4[:], v)
	return netip.AddrFrom4(a4).String()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 date-times, with either 'T' or a space
// between date and time and an optional zone (UTC when absent), and returns
// whole epoch seconds.
func ParseTimestamp(b []byte) (int64, error) {
	s := strings.BytesToString(b)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.Unix(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, parseError(KindTimestamp, b, firstErr)
}
