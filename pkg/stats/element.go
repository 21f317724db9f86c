package stats

import (
	"bytes"
	"cmp"
	"fmt"
	"net/netip"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Kind tags the value held by an Element.
type Kind uint8

const (
	KindInt Kind = iota
	KindUInt
	KindFloat
	KindFloatRange
	KindText
	KindEnum
	KindBinary
	KindIpAddr
	KindDateTime
)

var kindNames = [...]string{
	KindInt:        "Int",
	KindUInt:       "UInt",
	KindFloat:      "Float",
	KindFloatRange: "FloatRange",
	KindText:       "Text",
	KindEnum:       "Enum",
	KindBinary:     "Binary",
	KindIpAddr:     "IpAddr",
	KindDateTime:   "DateTime",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// FloatRange is a half-open bucket [Smallest, Largest).
type FloatRange struct {
	Smallest float64 `json:"smallest"`
	Largest  float64 `json:"largest"`
}

// Element is one statistics value. Only the field matching Kind is set; Text
// holds both text and enum labels.
type Element struct {
	Kind   Kind
	Int    int64
	UInt   uint32
	Float  float64
	Range  FloatRange
	Text   string
	Binary []byte
	Addr   netip.Addr
	Time   time.Time
}

func IntElement(v int64) Element { return Element{Kind: KindInt, Int: v} }
func UIntElement(v uint32) Element { return Element{Kind: KindUInt, UInt: v} }
func FloatElement(v float64) Element { return Element{Kind: KindFloat, Float: v} }
func TextElement(s string) Element { return Element{Kind: KindText, Text: s} }
func EnumElement(s string) Element { return Element{Kind: KindEnum, Text: s} }
func BinaryElement(b []byte) Element { return Element{Kind: KindBinary, Binary: b} }
func IPElement(a netip.Addr) Element { return Element{Kind: KindIpAddr, Addr: a} }

// RangeElement returns a float bucket element.
func RangeElement(smallest, largest float64) Element {
	return Element{Kind: KindFloatRange, Range: FloatRange{Smallest: smallest, Largest: largest}}
}

// DateTimeElement returns a datetime element in UTC.
func DateTimeElement(t time.Time) Element {
	return Element{Kind: KindDateTime, Time: t.UTC()}
}

// ipv4 converts a packed big-endian address.
func ipv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// Compare orders elements by kind, then by value.
func Compare(a, b Element) int {
	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindInt:
		return cmp.Compare(a.Int, b.Int)
	case KindUInt:
		return cmp.Compare(a.UInt, b.UInt)
	case KindFloat:
		return cmp.Compare(a.Float, b.Float)
	case KindFloatRange:
		if c := cmp.Compare(a.Range.Smallest, b.Range.Smallest); c != 0 {
			return c
		}
		return cmp.Compare(a.Range.Largest, b.Range.Largest)
	case KindText, KindEnum:
		return cmp.Compare(a.Text, b.Text)
	case KindBinary:
		return bytes.Compare(a.Binary, b.Binary)
	case KindIpAddr:
		return a.Addr.Compare(b.Addr)
	default:
		return a.Time.Compare(b.Time)
	}
}

func (e Element) String() string {
	switch e.Kind {
	case KindInt:
		return strconv.FormatInt(e.Int, 10)
	case KindUInt:
		return strconv.FormatUint(uint64(e.UInt), 10)
	case KindFloat:
		return strconv.FormatFloat(e.Float, 'g', -1, 64)
	case KindFloatRange:
		return fmt.Sprintf("%g-%g", e.Range.Smallest, e.Range.Largest)
	case KindText, KindEnum:
		return e.Text
	case KindBinary:
		return string(e.Binary)
	case KindIpAddr:
		return e.Addr.String()
	default:
		return e.Time.Format(time.DateTime)
	}
}

// MarshalJSON encodes the element as a single-key object named after its
// kind, e.g. {"IpAddr":"127.0.0.1"}.
func (e Element) MarshalJSON() ([]byte, error) {
	var v any
	switch e.Kind {
	case KindInt:
		v = e.Int
	case KindUInt:
		v = e.UInt
	case KindFloat:
		v = e.Float
	case KindFloatRange:
		v = e.Range
	case KindText, KindEnum:
		v = e.Text
	case KindBinary:
		v = e.Binary
	case KindIpAddr:
		v = e.Addr.String()
	case KindDateTime:
		v = e.Time.Format("2006-01-02T15:04:05")
	default:
		return nil, fmt.Errorf("stats: unknown element kind %d", e.Kind)
	}
	return json.Marshal(map[string]any{e.Kind.String(): v})
}
