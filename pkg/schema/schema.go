package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/strata/pkg/csv"
)

// Field is one named, typed column.
type Field struct {
	Name string     `yaml:"name" json:"name"`
	Type ColumnType `yaml:"type" json:"type"`
	// Layout overrides timestamp parsing for DateTime fields.
	Layout string `yaml:"layout,omitempty" json:"layout,omitempty"`
}

// Parser returns the field parser for f.
func (f Field) Parser() csv.FieldParser {
	if f.Type == DateTime && f.Layout != "" {
		return csv.TimestampLayout(f.Layout)
	}
	return f.Type.Parser()
}

// Schema is an ordered list of fields.
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

// New builds a schema from parallel name and type slices.
func New(names []string, types []ColumnType) (*Schema, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("schema: %d names for %d types", len(names), len(types))
	}
	s := &Schema{Fields: make([]Field, len(names))}
	for i := range names {
		s.Fields[i] = Field{Name: names[i], Type: types[i]}
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.Fields)
}

// Types returns the column types in field order.
func (s *Schema) Types() []ColumnType {
	out := make([]ColumnType, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Type
	}
	return out
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Index returns the position of the named field.
func (s *Schema) Index(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Parsers returns one field parser per field.
func (s *Schema) Parsers() []csv.FieldParser {
	out := make([]csv.FieldParser, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Parser()
	}
	return out
}

// Arrow returns the Arrow schema. The logical type of every field is kept in
// the field metadata under "strata.type".
func (s *Schema) Arrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{
			Name:     f.Name,
			Type:     f.Type.DataType(),
			Metadata: arrow.NewMetadata([]string{TypeMetadataKey}, []string{f.Type.String()}),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// TypeMetadataKey is the Arrow field metadata key holding the column type.
const TypeMetadataKey = "strata.type"

// FromArrow recovers a schema from an Arrow schema built by Arrow.
func FromArrow(as *arrow.Schema) (*Schema, error) {
	s := &Schema{Fields: make([]Field, as.NumFields())}
	for i, f := range as.Fields() {
		idx := f.Metadata.FindKey(TypeMetadataKey)
		if idx < 0 {
			return nil, fmt.Errorf("schema: field %q has no %s metadata", f.Name, TypeMetadataKey)
		}
		ct, err := ParseColumnType(f.Metadata.Values()[idx])
		if err != nil {
			return nil, err
		}
		s.Fields[i] = Field{Name: f.Name, Type: ct}
	}
	return s, nil
}
