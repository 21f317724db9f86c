package csv

// Record is one parsed row: a flat byte buffer holding every field back to
// back and the end offset of each field. Records are immutable once built.
type Record struct {
	fields []byte
	ends   []int
}

// NewRecord builds a record from a field buffer and strictly increasing end
// offsets into it. It does not copy.
func NewRecord(fields []byte, ends []int) Record {
	return Record{fields: fields, ends: ends}
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.ends)
}

// Get returns field i, or false when the record has fewer fields.
func (r Record) Get(i int) ([]byte, bool) {
	if i < 0 || i >= len(r.ends) {
		return nil, false
	}
	start := 0
	if i > 0 {
		start = r.ends[i-1]
	}
	return r.fields[start:r.ends[i]], true
}

// Fields returns every field as a sub-slice of the record buffer.
func (r Record) Fields() [][]byte {
	out := make([][]byte, len(r.ends))
	start := 0
	for i, end := range r.ends {
		out[i] = r.fields[start:end]
		start = end
	}
	return out
}

// Bytes returns the concatenated field bytes.
func (r Record) Bytes() []byte {
	return r.fields
}
