// Package json encodes query results with goccy/go-json and pooled buffers.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/strata/pkg/pool"
)

// maxPooledBuffer is the largest buffer returned to the pool.
const maxPooledBuffer = 1 << 20

var buffers = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

func getBuffer() *bytes.Buffer { return buffers.Get() }

func putBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	buffers.Put(b)
}

// Marshal is a drop-in replacement for encoding/json.Marshal.
func Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal.
func Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Encode writes v to w followed by a newline. The document is built in a
// pooled buffer so w sees a single Write. indent enables pretty printing.
func Encode(w io.Writer, v any, indent string) error {
	buf := getBuffer()
	defer putBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// StreamingEncoder writes values one at a time, either as line-delimited JSON
// or as the elements of one array.
type StreamingEncoder struct {
	w       io.Writer
	isArray bool
	first   bool
	err     error
}

// NewStreamingEncoder creates an encoder. With isArray the output is a single
// JSON array closed by Close.
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	se := &StreamingEncoder{w: w, isArray: isArray, first: true}
	if isArray {
		_, se.err = w.Write([]byte{'['})
	}
	return se
}

// Encode writes one value. After the first error every call returns it.
func (se *StreamingEncoder) Encode(v any) error {
	if se.err != nil {
		return se.err
	}
	buf := getBuffer()
	defer putBuffer(buf)

	if se.isArray && !se.first {
		buf.WriteByte(',')
	}
	se.first = false

	b, err := gojson.Marshal(v)
	if err != nil {
		se.err = err
		return err
	}
	buf.Write(b)
	if !se.isArray {
		buf.WriteByte('\n')
	}
	_, se.err = se.w.Write(buf.Bytes())
	return se.err
}

// Close terminates the array.
func (se *StreamingEncoder) Close() error {
	if se.err != nil || !se.isArray {
		return se.err
	}
	_, se.err = se.w.Write([]byte("]\n"))
	return se.err
}
