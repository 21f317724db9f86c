// Package csv reads delimited text into records without scanning any byte
// twice and converts record fields into typed values.
//
// The Reader drives a Tokenizer over two growable scratch buffers, one for
// field bytes and one for field end offsets. Whenever the tokenizer reports a
// full buffer the reader grows it and retries, so record boundaries never
// depend on the initial buffer sizes.
package csv

import (
	"bufio"
	"errors"
	"io"
	"iter"
)

const (
	// DefaultFieldBufferSize is the initial capacity of the field byte buffer.
	DefaultFieldBufferSize = 1024
	// DefaultEndsBufferSize is the initial capacity of the field end buffer.
	DefaultEndsBufferSize = 32

	minGrowStep = 4
)

type dialect struct {
	delimiter   byte
	quote       byte
	quoting     bool
	doubleQuote bool
	fieldSize   int
	endsSize    int
}

func defaultDialect() dialect {
	return dialect{
		delimiter:   ',',
		quote:       '"',
		quoting:     true,
		doubleQuote: true,
		fieldSize:   DefaultFieldBufferSize,
		endsSize:    DefaultEndsBufferSize,
	}
}

// Option configures a Reader or Tokenizer.
type Option func(*dialect)

// WithDelimiter sets the field delimiter.
func WithDelimiter(b byte) Option {
	return func(d *dialect) { d.delimiter = b }
}

// WithQuote sets the quote byte. Zero disables quoting.
func WithQuote(b byte) Option {
	return func(d *dialect) {
		d.quote = b
		d.quoting = b != 0
	}
}

// WithDoubleQuote controls whether a doubled quote inside a quoted field is
// read as a literal quote.
func WithDoubleQuote(enabled bool) Option {
	return func(d *dialect) { d.doubleQuote = enabled }
}

// WithBufferSizes sets the initial scratch buffer sizes. Sizes below zero are
// treated as zero; the buffers grow on demand.
func WithBufferSizes(fieldBytes, fieldEnds int) Option {
	return func(d *dialect) {
		d.fieldSize = max(fieldBytes, 0)
		d.endsSize = max(fieldEnds, 0)
	}
}

// Reader splits byte input into Records.
type Reader struct {
	tok *Tokenizer

	fields []byte
	ends   []int
	nfield int
	nend   int
}

// NewReader creates a reader with the given options.
func NewReader(opts ...Option) *Reader {
	d := defaultDialect()
	for _, opt := range opts {
		opt(&d)
	}
	return &Reader{
		tok:    newTokenizer(d),
		fields: make([]byte, d.fieldSize),
		ends:   make([]int, d.endsSize),
	}
}

// Reset discards any partially read record and readies the reader for a new
// stream. Scratch buffers keep their grown size.
func (r *Reader) Reset() {
	r.tok.Reset()
	r.nfield = 0
	r.nend = 0
}

// ReadSlice reads the next record from input, which must hold the rest of the
// stream. It returns the record, the number of bytes of input consumed, and
// false once the stream is exhausted.
func (r *Reader) ReadSlice(input []byte) (Record, int, bool) {
	consumed := 0
	rec, ok, _ := r.next(
		func() ([]byte, error) { return input[consumed:], nil },
		func(n int) { consumed += n },
	)
	return rec, consumed, ok
}

// Read reads the next record from src. It returns false with a nil error at
// end of stream. Bytes are acknowledged on src as soon as the tokenizer has
// consumed them.
func (r *Reader) Read(src *bufio.Reader) (Record, bool, error) {
	var discardErr error
	rec, ok, err := r.next(
		func() ([]byte, error) {
			if _, err := src.Peek(1); err != nil {
				if errors.Is(err, io.EOF) {
					return nil, nil
				}
				return nil, err
			}
			return src.Peek(src.Buffered())
		},
		func(n int) {
			if _, err := src.Discard(n); err != nil && discardErr == nil {
				discardErr = err
			}
		},
	)
	if err != nil {
		return Record{}, false, err
	}
	if discardErr != nil {
		return Record{}, false, discardErr
	}
	return rec, ok, nil
}

// Records returns every record in input.
func (r *Reader) Records(input []byte) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		r.Reset()
		offset := 0
		for {
			rec, n, ok := r.ReadSlice(input[offset:])
			offset += n
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// next is the grow-and-retry loop shared by both entry points. fill returns
// the currently available input (empty at end of stream) and consume
// acknowledges bytes the tokenizer used.
func (r *Reader) next(fill func() ([]byte, error), consume func(int)) (Record, bool, error) {
	for {
		input, err := fill()
		if err != nil {
			return Record{}, false, err
		}
		res, nin, nout, nend := r.tok.ReadRecord(input, r.fields[r.nfield:], r.ends[r.nend:])
		consume(nin)
		r.nfield += nout
		r.nend += nend

		switch res {
		case InputEmpty:
		case OutputFull:
			r.fields = growBytes(r.fields, r.nfield)
		case OutputEndsFull:
			r.ends = growInts(r.ends, r.nend)
		case RecordDone:
			return r.take(), true, nil
		case End:
			return Record{}, false, nil
		}
	}
}

// take truncates both scratch buffers to their written length and moves the
// result into an exactly sized Record. The scratch buffers keep their grown
// capacity for the next record.
func (r *Reader) take() Record {
	fields := make([]byte, r.nfield)
	copy(fields, r.fields[:r.nfield])
	ends := make([]int, r.nend)
	copy(ends, r.ends[:r.nend])
	r.nfield = 0
	r.nend = 0
	return NewRecord(fields, ends)
}

func growBytes(buf []byte, written int) []byte {
	next := make([]byte, len(buf)+max(len(buf), minGrowStep))
	copy(next, buf[:written])
	return next
}

func growInts(buf []int, written int) []int {
	next := make([]int, len(buf)+max(len(buf), minGrowStep))
	copy(next, buf[:written])
	return next
}

// RecordsFromData parses one record out of each row. Rows that hold no record
// produce an empty Record so the result stays aligned with rows.
func RecordsFromData(rows [][]byte, opts ...Option) []Record {
	r := NewReader(opts...)
	out := make([]Record, len(rows))
	for i, row := range rows {
		r.Reset()
		if rec, _, ok := r.ReadSlice(row); ok {
			out[i] = rec
		}
	}
	return out
}
