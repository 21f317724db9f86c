package csv

// ReadResult reports why a call to Tokenizer.ReadRecord returned.
type ReadResult int

const (
	// InputEmpty means all input was consumed and more is needed to finish
	// the current record.
	InputEmpty ReadResult = iota
	// OutputFull means the field byte buffer has no room left.
	OutputFull
	// OutputEndsFull means the field end buffer has no room left.
	OutputEndsFull
	// RecordDone means a complete record was written.
	RecordDone
	// End means the stream is exhausted and no record is pending.
	End
)

func (r ReadResult) String() string {
	switch r {
	case InputEmpty:
		return "input_empty"
	case OutputFull:
		return "output_full"
	case OutputEndsFull:
		return "output_ends_full"
	case RecordDone:
		return "record"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

type tokState uint8

const (
	stateStartRecord tokState = iota
	stateStartField
	stateInField
	stateInQuoted
	stateQuoteInQuoted
)

// Tokenizer is a resumable delimited-text state machine. It never allocates:
// the caller supplies the input and both output buffers on every call and the
// tokenizer reports how much of each it used. Field end offsets are relative
// to the start of the current record and stay valid across calls that split
// one record.
//
// An empty input slice signals end of stream.
type Tokenizer struct {
	delimiter   byte
	quote       byte
	quoting     bool
	doubleQuote bool

	state     tokState
	recordOut int
	eof       bool
}

// NewTokenizer returns a tokenizer for comma separated input with double
// quote quoting.
func NewTokenizer(opts ...Option) *Tokenizer {
	d := defaultDialect()
	for _, opt := range opts {
		opt(&d)
	}
	return newTokenizer(d)
}

func newTokenizer(d dialect) *Tokenizer {
	return &Tokenizer{
		delimiter:   d.delimiter,
		quote:       d.quote,
		quoting:     d.quoting,
		doubleQuote: d.doubleQuote,
	}
}

// Reset returns the tokenizer to the start of a new stream.
func (t *Tokenizer) Reset() {
	t.state = stateStartRecord
	t.recordOut = 0
	t.eof = false
}

// ReadRecord tokenizes input into output and ends. It returns the reason it
// stopped together with the number of input bytes consumed, field bytes
// written and field ends written.
func (t *Tokenizer) ReadRecord(input, output []byte, ends []int) (res ReadResult, nin, nout, nend int) {
	if len(input) == 0 {
		return t.finish(ends)
	}
	t.eof = false

	for nin < len(input) {
		b := input[nin]
		switch t.state {
		case stateStartRecord:
			if isTerminator(b) {
				nin++
				continue
			}
			t.state = stateStartField

		case stateStartField:
			if t.quoting && b == t.quote {
				nin++
				t.state = stateInQuoted
				continue
			}
			t.state = stateInField

		case stateInField:
			if b == t.delimiter {
				if nend == len(ends) {
					return OutputEndsFull, nin, nout, nend
				}
				ends[nend] = t.recordOut
				nend++
				nin++
				t.state = stateStartField
				continue
			}
			if isTerminator(b) {
				if nend == len(ends) {
					return OutputEndsFull, nin, nout, nend
				}
				ends[nend] = t.recordOut
				nend++
				nin++
				t.state = stateStartRecord
				t.recordOut = 0
				return RecordDone, nin, nout, nend
			}
			if nout == len(output) {
				return OutputFull, nin, nout, nend
			}
			output[nout] = b
			nout++
			t.recordOut++
			nin++

		case stateInQuoted:
			if b == t.quote {
				nin++
				t.state = stateQuoteInQuoted
				continue
			}
			if nout == len(output) {
				return OutputFull, nin, nout, nend
			}
			output[nout] = b
			nout++
			t.recordOut++
			nin++

		case stateQuoteInQuoted:
			if t.doubleQuote && b == t.quote {
				if nout == len(output) {
					return OutputFull, nin, nout, nend
				}
				output[nout] = b
				nout++
				t.recordOut++
				nin++
				t.state = stateInQuoted
				continue
			}
			// Closing quote; whatever follows is handled as unquoted text.
			t.state = stateInField
		}
	}
	return InputEmpty, nin, nout, nend
}

// finish handles end of stream, completing a pending record first.
func (t *Tokenizer) finish(ends []int) (ReadResult, int, int, int) {
	if t.eof || t.state == stateStartRecord {
		t.eof = true
		return End, 0, 0, 0
	}
	if len(ends) == 0 {
		return OutputEndsFull, 0, 0, 0
	}
	ends[0] = t.recordOut
	t.state = stateStartRecord
	t.recordOut = 0
	return RecordDone, 0, 0, 1
}

func isTerminator(b byte) bool {
	return b == '\n' || b == '\r'
}
