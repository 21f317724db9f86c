// Package ingest turns parsed rows into columns.
//
// Every column gets exactly one value per row. Scalar fields that are absent,
// empty or unparsable are stored as zero and counted in the
// strata_parse_substitutions_total metric; they never fail a batch. Text and
// enum fields that are not valid UTF-8 fail the whole batch.
package ingest

import (
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
)

// Materializer builds columns from records.
type Materializer struct {
	mem     memory.Allocator
	logger  *zap.Logger
	dialect []csv.Option
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithAllocator sets the allocator used for column buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(m *Materializer) { m.mem = mem }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Materializer) { m.logger = l }
}

// WithDialect sets the reader options used to split raw rows.
func WithDialect(opts ...csv.Option) Option {
	return func(m *Materializer) { m.dialect = opts }
}

// New creates a materializer. It defaults to the Go allocator and the global
// logger.
func New(opts ...Option) *Materializer {
	m := &Materializer{
		mem:    memory.NewGoAllocator(),
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordsToColumns splits each raw row into fields and builds one column per
// parser with the default materializer.
func RecordsToColumns(rows [][]byte, parsers []csv.FieldParser, labels *columnar.EnumMaps) ([]*columnar.Column, error) {
	return New().Rows(rows, parsers, labels)
}

// Rows splits each raw row into fields and materializes them.
func (m *Materializer) Rows(rows [][]byte, parsers []csv.FieldParser, labels *columnar.EnumMaps) ([]*columnar.Column, error) {
	return m.Records(csv.RecordsFromData(rows, m.dialect...), parsers, labels)
}

// Records builds one column per parser, each holding exactly len(records)
// values. Field i of every record feeds column i. labels supplies the
// dictionaries of Dict columns by column index and may be nil.
func (m *Materializer) Records(records []csv.Record, parsers []csv.FieldParser, labels *columnar.EnumMaps) (cols []*columnar.Column, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.BatchesMaterialized.WithLabelValues(status).Inc()
		metrics.MaterializeLatency.Observe(time.Since(start).Seconds())
	}()

	cols = make([]*columnar.Column, 0, len(parsers))
	for i, p := range parsers {
		arr, err := m.buildColumn(records, i, p, labels)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, columnar.FromArray(arr))
	}

	metrics.RowsIngested.Add(float64(len(records)))
	m.logger.Debug("materialized batch",
		zap.Int("rows", len(records)),
		zap.Int("columns", len(parsers)),
		zap.Duration("elapsed", time.Since(start)))
	return cols, nil
}

// buildColumn recovers allocator panics so allocation failure surfaces as an
// error like every other fatal condition.
func (m *Materializer) buildColumn(records []csv.Record, col int, p csv.FieldParser, labels *columnar.EnumMaps) (arr arrow.Array, err error) {
	defer func() {
		if r := recover(); r != nil {
			arr = nil
			err = errors.Newf(errors.ErrorTypeAllocation, "column %d (%s): %v", col, p, r).
				WithDetail("column", col)
		}
	}()

	switch p.Kind() {
	case csv.KindInt64, csv.KindTimestamp:
		return m.buildInt64(records, col, p), nil
	case csv.KindUInt32:
		return m.buildUInt32(records, col, p), nil
	case csv.KindFloat64:
		return m.buildFloat64(records, col, p), nil
	case csv.KindUtf8:
		return m.buildUtf8(records, col)
	case csv.KindBinary:
		return m.buildBinary(records, col), nil
	case csv.KindDict:
		d, _ := labels.Get(col)
		return m.buildDict(records, col, d)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "column %d: unknown parser kind %d", col, p.Kind())
	}
}

// field returns the bytes of field col, or false when the record is too short
// or the field is empty.
func field(rec csv.Record, col int) ([]byte, bool) {
	b, ok := rec.Get(col)
	if !ok || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (m *Materializer) substituted(p csv.FieldParser, col, row int, err error) {
	metrics.ParseSubstitutions.WithLabelValues(p.Kind().String()).Inc()
	if ce := m.logger.Check(zap.DebugLevel, "field parse failed, storing zero"); ce != nil {
		ce.Write(zap.Int("column", col), zap.Int("row", row), zap.Error(err))
	}
}

func (m *Materializer) buildInt64(records []csv.Record, col int, p csv.FieldParser) arrow.Array {
	b := array.NewInt64Builder(m.mem)
	defer b.Release()
	b.Reserve(len(records))
	for row, rec := range records {
		var v int64
		if raw, ok := field(rec, col); ok {
			parsed, err := p.ParseInt64(raw)
			if err != nil {
				m.substituted(p, col, row, err)
			} else {
				v = parsed
			}
		}
		b.UnsafeAppend(v)
	}
	return b.NewArray()
}

func (m *Materializer) buildUInt32(records []csv.Record, col int, p csv.FieldParser) arrow.Array {
	b := array.NewUint32Builder(m.mem)
	defer b.Release()
	b.Reserve(len(records))
	for row, rec := range records {
		var v uint32
		if raw, ok := field(rec, col); ok {
			parsed, err := p.ParseUInt32(raw)
			if err != nil {
				m.substituted(p, col, row, err)
			} else {
				v = parsed
			}
		}
		b.UnsafeAppend(v)
	}
	return b.NewArray()
}

func (m *Materializer) buildFloat64(records []csv.Record, col int, p csv.FieldParser) arrow.Array {
	b := array.NewFloat64Builder(m.mem)
	defer b.Release()
	b.Reserve(len(records))
	for row, rec := range records {
		var v float64
		if raw, ok := field(rec, col); ok {
			parsed, err := p.ParseFloat64(raw)
			if err != nil {
				m.substituted(p, col, row, err)
			} else {
				v = parsed
			}
		}
		b.UnsafeAppend(v)
	}
	return b.NewArray()
}

func encodingError(kind csv.Kind, col, row int) error {
	metrics.EncodingFailures.WithLabelValues(kind.String()).Inc()
	return errors.Newf(errors.ErrorTypeEncoding, "column %d row %d: invalid UTF-8", col, row).
		WithDetail("column", col).
		WithDetail("row", row)
}

func dataSize(records []csv.Record, col int) int {
	n := 0
	for _, rec := range records {
		if b, ok := rec.Get(col); ok {
			n += len(b)
		}
	}
	return n
}

func (m *Materializer) buildUtf8(records []csv.Record, col int) (arrow.Array, error) {
	b := array.NewStringBuilder(m.mem)
	defer b.Release()
	b.Reserve(len(records))
	b.ReserveData(dataSize(records, col))
	for row, rec := range records {
		raw, _ := rec.Get(col)
		if !utf8.Valid(raw) {
			return nil, encodingError(csv.KindUtf8, col, row)
		}
		b.BinaryBuilder.Append(raw)
	}
	return b.NewArray(), nil
}

func (m *Materializer) buildBinary(records []csv.Record, col int) arrow.Array {
	b := array.NewBinaryBuilder(m.mem, arrow.BinaryTypes.Binary)
	defer b.Release()
	b.Reserve(len(records))
	b.ReserveData(dataSize(records, col))
	for _, rec := range records {
		raw, _ := rec.Get(col)
		b.Append(raw)
	}
	return b.NewArray()
}

func (m *Materializer) buildDict(records []csv.Record, col int, d *columnar.Dictionary) (arrow.Array, error) {
	b := array.NewUint32Builder(m.mem)
	defer b.Release()
	b.Reserve(len(records))
	for row, rec := range records {
		raw, _ := rec.Get(col)
		if !utf8.Valid(raw) {
			return nil, encodingError(csv.KindDict, col, row)
		}
		if d == nil {
			b.UnsafeAppend(columnar.NoDictionary)
			continue
		}
		b.UnsafeAppend(d.Observe(string(raw)))
	}
	return b.NewArray(), nil
}
