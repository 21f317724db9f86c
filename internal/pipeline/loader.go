// Package pipeline loads a CSV source into a table.
//
// The producer reads records sequentially and cuts them into batches; batches
// are materialized concurrently and appended to the result in input order.
package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/ingest"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/mmap"
	"github.com/ajitpratap0/strata/pkg/observability"
	"github.com/ajitpratap0/strata/pkg/pool"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/table"
)

const readBufferSize = 64 * 1024

// Loader builds tables from the source described by a config. A Loader keeps
// its enum dictionaries across loads, so codes stay stable when the same
// loader reads several sources.
type Loader struct {
	cfg         *config.Config
	schema      *schema.Schema
	arrowSchema *arrow.Schema
	parsers     []csv.FieldParser
	dicts       *columnar.EnumMaps
	eventCol    int

	mem          memory.Allocator
	logger       *zap.Logger
	materializer *ingest.Materializer
	batches      *pool.SlicePool[csv.Record]
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithAllocator sets the allocator used for column buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(ld *Loader) { ld.mem = mem }
}

// Result is a loaded table with a summary of the load.
type Result struct {
	Table *table.Table
	// Header holds the skipped header fields when the source has one
	Header  []string
	Records int
	Batches int
	Elapsed time.Duration
}

// NewLoader validates cfg and prepares the parsers and dictionaries.
func NewLoader(cfg *config.Config, opts ...Option) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := cfg.TableSchema()
	l := &Loader{
		cfg:         cfg,
		schema:      s,
		arrowSchema: s.Arrow(),
		parsers:     s.Parsers(),
		dicts:       columnar.NewEnumMaps(),
		eventCol:    -1,
		mem:         memory.NewGoAllocator(),
		logger:      logger.Get(),
		batches:     pool.NewSlicePool[csv.Record](cfg.Ingest.BatchSize),
	}
	for _, opt := range opts {
		opt(l)
	}
	for i, f := range s.Fields {
		if f.Type == schema.Enum {
			l.dicts.GetOrCreate(i)
		}
	}
	if cfg.EventID.Column != "" {
		l.eventCol, _ = s.Index(cfg.EventID.Column)
	}
	l.materializer = ingest.New(
		ingest.WithAllocator(l.mem),
		ingest.WithLogger(l.logger.With(zap.String("table", cfg.Name))),
		ingest.WithDialect(cfg.Reader.Options()...),
	)
	return l, nil
}

// Schema returns the table schema.
func (l *Loader) Schema() *schema.Schema { return l.schema }

// Types returns the column types in field order.
func (l *Loader) Types() []schema.ColumnType { return l.schema.Types() }

// Dictionaries returns the enum dictionaries by column index.
func (l *Loader) Dictionaries() *columnar.EnumMaps { return l.dicts }

// ReverseEnumMaps returns code to strings maps for every enum column.
func (l *Loader) ReverseEnumMaps() map[int]map[uint64][]string { return l.dicts.Reverse() }

// Load opens the configured source path and loads it. A path of "-" reads
// standard input.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	path := l.cfg.Source.Path
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "source path is required")
	}
	if path == "-" {
		return l.LoadReader(ctx, os.Stdin, path)
	}
	if l.cfg.Source.MemoryMap && compression.Resolve(l.cfg.Source.Compression, path) == compression.None {
		return l.loadMapped(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "open source").WithDetail("path", path)
	}
	defer f.Close()
	return l.LoadReader(ctx, f, path)
}

// loadMapped maps the file and reads records straight out of the mapping.
func (l *Loader) loadMapped(ctx context.Context, path string) (*Result, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "map source").WithDetail("path", path)
	}
	defer m.Close()

	r := csv.NewReader(l.cfg.Reader.Options()...)
	data, offset := m.Bytes(), 0
	return l.load(ctx, path, func() (csv.Record, bool, error) {
		rec, n, ok := r.ReadSlice(data[offset:])
		offset += n
		return rec, ok, nil
	})
}

// nextRecord returns the next record, or false at end of input.
type nextRecord func() (csv.Record, bool, error)

type batch struct {
	index   int
	first   int
	records []csv.Record
	table   *table.Table
}

// LoadReader loads src. name selects the decompressor when compression is
// auto and labels logs and spans.
func (l *Loader) LoadReader(ctx context.Context, src io.Reader, name string) (*Result, error) {
	algo := compression.Resolve(l.cfg.Source.Compression, name)
	rc, err := compression.NewReader(src, algo)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "open decompressor").WithDetail("compression", algo)
	}
	defer rc.Close()

	r := csv.NewReader(l.cfg.Reader.Options()...)
	buf := bufio.NewReaderSize(rc, readBufferSize)
	return l.load(ctx, name, func() (csv.Record, bool, error) {
		return r.Read(buf)
	})
}

func (l *Loader) load(ctx context.Context, name string, next nextRecord) (res *Result, err error) {
	start := time.Now()
	ctx = logger.ContextWithSource(logger.ContextWithTable(ctx, l.cfg.Name), name)
	ctx, span := observability.StartSpan(ctx, "pipeline.load",
		attribute.String("table", l.cfg.Name),
		attribute.String("source", name))
	defer func() { span.Finish(err) }()

	res = &Result{}
	var batches []*batch
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Ingest.GetWorkers())

	dispatch := func(b *batch) {
		batches = append(batches, b)
		g.Go(func() error {
			defer func() {
				l.batches.Put(b.records)
				b.records = nil
			}()
			return l.materialize(gctx, b)
		})
	}

	readErr := l.read(gctx, next, res, dispatch)
	if err := g.Wait(); err != nil {
		releaseBatches(batches)
		l.log(ctx).Error("load failed", logger.ErrorFields(err)...)
		return nil, err
	}
	if readErr != nil {
		releaseBatches(batches)
		l.log(ctx).Error("load failed", logger.ErrorFields(readErr)...)
		return nil, readErr
	}

	out, err := l.assemble(batches)
	if err != nil {
		return nil, err
	}
	res.Table = out
	res.Batches = len(batches)
	res.Elapsed = time.Since(start)

	metrics.TableRows.WithLabelValues(l.cfg.Name).Set(float64(out.NumRows()))
	for _, col := range l.dicts.Columns() {
		d, _ := l.dicts.Get(col)
		metrics.DictionarySize.WithLabelValues(l.schema.Fields[col].Name).Set(float64(d.Len()))
	}
	span.SetAttribute("rows", out.NumRows())
	span.SetAttribute("batches", res.Batches)
	l.log(ctx).Info("table loaded",
		zap.Int("rows", out.NumRows()),
		zap.Int("columns", out.NumColumns()),
		zap.Int("batches", res.Batches),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// read is the producer. It stops early when ctx is done, which happens when a
// batch fails.
func (l *Loader) read(ctx context.Context, next nextRecord, res *Result, dispatch func(*batch)) error {
	size := l.cfg.Ingest.BatchSize
	cur := &batch{records: l.batches.Get()}

	for {
		if err := ctx.Err(); err != nil {
			l.batches.Put(cur.records)
			return err
		}
		rec, ok, err := next()
		if err != nil {
			l.batches.Put(cur.records)
			return errors.Wrap(err, errors.ErrorTypeFile, "read source").WithDetail("record", res.Records)
		}
		if !ok {
			break
		}
		if l.cfg.Source.HasHeader && res.Header == nil {
			res.Header = headerNames(rec)
			l.checkHeader(ctx, res.Header)
			continue
		}
		cur.records = append(cur.records, rec)
		res.Records++
		if len(cur.records) == size {
			dispatch(cur)
			cur = &batch{index: cur.index + 1, first: res.Records, records: l.batches.Get()}
		}
	}
	// An empty source still yields one empty batch so the table has its
	// columns.
	if len(cur.records) > 0 || cur.index == 0 {
		dispatch(cur)
	} else {
		l.batches.Put(cur.records)
	}
	return nil
}

func (l *Loader) materialize(ctx context.Context, b *batch) error {
	return observability.TraceBatch(ctx, "pipeline.materialize", b.index, len(b.records), func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cols, err := l.materializer.Records(b.records, l.parsers, l.dicts)
		if err != nil {
			errType := errors.TypeOf(err)
			if errType == "" {
				errType = errors.ErrorTypeData
			}
			return errors.Wrap(err, errType, "materialize batch").
				WithDetail("batch", b.index).
				WithDetail("first_record", b.first)
		}
		ids, err := l.eventIDs(cols, b)
		if err != nil {
			releaseColumns(cols)
			return err
		}
		t, err := table.New(l.arrowSchema, cols, ids)
		if err != nil {
			releaseColumns(cols)
			return err
		}
		b.table = t
		log := l.log(logger.ContextWithBatch(ctx, b.index))
		if ce := log.Check(zap.DebugLevel, "batch materialized"); ce != nil {
			ce.Write(zap.Int("rows", len(b.records)))
		}
		return nil
	})
}

// eventIDs maps event ids to batch rows. Later rows win on duplicate ids.
func (l *Loader) eventIDs(cols []*columnar.Column, b *batch) (map[uint64]int, error) {
	n := len(b.records)
	ids := make(map[uint64]int, n)
	if l.eventCol < 0 {
		for row := 0; row < n; row++ {
			ids[l.cfg.EventID.Base+uint64(b.first+row)] = row
		}
		return ids, nil
	}
	values, err := columnar.Values[int64](cols[l.eventCol])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTypeMismatch, "event id column").
			WithDetail("column", l.cfg.EventID.Column)
	}
	for row, v := range values {
		ids[uint64(v)] = row
	}
	return ids, nil
}

// assemble appends the batch tables in input order.
func (l *Loader) assemble(batches []*batch) (*table.Table, error) {
	out, err := table.New(l.arrowSchema, nil, nil)
	if err != nil {
		return nil, err
	}
	for i, b := range batches {
		if err := out.Append(b.table); err != nil {
			out.Release()
			releaseBatches(batches[i:])
			return nil, err
		}
		b.table = nil
	}
	return out, nil
}

// log returns the loader's logger annotated with the table, source and batch
// carried by ctx.
func (l *Loader) log(ctx context.Context) *zap.Logger {
	return logger.Annotate(ctx, l.logger)
}

func (l *Loader) checkHeader(ctx context.Context, header []string) {
	log := l.log(ctx)
	names := l.schema.Names()
	if len(header) != len(names) {
		log.Warn("header width differs from schema",
			zap.Int("header_fields", len(header)),
			zap.Int("schema_fields", len(names)))
		return
	}
	for i, name := range names {
		if header[i] != name {
			log.Warn("header name differs from schema",
				zap.Int("column", i),
				zap.String("header", header[i]),
				zap.String("schema", name))
		}
	}
}

func headerNames(rec csv.Record) []string {
	fields := rec.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func releaseBatches(batches []*batch) {
	for _, b := range batches {
		if b.table != nil {
			b.table.Release()
			b.table = nil
		}
	}
}

func releaseColumns(cols []*columnar.Column) {
	for _, c := range cols {
		c.Release()
	}
}
