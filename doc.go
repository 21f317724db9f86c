// Package strata provides an in-memory columnar engine for CSV event data.
//
// Strata reads delimited text incrementally, types every field with a
// per-column parser, and stores the result as chunked Arrow columns. A table
// of such columns answers event-oriented queries: rendered values per event,
// counts per time bucket, and per-column statistics.
//
// # Architecture
//
// Data flows through four layers:
//
//  1. pkg/csv reads records out of byte slices or streams and holds the field
//     parser registry.
//  2. pkg/ingest materializes a batch of records into one column per parser.
//     Enum columns are dictionary encoded through shared concurrent
//     dictionaries (pkg/columnar).
//  3. pkg/columnar stores a column as a list of immutable Arrow arrays with
//     cumulative lengths for O(log k) row addressing.
//  4. pkg/table maps event ids to rows and runs the queries, delegating the
//     aggregation kernels to pkg/stats.
//
// internal/pipeline ties the layers together: it reads a (possibly
// compressed) source, cuts it into batches, materializes them concurrently and
// appends the batch tables in input order.
//
// # Quick Start
//
//	cfg, err := config.LoadConfig("events.yaml")
//	if err != nil {
//	    return err
//	}
//	loader, err := pipeline.NewLoader(cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := loader.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	defer res.Table.Release()
//
//	stats := res.Table.Statistics(res.Table.AllRows(), loader.Types(),
//	    loader.ReverseEnumMaps(), []uint32{3600}, topN)
//
// # Key Packages
//
//	pkg/csv          - Incremental record reader and field parsers
//	pkg/ingest       - Row-to-column materializer
//	pkg/columnar     - Chunked columns and enum dictionaries
//	pkg/table        - Event tables and queries
//	pkg/stats        - Descriptions, top-N counts and time bucketing
//	pkg/schema       - Column types, schemas and type inference
//	pkg/config       - YAML table configuration
//	pkg/compression  - Source decompression
//	pkg/logger       - Structured logging with zap
//	pkg/metrics      - Prometheus metrics
//
// # Command Line
//
//	strata infer --source events.csv --header > events.yaml
//	strata load --config events.yaml
//	strata stats --config events.yaml --top-n 5
//	strata groupby --config events.yaml --by ts --interval 600
//	strata values --config events.yaml --events 100,101 --columns msg
//
// Every flag can also be set through a STRATA_ environment variable, for
// example STRATA_WORKERS=4. A .env file in the working directory is loaded
// first.
package strata
