// Package config provides the configuration of a strata table.
//
// A Config is organized into logical sections:
//   - Source: Input path, compression and header handling
//   - Reader: CSV dialect and initial buffer sizes
//   - Ingest: Batch size and worker count
//   - EventID: How event ids are assigned to rows
//   - Query: Defaults for statistics and value queries
//   - Schema: Column names and types
//   - Observability: Logging, metrics and tracing
//
// Configuration files are YAML. ${VAR} references are replaced by environment
// values before parsing, so secrets and paths can be injected at runtime:
//
//	name: weblog
//	source:
//	  path: ${DATA_DIR}/access.csv.zst
//	  compression: auto
//	event_id:
//	  column: id
//	schema:
//	  - name: id
//	    type: int64
//	  - name: ts
//	    type: datetime
//	    layout: "2006-01-02 15:04:05"
//	  - name: src
//	    type: ipaddr
//	  - name: method
//	    type: enum
//
// Example usage:
//
//	cfg, err := config.LoadConfig("weblog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Ingest.Workers = 8
package config
