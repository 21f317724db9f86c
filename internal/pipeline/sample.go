package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/csv"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Sample reads up to n records of the configured source without building
// columns. Only the source and reader settings of cfg are used, so the schema
// may be empty. The header row, when configured, is returned separately.
func Sample(ctx context.Context, cfg *config.Config, n int) (header []string, records []csv.Record, err error) {
	path := cfg.Source.Path
	if path == "" {
		return nil, nil, errors.New(errors.ErrorTypeConfig, "source path is required")
	}
	src := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "open source").WithDetail("path", path)
		}
		defer f.Close()
		src = f
	}
	rc, err := compression.NewReader(src, compression.Resolve(cfg.Source.Compression, path))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "open decompressor")
	}
	defer rc.Close()

	r := csv.NewReader(cfg.Reader.Options()...)
	buf := bufio.NewReaderSize(rc, readBufferSize)
	for n <= 0 || len(records) < n {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		rec, ok, err := r.Read(buf)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "read source")
		}
		if !ok {
			break
		}
		if cfg.Source.HasHeader && header == nil {
			header = headerNames(rec)
			continue
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// InferFields names and types the columns of sampled records. Names come from
// header where present and default to column_<i>.
func InferFields(header []string, records []csv.Record, inf *schema.Inferrer) []schema.Field {
	types := inf.Infer(records)
	width := max(len(types), len(header))
	fields := make([]schema.Field, width)
	for i := range fields {
		name := fmt.Sprintf("column_%d", i)
		if i < len(header) && header[i] != "" {
			name = header[i]
		}
		t := schema.Utf8
		if i < len(types) {
			t = types[i]
		}
		fields[i] = schema.Field{Name: name, Type: t}
	}
	return fields
}
