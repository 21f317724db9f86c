package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/strata/internal/pipeline"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/json"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/stats"
	"github.com/ajitpratap0/strata/pkg/token"
)

type loadSummary struct {
	Table        string         `json:"table"`
	Rows         int            `json:"rows"`
	Columns      int            `json:"columns"`
	Batches      int            `json:"batches"`
	Header       []string       `json:"header,omitempty"`
	Elapsed      string         `json:"elapsed"`
	Dictionaries map[string]int `json:"dictionaries,omitempty"`
}

func newLoadCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the table and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()

			sum := loadSummary{
				Table:   s.cfg.Name,
				Rows:    s.result.Table.NumRows(),
				Columns: s.result.Table.NumColumns(),
				Batches: s.result.Batches,
				Header:  s.result.Header,
				Elapsed: s.result.Elapsed.String(),
			}
			dicts := s.loader.Dictionaries()
			for _, col := range dicts.Columns() {
				if sum.Dictionaries == nil {
					sum.Dictionaries = make(map[string]int)
				}
				d, _ := dicts.Get(col)
				sum.Dictionaries[s.names[col]] = d.Len()
			}
			return writeJSON(cmd, v, sum)
		},
	}
}

type namedStatistics struct {
	Column string            `json:"column"`
	Type   schema.ColumnType `json:"type"`
	stats.ColumnStatistics
}

func newStatsCmd(v *viper.Viper) *cobra.Command {
	var events []string
	var topN, interval uint32

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Describe every column and list its most frequent values",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()

			rows, err := s.selectRows(events)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top-n") {
				topN = s.cfg.Query.TopN
			}
			if !cmd.Flags().Changed("interval") {
				interval = s.cfg.Query.TimeInterval
			}
			tops := make([]uint32, len(s.types))
			var intervals []uint32
			for i, t := range s.types {
				tops[i] = topN
				if t == schema.DateTime {
					intervals = append(intervals, interval)
				}
			}

			result := s.result.Table.Statistics(rows, s.types, s.loader.ReverseEnumMaps(), intervals, tops)
			out := make([]namedStatistics, len(result))
			for i, cs := range result {
				out[i] = namedStatistics{Column: s.names[i], Type: s.types[i], ColumnStatistics: cs}
			}
			return writeJSON(cmd, v, out)
		},
	}
	cmd.Flags().StringSliceVar(&events, "events", nil, "Restrict to these event ids")
	cmd.Flags().Uint32Var(&topN, "top-n", 10, "Frequent values kept per column")
	cmd.Flags().Uint32Var(&interval, "interval", 3600, "Datetime bucket width in seconds")
	return cmd
}

type namedGroupCount struct {
	Column string `json:"column"`
	stats.GroupCount
}

func newGroupByCmd(v *viper.Viper) *cobra.Command {
	var events, counts []string
	var by string
	var interval uint32

	cmd := &cobra.Command{
		Use:   "groupby",
		Short: "Count rows per datetime bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()

			byCol, err := s.column(by)
			if err != nil {
				return err
			}
			if s.types[byCol] != schema.DateTime {
				return fmt.Errorf("column %q is %s, group by needs a datetime column", by, s.types[byCol])
			}
			countCols, err := s.columns(counts)
			if err != nil {
				return err
			}
			if len(countCols) == 0 {
				countCols = []int{byCol}
			}
			rows, err := s.selectRows(events)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = s.cfg.Query.TimeInterval
			}

			result := s.result.Table.CountGroupBy(rows, s.types, byCol, interval, countCols)
			out := make([]namedGroupCount, len(result))
			for i, gc := range result {
				name := s.names[byCol]
				if gc.CountIndex != nil {
					name = s.names[*gc.CountIndex]
				}
				out[i] = namedGroupCount{Column: name, GroupCount: gc}
			}
			return writeJSON(cmd, v, out)
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "Datetime column to bucket (required)")
	cmd.Flags().StringSliceVar(&counts, "count", nil, "Columns to count; defaults to the group column")
	cmd.Flags().StringSliceVar(&events, "events", nil, "Restrict to these event ids")
	cmd.Flags().Uint32Var(&interval, "interval", 3600, "Bucket width in seconds")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

type namedValues struct {
	Column   string                `json:"column"`
	Messages *token.ColumnMessages `json:"messages"`
}

func newValuesCmd(v *viper.Viper) *cobra.Command {
	var events, columns []string
	var maxLength int
	var unique, raw bool

	cmd := &cobra.Command{
		Use:   "values",
		Short: "Print the values of events",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := open(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer done()

			ids, err := parseEvents(events)
			if err != nil {
				return err
			}
			targets, err := s.columns(columns)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				for i := range s.types {
					targets = append(targets, i)
				}
			}

			if raw {
				return writeJSON(cmd, v, s.result.Table.ColumnRawContent(ids, s.types, targets))
			}

			flag := token.ContentFlag{MaxLength: s.cfg.Query.MaxLength, Unique: s.cfg.Query.Unique}
			if cmd.Flags().Changed("max-length") {
				flag.MaxLength = maxLength
			}
			if cmd.Flags().Changed("unique") {
				flag.Unique = unique
			}
			enc := json.NewStreamingEncoder(cmd.OutOrStdout(), true)
			for _, cv := range s.result.Table.ColumnValues(ids, s.types, targets, flag) {
				if err := enc.Encode(namedValues{Column: s.names[cv.Column], Messages: cv.Messages}); err != nil {
					return err
				}
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringSliceVar(&events, "events", nil, "Event ids to print (required)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to print; defaults to all")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Truncate values to this many characters")
	cmd.Flags().BoolVar(&unique, "unique", false, "Drop repeated values of one event")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print one cell per column per event, null when missing")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func newInferCmd(v *viper.Viper) *cobra.Command {
	var sample int
	var header bool
	var name string

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Guess a table configuration from a sample of the source",
		Long: `Infer reads the first records of the source and prints a YAML table
configuration with one schema column per field. Settings from --config, if
given, are kept; its schema is replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig(name)
			if path := v.GetString("config"); path != "" {
				if err := config.Load(path, cfg); err != nil {
					return err
				}
			}
			if s := v.GetString("source"); s != "" {
				cfg.Source.Path = s
			}
			if cmd.Flags().Changed("header") {
				cfg.Source.HasHeader = header
			}

			hdr, records, err := pipeline.Sample(cmd.Context(), cfg, sample)
			if err != nil {
				return err
			}
			cfg.Schema = pipeline.InferFields(hdr, records, schema.NewInferrer())
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().IntVar(&sample, "sample", 1000, "Records to inspect")
	cmd.Flags().BoolVar(&header, "header", false, "The first record names the columns")
	cmd.Flags().StringVar(&name, "name", "events", "Table name of the generated configuration")
	return cmd
}
