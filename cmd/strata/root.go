package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/internal/pipeline"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/json"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/observability"
	"github.com/ajitpratap0/strata/pkg/schema"
	"github.com/ajitpratap0/strata/pkg/table"
)

// session is a loaded table and everything needed to query it.
type session struct {
	cfg    *config.Config
	loader *pipeline.Loader
	result *pipeline.Result
	names  []string
	types  []schema.ColumnType
}

func (s *session) close() {
	s.result.Table.Release()
}

// column resolves a column name to its index.
func (s *session) column(name string) (int, error) {
	i, ok := s.loader.Schema().Index(name)
	if !ok {
		return 0, fmt.Errorf("unknown column %q", name)
	}
	return i, nil
}

func (s *session) columns(names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, n := range names {
		i, err := s.column(n)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "strata",
		Short: "Strata - in-memory columnar event tables",
		Long: `Strata loads CSV event data into typed in-memory columns and answers
statistics, group-by and value queries over it.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to the table configuration YAML file (required)")
	flags.StringP("source", "s", "", "Override the source path; - reads standard input")
	flags.Int("batch-size", 0, "Records materialized together")
	flags.Int("workers", 0, "Concurrent batch workers (0 uses all CPUs)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.Bool("trace", false, "Export OpenTelemetry spans to stderr")
	flags.Bool("pretty", false, "Indent JSON output")
	_ = v.BindPFlags(flags)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Strata v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(
		newLoadCmd(v),
		newStatsCmd(v),
		newGroupByCmd(v),
		newValuesCmd(v),
		newInferCmd(v),
	)
	return root
}

// loadConfig reads the config file and applies flag and environment
// overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		return nil, errors.New("--config is required")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if s := v.GetString("source"); s != "" {
		cfg.Source.Path = s
	}
	if n := v.GetInt("batch-size"); n > 0 {
		cfg.Ingest.BatchSize = n
	}
	if n := v.GetInt("workers"); n > 0 {
		cfg.Ingest.Workers = n
	}
	if l := v.GetString("log-level"); l != "" {
		cfg.Observability.LogLevel = l
	}
	if a := v.GetString("metrics-addr"); a != "" {
		cfg.Observability.MetricsAddr = a
	}
	if v.GetBool("trace") {
		cfg.Observability.EnableTracing = true
	}
	return cfg, cfg.Validate()
}

// open loads the configured table. The returned cleanup flushes logs and
// spans.
func open(ctx context.Context, v *viper.Viper) (*session, func(), error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Observability.Logger()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get().With(zap.String("component", "strata-cli"))

	cleanup := func() { _ = logger.Sync() }
	if cfg.Observability.EnableTracing {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = version
		shutdown, err := observability.Initialize(tc)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Warn("failed to flush spans", zap.Error(err))
			}
			_ = logger.Sync()
		}
	}
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		serveMetrics(addr, log)
	}

	loader, err := pipeline.NewLoader(cfg, pipeline.WithLogger(log))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	res, err := loader.Load(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	s := &session{
		cfg:    cfg,
		loader: loader,
		result: res,
		names:  loader.Schema().Names(),
		types:  loader.Types(),
	}
	return s, func() { s.close(); cleanup() }, nil
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
}

func writeJSON(cmd *cobra.Command, v *viper.Viper, value any) error {
	indent := ""
	if v.GetBool("pretty") {
		indent = "  "
	}
	return json.Encode(cmd.OutOrStdout(), value, indent)
}

func parseEvents(raw []string) ([]uint64, error) {
	out := make([]uint64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid event id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// selectRows returns the rows of the given events, or every row when no
// events are given.
func (s *session) selectRows(rawEvents []string) ([]int, error) {
	if len(rawEvents) == 0 {
		return s.result.Table.AllRows(), nil
	}
	events, err := parseEvents(rawEvents)
	if err != nil {
		return nil, err
	}
	return table.Rows(s.result.Table.EventRows(events)), nil
}
