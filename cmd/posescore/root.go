package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ahrav/go-posescore/infrastructure/logging"
	"github.com/ahrav/go-posescore/infrastructure/middleware"
	"github.com/ahrav/go-posescore/internal/application"
	"github.com/ahrav/go-posescore/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// rootOptions holds the global flags. Flags override the matching
// configuration values only when set explicitly.
type rootOptions struct {
	configPath       string
	logLevel         string
	logFormat        string
	metricsAddr      string
	poseConcurrency  int
	complexes        int
	method           string
	temperature      float64
	modelKind        string
	modelPath        string
	minAtomsPerChain int
	noGate           bool
}

// environment carries what every subcommand needs once PersistentPreRunE
// has run.
type environment struct {
	cfg      *application.Config
	loader   *application.ConfigLoader
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  ports.MetricsCollector
	source   ports.PoseSource
	server   *http.Server
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	env := &environment{}

	cmd := &cobra.Command{
		Use:   "posescore",
		Short: "Condition-aware scoring of protein interface poses",
		Long: "posescore validates candidate poses of two-chain complexes, computes interface\n" +
			"contact features, scores each pose under the complex's solution conditions and\n" +
			"aggregates pose scores into one prediction per complex.",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.init(cmd.Context(), cmd.Flags(), opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return env.close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "console", "log format (console, json)")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.IntVar(&opts.poseConcurrency, "concurrency", 0, "maximum poses processed at once per complex")
	pf.IntVar(&opts.complexes, "complexes", 1, "maximum complexes scored at once")
	pf.StringVar(&opts.method, "method", "softmax", "aggregation method (best, mean, softmax); summarize defaults to best")
	pf.Float64Var(&opts.temperature, "temperature", 1.0, "softmax temperature")
	pf.StringVar(&opts.modelKind, "model", "dummy", "scoring model kind (dummy, learned)")
	pf.StringVar(&opts.modelPath, "model-path", "", "learned model artifact")
	pf.IntVar(&opts.minAtomsPerChain, "min-atoms-per-chain", 2, "minimum atoms per chain for a valid pose")
	pf.BoolVar(&opts.noGate, "no-gate", false, "score poses that fail validation")

	cmd.AddCommand(
		newScoreCommand(env),
		newSummarizeCommand(env),
		newTopKCommand(env),
		newSweepCommand(env),
		newInspectCommand(env),
	)
	return cmd
}

func (env *environment) init(ctx context.Context, flags *pflag.FlagSet, opts *rootOptions) error {
	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	var cfg *application.Config
	if opts.configPath != "" {
		cfg, err = loader.LoadFromFile(opts.configPath)
	} else {
		cfg, err = loader.Defaults()
	}
	if err != nil {
		return err
	}
	applyFlags(cfg, flags, opts)
	if err := loader.Validate(cfg); err != nil {
		return err
	}
	env.cfg, env.loader = cfg, loader

	env.logger, err = logging.New(cfg.Log)
	if err != nil {
		return err
	}

	env.registry = prometheus.NewRegistry()
	env.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	env.metrics = middleware.NewPrometheusMetrics(env.registry)
	if cfg.Metrics.Addr != "" {
		env.serveMetrics(cfg.Metrics.Addr)
	}

	env.source, err = application.NewPoseSource(ctx, cfg.Sources, env.metrics, env.logger)
	return err
}

func applyFlags(cfg *application.Config, flags *pflag.FlagSet, opts *rootOptions) {
	changed := flags.Changed
	if changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if changed("concurrency") {
		cfg.Concurrency.Poses = opts.poseConcurrency
	}
	if changed("complexes") {
		cfg.Concurrency.Complexes = opts.complexes
	}
	if changed("method") {
		cfg.Aggregation.Method = opts.method
		cfg.Aggregation.SummarizeMethod = opts.method
	}
	if changed("temperature") {
		cfg.Aggregation.Temperature = opts.temperature
	}
	if changed("model") {
		cfg.Model.Kind = opts.modelKind
	}
	if changed("model-path") {
		cfg.Model.Path = opts.modelPath
		if !changed("model") {
			cfg.Model.Kind = "learned"
		}
	}
	if changed("min-atoms-per-chain") {
		cfg.Validation.MinAtomsPerChain = opts.minAtomsPerChain
	}
	if changed("no-gate") {
		gate := !opts.noGate
		cfg.Validation.Gate = &gate
	}
}

func (env *environment) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(env.registry, promhttp.HandlerOpts{Registry: env.registry}))
	env.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := env.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	env.logger.Info("serving metrics", zap.String("addr", addr))
}

func (env *environment) close() error {
	var errs []error
	if env.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = append(errs, env.server.Shutdown(ctx))
	}
	if env.logger != nil {
		// Sync on stderr reports EINVAL on some platforms.
		_ = env.logger.Sync()
	}
	return errors.Join(errs...)
}
