package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pedigreecore/internal/config"
	"pedigreecore/internal/core"
	"pedigreecore/internal/logging"
	"pedigreecore/internal/metrics"
	"pedigreecore/internal/pedigreecsv"
	"pedigreecore/internal/render"
	"pedigreecore/internal/reports"
	"pedigreecore/internal/tracing"
	"pedigreecore/pkg/domain"
)

type inferOptions struct {
	modelPath  string
	workers    int
	format     string
	metricsOut string
	persist    bool
	traceJSON  bool
}

func newInferCmd() *cobra.Command {
	var opts inferOptions
	cmd := &cobra.Command{
		Use:   "infer <pedigree.csv>",
		Short: "Compute posterior marginals for every individual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.modelPath, "model", "", "YAML model file applied over the standard parameters")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel shards (0 selects one per CPU, or PEDIGREECORE_WORKERS)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text, json or csv")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
	cmd.Flags().BoolVar(&opts.traceJSON, "trace-json", false, "write spans as JSON lines to stderr; without it spans go to the OpenTelemetry global provider, a no-op unless one is registered")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "register the pedigree and record the run in the configured store")
	return cmd
}

func runInfer(cmd *cobra.Command, path string, opts inferOptions) error {
	ctx := cmd.Context()
	logger, err := commandLogger(cmd)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	model, err := loadModel(opts.modelPath)
	if err != nil {
		return err
	}
	workers := opts.workers
	if !cmd.Flags().Changed("workers") {
		if workers, err = config.Workers(); err != nil {
			return err
		}
	}
	individuals, err := pedigreecsv.LoadFile(path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	var tracer core.Tracer = tracing.New(nil)
	if opts.traceJSON {
		tracer = core.NewJSONTracer(cmd.ErrOrStderr())
	}
	engine := core.NewEngine(
		core.WithWorkers(workers),
		core.WithEngineLogger(logger),
		core.WithEngineMetrics(rec),
		core.WithEngineTracer(tracer),
	)

	var table domain.PosteriorTable
	if opts.persist {
		svcOpts := []core.ServiceOption{
			core.WithEngine(engine),
			core.WithLogger(logger),
			core.WithMetricsRecorder(rec),
			core.WithTracer(tracer),
		}
		table, err = inferPersisted(ctx, pedigreeName(path), individuals, model, svcOpts)
	} else {
		var p *domain.Pedigree
		if p, err = domain.NewPedigree(individuals); err == nil {
			table, err = engine.Infer(ctx, p, model)
		}
	}
	if opts.metricsOut != "" {
		if werr := prometheus.WriteToTextfile(opts.metricsOut, reg); werr != nil {
			logger.Warn("write metrics textfile failed", "path", opts.metricsOut, "error", werr)
		}
	}
	if err != nil {
		return err
	}
	return render.Write(cmd.OutOrStdout(), format, table)
}

func inferPersisted(ctx context.Context, name string, individuals []domain.Individual, model domain.Model, opts []core.ServiceOption) (domain.PosteriorTable, error) {
	store, err := core.OpenPedigreeStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open pedigree store: %w", err)
	}
	defer closeIfCloser(store)
	cache, err := core.OpenPosteriorCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("open posterior cache: %w", err)
	}
	if cache != nil {
		defer closeIfCloser(cache)
		opts = append(opts, core.WithCache(cache))
	}
	archive, err := reports.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	opts = append(opts, core.WithReportStore(archive))

	svc := core.NewService(store, opts...)
	record, err := svc.RegisterPedigree(ctx, name, individuals)
	if err != nil {
		return nil, err
	}
	run, err := svc.Infer(ctx, record.ID, model)
	if err != nil {
		return nil, err
	}
	return run.Posterior, nil
}

func loadModel(path string) (domain.Model, error) {
	model := domain.StandardModel()
	if path != "" {
		var err error
		if model, err = config.LoadModel(path, model); err != nil {
			return domain.Model{}, err
		}
	}
	return config.ApplyEnv(model)
}

func commandLogger(cmd *cobra.Command) (core.Logger, error) {
	raw, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cmd.ErrOrStderr()), nil
}

func pedigreeName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
