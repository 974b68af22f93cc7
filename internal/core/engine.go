package core

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"pedigreecore/pkg/domain"
)

// Inference is the result of one engine run.
type Inference struct {
	Posterior      domain.PosteriorTable
	Count          EnumerationCount
	Scored         uint64
	PositiveWorlds uint64
	Workers        int
	Duration       time.Duration
}

// Engine computes exact posterior marginals by exhaustive world enumeration.
// Consistent trait sets are dealt round-robin to a fixed number of workers, each
// folding into its own Tally; shard tallies are merged in worker order, so a
// given worker count always yields the same table.
type Engine struct {
	workers int
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets the number of parallel shards. Values below 1 select GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		e.workers = n
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEngineMetrics sets the engine metrics recorder.
func WithEngineMetrics(m MetricsRecorder) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEngineTracer sets the engine tracer.
func WithEngineTracer(t Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine constructs an engine. The default worker count is GOMAXPROCS.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		workers: runtime.GOMAXPROCS(0),
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the configured shard count.
func (e *Engine) Workers() int { return e.workers }

// Infer returns the posterior table of p under model.
func (e *Engine) Infer(ctx context.Context, p *domain.Pedigree, model domain.Model) (domain.PosteriorTable, error) {
	res, err := e.Run(ctx, p, model)
	if err != nil {
		return nil, err
	}
	return res.Posterior, nil
}

// Run performs inference and reports enumeration statistics alongside the table.
func (e *Engine) Run(ctx context.Context, p *domain.Pedigree, model domain.Model) (Inference, error) {
	var res Inference
	err := observe(ctx, e.tracer, e.metrics, e.logger, "engine.infer", func(ctx context.Context) error {
		var err error
		res, err = e.run(ctx, p, model)
		return err
	})
	return res, err
}

// Count sizes the world space of p without scoring it.
func (e *Engine) Count(p *domain.Pedigree) (EnumerationCount, error) {
	enum, err := NewEnumerator(p)
	if err != nil {
		return EnumerationCount{}, err
	}
	return enum.Count(), nil
}

func (e *Engine) run(ctx context.Context, p *domain.Pedigree, model domain.Model) (Inference, error) {
	start := time.Now()
	if err := model.Validate(); err != nil {
		return Inference{}, err
	}
	enum, err := NewEnumerator(p)
	if err != nil {
		return Inference{}, err
	}
	count := enum.Count()
	workers := e.workers
	if uint64(workers) > count.TraitSets {
		workers = int(count.TraitSets)
	}
	e.logger.Debug("enumerating worlds",
		"individuals", count.Individuals,
		"trait_sets", count.TraitSets,
		"pruned_trait_sets", count.Pruned,
		"worlds", count.Worlds,
		"workers", workers,
	)

	shards := make([]*Tally, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		shard := NewTally(p)
		shards[w] = shard
		g.Go(func() error {
			return scoreShard(gctx, enum, model, shard, w, workers)
		})
	}
	if err := g.Wait(); err != nil {
		return Inference{}, err
	}

	total := NewTally(p)
	for _, shard := range shards {
		if err := total.Merge(shard); err != nil {
			return Inference{}, err
		}
	}
	if wr, ok := e.metrics.(WorldsRecorder); ok {
		wr.ObserveWorlds(ctx, total.Worlds(), total.PositiveWorlds())
	}
	table, err := total.Normalize()
	if err != nil {
		return Inference{}, err
	}
	e.logger.Debug("posterior normalized", "scored", total.Worlds(), "positive", total.PositiveWorlds())
	return Inference{
		Posterior:      table,
		Count:          count,
		Scored:         total.Worlds(),
		PositiveWorlds: total.PositiveWorlds(),
		Workers:        workers,
		Duration:       time.Since(start),
	}, nil
}

// scoreShard scores the trait sets whose ordinal is congruent to shard modulo shards.
func scoreShard(ctx context.Context, enum *Enumerator, model domain.Model, tally *Tally, shard, shards int) error {
	p := enum.Pedigree()
	ordinal := 0
	for traits := range enum.TraitSets() {
		mine := ordinal%shards == shard
		ordinal++
		if !mine {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for world := range enum.WorldsWithTraits(traits) {
			prob, err := JointProbability(p, model, world)
			if err != nil {
				return err
			}
			tally.Add(world, prob)
		}
	}
	return nil
}
