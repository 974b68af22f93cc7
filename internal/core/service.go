package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pedigreecore/internal/infra/persistence/memory"
	"pedigreecore/internal/render"
	"pedigreecore/internal/reports"
	"pedigreecore/pkg/domain"
)

// Service ties stored pedigrees to the inference engine, recording every run
// and optionally caching posteriors and archiving JSON reports.
type Service struct {
	store   domain.PedigreeStore
	engine  *Engine
	cache   PosteriorCache
	reports reports.Store
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEngine replaces the default engine.
func WithEngine(e *Engine) ServiceOption {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithCache enables posterior caching.
func WithCache(c PosteriorCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithReportStore enables report archiving.
func WithReportStore(r reports.Store) ServiceOption {
	return func(s *Service) { s.reports = r }
}

// WithLogger sets the service logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder sets the service metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the service tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a service over store. Unless WithEngine is given, the
// engine shares the service's logger, metrics recorder and tracer.
func NewService(store domain.PedigreeStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = NewEngine(WithEngineLogger(s.logger), WithEngineMetrics(s.metrics), WithEngineTracer(s.tracer))
	}
	return s
}

// NewInMemoryService creates a service backed by a fresh in-memory store.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the underlying pedigree store.
func (s *Service) Store() domain.PedigreeStore { return s.store }

// Engine returns the inference engine.
func (s *Service) Engine() *Engine { return s.engine }

// RegisterPedigree validates and stores a new pedigree.
func (s *Service) RegisterPedigree(ctx context.Context, name string, individuals []domain.Individual) (domain.PedigreeRecord, error) {
	var saved domain.PedigreeRecord
	err := observe(ctx, s.tracer, s.metrics, s.logger, "register_pedigree", func(ctx context.Context) error {
		var err error
		saved, err = s.store.SavePedigree(ctx, domain.PedigreeRecord{Name: name, Individuals: individuals})
		return err
	})
	if err == nil {
		s.logger.Info("pedigree registered", "pedigree_id", saved.ID, "individuals", len(saved.Individuals))
	}
	return saved, err
}

// Pedigree returns a stored pedigree.
func (s *Service) Pedigree(ctx context.Context, id string) (domain.PedigreeRecord, error) {
	return s.store.GetPedigree(ctx, id)
}

// Pedigrees lists stored pedigrees.
func (s *Service) Pedigrees(ctx context.Context) ([]domain.PedigreeRecord, error) {
	return s.store.ListPedigrees(ctx)
}

// DeletePedigree removes a pedigree and its runs.
func (s *Service) DeletePedigree(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := observe(ctx, s.tracer, s.metrics, s.logger, "delete_pedigree", func(ctx context.Context) error {
		var err error
		deleted, err = s.store.DeletePedigree(ctx, id)
		return err
	})
	return deleted, err
}

// Runs lists the recorded runs of a pedigree, or of all pedigrees when empty.
func (s *Service) Runs(ctx context.Context, pedigreeID string) ([]domain.InferenceRun, error) {
	return s.store.ListRuns(ctx, pedigreeID)
}

// Infer computes the posterior of a stored pedigree under model. Successful and
// failed engine runs are both recorded; a failed run's error is returned.
func (s *Service) Infer(ctx context.Context, pedigreeID string, model domain.Model) (domain.InferenceRun, error) {
	var run domain.InferenceRun
	err := observe(ctx, s.tracer, s.metrics, s.logger, "infer", func(ctx context.Context) error {
		var err error
		run, err = s.infer(ctx, pedigreeID, model)
		return err
	})
	return run, err
}

func (s *Service) infer(ctx context.Context, pedigreeID string, model domain.Model) (domain.InferenceRun, error) {
	record, err := s.store.GetPedigree(ctx, pedigreeID)
	if err != nil {
		return domain.InferenceRun{}, err
	}
	p, err := record.Pedigree()
	if err != nil {
		return domain.InferenceRun{}, err
	}
	if err := model.Validate(); err != nil {
		return domain.InferenceRun{}, err
	}
	fingerprint, err := Fingerprint(p, model)
	if err != nil {
		return domain.InferenceRun{}, err
	}

	run := domain.InferenceRun{
		ID:          uuid.NewString(),
		PedigreeID:  pedigreeID,
		Fingerprint: fingerprint,
		Model:       model,
		StartedAt:   s.now(),
	}
	start := time.Now()

	if table, ok := s.cached(ctx, fingerprint); ok {
		run.Status = domain.RunSucceeded
		run.Cached = true
		run.Posterior = table
	} else {
		res, runErr := s.engine.Run(ctx, p, model)
		if runErr != nil {
			run.Status = domain.RunFailed
			run.Error = runErr.Error()
			run.Duration = time.Since(start)
			if _, err := s.store.SaveRun(ctx, run); err != nil {
				return run, errors.Join(runErr, fmt.Errorf("record failed run: %w", err))
			}
			return run, runErr
		}
		run.Status = domain.RunSucceeded
		run.Posterior = res.Posterior
		run.Worlds = res.Scored
		if s.cache != nil {
			if err := s.cache.Set(ctx, fingerprint, res.Posterior); err != nil {
				s.logger.Warn("posterior cache write failed", "fingerprint", fingerprint, "error", err)
			}
		}
	}
	run.ReportKey = s.archive(ctx, run)
	run.Duration = time.Since(start)

	saved, err := s.store.SaveRun(ctx, run)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	s.logger.Info("inference recorded",
		"run_id", saved.ID,
		"pedigree_id", pedigreeID,
		"cached", saved.Cached,
		"worlds", saved.Worlds,
	)
	return saved, nil
}

func (s *Service) cached(ctx context.Context, fingerprint string) (domain.PosteriorTable, bool) {
	if s.cache == nil {
		return nil, false
	}
	table, ok, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		s.logger.Warn("posterior cache read failed", "fingerprint", fingerprint, "error", err)
		return nil, false
	}
	return table, ok
}

// archive writes the run's posterior report and returns its key, or "" when
// archiving is disabled or fails.
func (s *Service) archive(ctx context.Context, run domain.InferenceRun) string {
	if s.reports == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := render.JSON(&buf, run.Posterior); err != nil {
		s.logger.Warn("render report failed", "run_id", run.ID, "error", err)
		return ""
	}
	key := reports.PosteriorKey(run.ID)
	_, err := s.reports.Put(ctx, key, &buf, reports.PutOptions{
		ContentType: reports.ContentTypeJSON,
		Metadata: map[string]string{
			"pedigree-id": run.PedigreeID,
			"fingerprint": run.Fingerprint,
		},
	})
	if err != nil {
		s.logger.Warn("archive report failed", "run_id", run.ID, "key", key, "error", err)
		return ""
	}
	return key
}

// Fingerprint identifies a pedigree/model pair: the hex sha256 of their
// canonical JSON encoding, with individuals in pedigree order.
func Fingerprint(p *domain.Pedigree, model domain.Model) (string, error) {
	payload := struct {
		Individuals []domain.Individual `json:"individuals"`
		Model       domain.Model        `json:"model"`
	}{Individuals: p.Individuals(), Model: model}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
