// Package memory provides an in-memory implementation of the pedigree store
// used for tests, ephemeral runs and as the state holder of the snapshotting
// sqlite and postgres backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pedigreecore/pkg/domain"
)

var _ domain.PedigreeStore = (*Store)(nil)

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Pedigrees map[string]domain.PedigreeRecord `json:"pedigrees"`
	Runs      map[string]domain.InferenceRun   `json:"runs"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Pedigrees: make(map[string]domain.PedigreeRecord),
		Runs:      make(map[string]domain.InferenceRun),
	}
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Pedigrees: make(map[string]domain.PedigreeRecord, len(s.Pedigrees)),
		Runs:      make(map[string]domain.InferenceRun, len(s.Runs)),
	}
	for k, v := range s.Pedigrees {
		out.Pedigrees[k] = clonePedigree(v)
	}
	for k, v := range s.Runs {
		out.Runs[k] = cloneRun(v)
	}
	return out
}

// Store keeps pedigrees and inference runs in process memory.
type Store struct {
	mu    sync.RWMutex
	state Snapshot
	nowFn func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewStore constructs an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newSnapshot(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	next := snapshot.clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
}

// SavePedigree validates and stores record, assigning an ID when empty. Saving
// an existing ID replaces the individuals and keeps the creation time.
func (s *Store) SavePedigree(_ context.Context, record domain.PedigreeRecord) (domain.PedigreeRecord, error) {
	if _, err := record.Pedigree(); err != nil {
		return domain.PedigreeRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if existing, ok := s.state.Pedigrees[record.ID]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	stored := clonePedigree(record)
	s.state.Pedigrees[record.ID] = stored
	return clonePedigree(stored), nil
}

// GetPedigree returns a stored pedigree.
func (s *Store) GetPedigree(_ context.Context, id string) (domain.PedigreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.state.Pedigrees[id]
	if !ok {
		return domain.PedigreeRecord{}, domain.NotFoundError{Entity: "pedigree", ID: id}
	}
	return clonePedigree(record), nil
}

// ListPedigrees returns every stored pedigree ordered by ID.
func (s *Store) ListPedigrees(_ context.Context) ([]domain.PedigreeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PedigreeRecord, 0, len(s.state.Pedigrees))
	for _, record := range s.state.Pedigrees {
		out = append(out, clonePedigree(record))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeletePedigree removes a pedigree together with its runs.
func (s *Store) DeletePedigree(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Pedigrees[id]; !ok {
		return false, nil
	}
	delete(s.state.Pedigrees, id)
	for runID, run := range s.state.Runs {
		if run.PedigreeID == id {
			delete(s.state.Runs, runID)
		}
	}
	return true, nil
}

// SaveRun records an inference run against an existing pedigree.
func (s *Store) SaveRun(_ context.Context, run domain.InferenceRun) (domain.InferenceRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Pedigrees[run.PedigreeID]; !ok {
		return domain.InferenceRun{}, domain.NotFoundError{Entity: "pedigree", ID: run.PedigreeID}
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if _, exists := s.state.Runs[run.ID]; exists {
		return domain.InferenceRun{}, fmt.Errorf("run %s already recorded", run.ID)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.nowFn()
	}
	stored := cloneRun(run)
	s.state.Runs[run.ID] = stored
	return cloneRun(stored), nil
}

// ListRuns returns the runs of pedigreeID, or of every pedigree when empty,
// oldest first.
func (s *Store) ListRuns(_ context.Context, pedigreeID string) ([]domain.InferenceRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InferenceRun, 0)
	for _, run := range s.state.Runs {
		if pedigreeID == "" || run.PedigreeID == pedigreeID {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func clonePedigree(r domain.PedigreeRecord) domain.PedigreeRecord {
	cp := r
	cp.Individuals = make([]domain.Individual, len(r.Individuals))
	for i, ind := range r.Individuals {
		cp.Individuals[i] = ind
		if ind.MotherID != nil {
			v := *ind.MotherID
			cp.Individuals[i].MotherID = &v
		}
		if ind.FatherID != nil {
			v := *ind.FatherID
			cp.Individuals[i].FatherID = &v
		}
	}
	return cp
}

func cloneRun(r domain.InferenceRun) domain.InferenceRun {
	cp := r
	if r.Posterior != nil {
		cp.Posterior = make(domain.PosteriorTable, len(r.Posterior))
		for k, v := range r.Posterior {
			cp.Posterior[k] = v
		}
	}
	return cp
}
