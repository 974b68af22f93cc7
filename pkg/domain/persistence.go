package domain

import (
	"context"
	"time"
)

// PedigreeRecord is a persisted pedigree definition.
type PedigreeRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Individuals []Individual `json:"individuals"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Pedigree validates the stored individuals and returns the immutable model.
func (r PedigreeRecord) Pedigree() (*Pedigree, error) {
	return NewPedigree(r.Individuals)
}

// RunStatus describes the outcome of an inference run.
type RunStatus string

// Inference run outcomes.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// InferenceRun records one inference over a stored pedigree.
type InferenceRun struct {
	ID          string         `json:"id"`
	PedigreeID  string         `json:"pedigree_id"`
	Fingerprint string         `json:"fingerprint"`
	Model       Model          `json:"model"`
	Status      RunStatus      `json:"status"`
	Error       string         `json:"error,omitempty"`
	Worlds      uint64         `json:"worlds"`
	Cached      bool           `json:"cached"`
	Posterior   PosteriorTable `json:"posterior,omitempty"`
	ReportKey   string         `json:"report_key,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
}

// PedigreeStore is the persistence contract implemented by the memory, sqlite
// and postgres backends.
type PedigreeStore interface {
	SavePedigree(ctx context.Context, record PedigreeRecord) (PedigreeRecord, error)
	GetPedigree(ctx context.Context, id string) (PedigreeRecord, error)
	ListPedigrees(ctx context.Context) ([]PedigreeRecord, error)
	DeletePedigree(ctx context.Context, id string) (bool, error)
	SaveRun(ctx context.Context, run InferenceRun) (InferenceRun, error)
	ListRuns(ctx context.Context, pedigreeID string) ([]InferenceRun, error)
}
