// Package reports is the entry point for posterior report storage. Callers
// depend on Store; the backends live under internal/infra/reports.
package reports

import (
	"context"
	"fmt"
	"os"
	"path"

	"pedigreecore/internal/infra/reports/fs"
	"pedigreecore/internal/infra/reports/memory"
	infraS3 "pedigreecore/internal/infra/reports/s3"
	"pedigreecore/internal/reports/core"
)

type (
	Driver           = core.Driver
	Store            = core.Store
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	S3Config         = infraS3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory

	ContentTypeJSON = core.ContentTypeJSON
	ContentTypeCSV  = core.ContentTypeCSV
	ContentTypeText = core.ContentTypeText
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrExists      = core.ErrExists
	ErrNotFound    = core.ErrNotFound
)

// Open selects a Store using environment variables.
//
//	PEDIGREECORE_REPORT_DRIVER: fs|s3|memory (default fs)
//	PEDIGREECORE_REPORT_FS_ROOT: directory root when driver=fs (default ./reports)
//	(S3 variables are documented in internal/infra/reports/s3)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("PEDIGREECORE_REPORT_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("PEDIGREECORE_REPORT_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown report driver %s", driver)
	}
}

// NewMemory returns a process-local store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a store rooted at root; empty selects ./reports.
func NewFilesystem(root string) (Store, error) {
	s, err := fs.New(root)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewS3 returns an S3-backed store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	s, err := infraS3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenS3FromEnv returns an S3-backed store configured from PEDIGREECORE_REPORT_S3_*.
func OpenS3FromEnv(ctx context.Context) (Store, error) {
	s, err := infraS3.OpenFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewMockS3ForTests returns an S3 store backed by an in-process fake bucket.
func NewMockS3ForTests(prefix string) Store { return infraS3.NewMockForTests(prefix) }

// PosteriorKey is the artifact key of a run's JSON posterior report.
func PosteriorKey(runID string) string { return path.Join("runs", runID, "posterior.json") }
