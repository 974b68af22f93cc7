package core

import (
	"context"
	"fmt"
	"os"

	"pedigreecore/internal/infra/persistence/memory"
	"pedigreecore/internal/infra/persistence/postgres"
	"pedigreecore/internal/infra/persistence/sqlite"
	"pedigreecore/pkg/domain"
)

// StorageDriver identifies a concrete pedigree store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPedigreeStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	PEDIGREECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	PEDIGREECORE_SQLITE_PATH: path to sqlite file (default ./pedigreecore.db)
//	PEDIGREECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPedigreeStore(ctx context.Context) (domain.PedigreeStore, error) {
	driver := os.Getenv("PEDIGREECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(os.Getenv("PEDIGREECORE_SQLITE_PATH"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, os.Getenv("PEDIGREECORE_POSTGRES_DSN"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
