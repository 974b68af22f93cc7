package core

import (
	"context"
	"path/filepath"
	"testing"

	"pedigreecore/internal/infra/persistence/memory"
	"pedigreecore/internal/infra/persistence/sqlite"
)

func TestOpenPedigreeStoreMemory(t *testing.T) {
	t.Setenv("PEDIGREECORE_STORAGE_DRIVER", "memory")
	store, err := OpenPedigreeStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPedigreeStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("PEDIGREECORE_STORAGE_DRIVER", "")
	path := filepath.Join(t.TempDir(), "state.db")
	t.Setenv("PEDIGREECORE_SQLITE_PATH", path)
	store, err := OpenPedigreeStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer func() { _ = s.Close() }()
	if s.Path() != path {
		t.Fatalf("expected path %s, got %s", path, s.Path())
	}
}

func TestOpenPedigreeStoreUnknownDriver(t *testing.T) {
	t.Setenv("PEDIGREECORE_STORAGE_DRIVER", "etcd")
	if _, err := OpenPedigreeStore(context.Background()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
