package reports

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
		"s3":     NewMockS3ForTests("tenant"),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			key := PosteriorKey("run-1")
			info, err := store.Put(ctx, key, strings.NewReader(`{"A":{}}`), PutOptions{
				ContentType: ContentTypeJSON,
				Metadata:    map[string]string{"pedigree": "fam"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != key || info.Size != int64(len(`{"A":{}}`)) {
				t.Fatalf("unexpected put info %+v", info)
			}
			if _, err := store.Put(ctx, key, strings.NewReader("again"), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}

			head, err := store.Head(ctx, key)
			if err != nil {
				t.Fatalf("head: %v", err)
			}
			if head.ContentType != ContentTypeJSON {
				t.Fatalf("expected content type %q, got %q", ContentTypeJSON, head.ContentType)
			}
			if head.Metadata["pedigree"] != "fam" {
				t.Fatalf("expected metadata to round trip, got %v", head.Metadata)
			}

			_, rc, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, _ := io.ReadAll(rc)
			_ = rc.Close()
			if string(body) != `{"A":{}}` {
				t.Fatalf("unexpected body %q", body)
			}

			if _, err := store.Put(ctx, PosteriorKey("run-2"), strings.NewReader("{}"), PutOptions{}); err != nil {
				t.Fatalf("put second: %v", err)
			}
			list, err := store.List(ctx, "runs/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].Key != PosteriorKey("run-1") || list[1].Key != PosteriorKey("run-2") {
				t.Fatalf("unexpected listing %+v", list)
			}

			existed, err := store.Delete(ctx, key)
			if err != nil || !existed {
				t.Fatalf("delete: existed=%v err=%v", existed, err)
			}
			existed, err = store.Delete(ctx, key)
			if err != nil || existed {
				t.Fatalf("second delete: existed=%v err=%v", existed, err)
			}
			if _, _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if _, err := store.Head(ctx, key); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound from head, got %v", err)
			}
		})
	}
}

func TestPresignURL(t *testing.T) {
	ctx := context.Background()
	if _, err := NewMemory().PresignURL(ctx, "k", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported from memory store, got %v", err)
	}
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new fs: %v", err)
	}
	url, err := fsStore.PresignURL(ctx, "runs/a/posterior.json", SignedURLOptions{})
	if err != nil || !strings.HasPrefix(url, "file://") {
		t.Fatalf("unexpected fs url %q err=%v", url, err)
	}
	s3Store := NewMockS3ForTests("")
	url, err = s3Store.PresignURL(ctx, "runs/a/posterior.json", SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign s3: %v", err)
	}
	if !strings.Contains(url, "runs/a/posterior.json") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("unexpected presigned url %q", url)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("PEDIGREECORE_REPORT_DRIVER", "memory")
	s, err := Open(ctx)
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("expected memory store, got %v err=%v", s, err)
	}

	t.Setenv("PEDIGREECORE_REPORT_DRIVER", "")
	t.Setenv("PEDIGREECORE_REPORT_FS_ROOT", t.TempDir())
	s, err = Open(ctx)
	if err != nil || s.Driver() != DriverFilesystem {
		t.Fatalf("expected fs store by default, got %v err=%v", s, err)
	}

	t.Setenv("PEDIGREECORE_REPORT_DRIVER", "s3")
	t.Setenv("PEDIGREECORE_REPORT_S3_BUCKET", "")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected missing bucket error")
	}

	t.Setenv("PEDIGREECORE_REPORT_DRIVER", "tape")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestPosteriorKey(t *testing.T) {
	if got := PosteriorKey("abc"); got != "runs/abc/posterior.json" {
		t.Fatalf("unexpected key %q", got)
	}
}
