package memory

import (
	"context"
	"fmt"
	"testing"

	"pedigreecore/pkg/domain"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := New(2)
	table := func(p float64) domain.PosteriorTable {
		return domain.PosteriorTable{"A": {Gene: domain.GeneDistribution{p, 1 - p, 0}}}
	}
	for i, key := range []string{"a", "b"} {
		if err := c.Set(ctx, key, table(float64(i)/10)); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a cached")
	}
	if err := c.Set(ctx, "c", table(0.5)); err != nil {
		t.Fatalf("set c: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatalf("expected b evicted as least recently used")
	}
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected a retained")
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := New(0)
	in := domain.PosteriorTable{"A": {}}
	_ = c.Set(ctx, "k", in)
	in["B"] = domain.Marginal{}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if len(got) != 1 {
		t.Fatalf("cached table aliases caller map")
	}
	got["C"] = domain.Marginal{}
	again, _, _ := c.Get(ctx, "k")
	if len(again) != 1 {
		t.Fatalf("returned table aliases cached map")
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	ctx := context.Background()
	c := New(-1)
	for i := 0; i < DefaultCapacity+5; i++ {
		_ = c.Set(ctx, fmt.Sprint(i), domain.PosteriorTable{})
	}
	if c.Len() != DefaultCapacity {
		t.Fatalf("expected %d entries, got %d", DefaultCapacity, c.Len())
	}
}
