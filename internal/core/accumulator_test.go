package core

import (
	"errors"
	"testing"

	"pedigreecore/pkg/domain"
)

func TestTallyNormalizes(t *testing.T) {
	p := mustPedigree(t, []domain.Individual{{ID: "A"}})
	tally := NewTally(p)
	tally.Add(domain.World{Genes: []domain.GeneCount{domain.GeneOne}, Traits: []bool{true}}, 0.3)
	tally.Add(domain.World{Genes: []domain.GeneCount{domain.GeneNone}, Traits: []bool{false}}, 0.1)
	tally.Add(domain.World{Genes: []domain.GeneCount{domain.GeneTwo}, Traits: []bool{true}}, 0)
	if tally.Worlds() != 3 || tally.PositiveWorlds() != 2 {
		t.Fatalf("unexpected counters %d/%d", tally.Worlds(), tally.PositiveWorlds())
	}
	table, err := tally.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	m := table["A"]
	assertClose(t, "gene 1", m.Gene[domain.GeneOne], 0.75, 1e-15)
	assertClose(t, "gene 0", m.Gene[domain.GeneNone], 0.25, 1e-15)
	assertClose(t, "trait", m.Trait.True, 0.75, 1e-15)
}

func TestTallyMerge(t *testing.T) {
	p := mustPedigree(t, []domain.Individual{{ID: "A"}})
	a, b := NewTally(p), NewTally(p)
	a.Add(domain.World{Genes: []domain.GeneCount{domain.GeneOne}, Traits: []bool{true}}, 0.2)
	b.Add(domain.World{Genes: []domain.GeneCount{domain.GeneOne}, Traits: []bool{false}}, 0.2)
	if err := a.Merge(b); err != nil {
		t.Fatalf("merge: %v", err)
	}
	table, err := a.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	assertClose(t, "trait", table["A"].Trait.True, 0.5, 0)

	other := NewTally(mustPedigree(t, []domain.Individual{{ID: "B"}}))
	if err := a.Merge(other); err == nil {
		t.Fatalf("expected mismatched tallies to fail")
	}
}

func TestTallyZeroMassIsInconsistent(t *testing.T) {
	p := mustPedigree(t, []domain.Individual{{ID: "A"}})
	tally := NewTally(p)
	tally.Add(domain.World{Genes: []domain.GeneCount{domain.GeneOne}, Traits: []bool{true}}, 0)
	_, err := tally.Normalize()
	if !errors.Is(err, domain.ErrInconsistentEvidence) {
		t.Fatalf("expected ErrInconsistentEvidence, got %v", err)
	}
	var typed *domain.InconsistentEvidenceError
	if !errors.As(err, &typed) || typed.ID != "A" {
		t.Fatalf("expected error naming A, got %v", err)
	}
}
