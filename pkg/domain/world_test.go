package domain

import (
	"errors"
	"math"
	"testing"
)

func trio(t *testing.T) *Pedigree {
	t.Helper()
	p, err := NewPedigree([]Individual{
		child("C", "M", "F", ObservationUnknown),
		{ID: "F", Trait: ObservationPresent},
		{ID: "M"},
	})
	if err != nil {
		t.Fatalf("new pedigree: %v", err)
	}
	return p
}

func TestWorldFromAssignments(t *testing.T) {
	p := trio(t)
	w, err := WorldFromAssignments(p,
		GeneAssignment{"C": GeneOne, "F": GeneTwo, "M": GeneNone},
		TraitAssignment{"C": false, "F": true, "M": false},
	)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if w.Genes[0] != GeneOne || w.Genes[1] != GeneTwo || !w.Traits[1] {
		t.Fatalf("world not aligned with pedigree order: %+v", w)
	}
	if w.GeneAssignment(p)["F"] != GeneTwo || !w.TraitAssignment(p)["F"] {
		t.Fatalf("map views disagree with world")
	}
	if !w.EvidenceConsistent(p) {
		t.Fatalf("world agrees with F observed present")
	}
	w.Traits[1] = false
	if w.EvidenceConsistent(p) {
		t.Fatalf("world contradicts F observed present")
	}
}

func TestWorldFromAssignmentsRejectsPartialCoverage(t *testing.T) {
	p := trio(t)
	cases := map[string]struct {
		genes  GeneAssignment
		traits TraitAssignment
	}{
		"missing gene":  {GeneAssignment{"C": 0, "F": 0}, TraitAssignment{"C": false, "F": true, "M": false}},
		"missing trait": {GeneAssignment{"C": 0, "F": 0, "M": 0}, TraitAssignment{"C": false}},
		"bad gene":      {GeneAssignment{"C": 3, "F": 0, "M": 0}, TraitAssignment{"C": false, "F": true, "M": false}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := WorldFromAssignments(p, tc.genes, tc.traits); !errors.Is(err, ErrInvalidAssignment) {
				t.Fatalf("expected ErrInvalidAssignment, got %v", err)
			}
		})
	}
}

func TestWorldCovers(t *testing.T) {
	p := trio(t)
	short := World{Genes: []GeneCount{0, 0}, Traits: []bool{false, true, false}}
	if err := short.Covers(p); !errors.Is(err, ErrInvalidAssignment) {
		t.Fatalf("expected short gene slice to fail, got %v", err)
	}
	bad := World{Genes: []GeneCount{0, 7, 0}, Traits: []bool{false, true, false}}
	var typed *InvalidAssignmentError
	if err := bad.Covers(p); !errors.As(err, &typed) || typed.ID != "F" {
		t.Fatalf("expected invalid gene for F, got %v", err)
	}
}

func TestPosteriorTableNormalized(t *testing.T) {
	table := PosteriorTable{
		"B": {Gene: GeneDistribution{0.2, 0.3, 0.5}, Trait: TraitDistribution{True: 0.4, False: 0.6}},
		"A": {Gene: GeneDistribution{1, 0, 0}, Trait: TraitDistribution{True: 0, False: 1}},
	}
	if ids := table.IDs(); ids[0] != "A" || ids[1] != "B" {
		t.Fatalf("unexpected id order %v", ids)
	}
	if !table.Normalized(1e-12) {
		t.Fatalf("expected normalized table")
	}
	table["C"] = Marginal{Gene: GeneDistribution{0.5, 0.5, 0.5}, Trait: TraitDistribution{True: 1}}
	if table.Normalized(1e-12) {
		t.Fatalf("expected unnormalized table to be detected")
	}
	if math.Abs(table["B"].Gene.Sum()-1) > 1e-12 {
		t.Fatalf("sum helper broken")
	}
}

func TestErrorMessages(t *testing.T) {
	if msg := (&InconsistentEvidenceError{}).Error(); msg == "" {
		t.Fatalf("expected generic message")
	}
	err := NotFoundError{Entity: "pedigree", ID: "x"}
	if !errors.Is(err, ErrNotFound) || err.Error() != "pedigree x not found" {
		t.Fatalf("unexpected not found error %v", err)
	}
}
