package core

import (
	"math"
	"testing"

	"pedigreecore/pkg/domain"
)

func strPtr(s string) *string { return &s }

func potterIndividuals() []domain.Individual {
	return []domain.Individual{
		{ID: "Harry", MotherID: strPtr("Lily"), FatherID: strPtr("James"), Trait: domain.ObservationUnknown},
		{ID: "James", Trait: domain.ObservationPresent},
		{ID: "Lily", Trait: domain.ObservationAbsent},
	}
}

func mustPedigree(t *testing.T, people []domain.Individual) *domain.Pedigree {
	t.Helper()
	p, err := domain.NewPedigree(people)
	if err != nil {
		t.Fatalf("new pedigree: %v", err)
	}
	return p
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %.10f want %.10f", label, got, want)
	}
}

func assertTablesClose(t *testing.T, got, want domain.PosteriorTable, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("table size %d, want %d", len(got), len(want))
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Fatalf("missing marginal for %s", id)
		}
		for _, c := range domain.GeneCounts {
			assertClose(t, id+" gene", g.Gene[c], w.Gene[c], tol)
		}
		assertClose(t, id+" trait true", g.Trait.True, w.Trait.True, tol)
		assertClose(t, id+" trait false", g.Trait.False, w.Trait.False, tol)
	}
}
