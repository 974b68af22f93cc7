package core

import (
	"errors"
	"fmt"
	"testing"

	"pedigreecore/pkg/domain"
)

func TestTransmissionProbability(t *testing.T) {
	mu := 0.01
	assertClose(t, "none", TransmissionProbability(domain.GeneNone, mu), 0.01, 0)
	assertClose(t, "one", TransmissionProbability(domain.GeneOne, mu), 0.5, 0)
	assertClose(t, "two", TransmissionProbability(domain.GeneTwo, mu), 0.99, 1e-15)
}

func TestInheritanceDistributionSumsToOne(t *testing.T) {
	for _, mu := range []float64{1e-6, 0.01, 0.3, 0.5, 0.999} {
		for _, m := range domain.GeneCounts {
			for _, f := range domain.GeneCounts {
				dist := InheritanceDistribution(m, f, mu)
				label := fmt.Sprintf("mu=%g mother=%d father=%d", mu, m, f)
				assertClose(t, label, dist.Sum(), 1, 1e-12)
				for _, g := range domain.GeneCounts {
					if dist.Of(g) < 0 {
						t.Fatalf("%s: negative probability for %d copies", label, g)
					}
				}
			}
		}
	}
	dist := InheritanceDistribution(domain.GeneTwo, domain.GeneNone, 0.01)
	assertClose(t, "two x none -> one", dist.Of(domain.GeneOne), 0.99*0.99+0.01*0.01, 1e-15)
}

func TestJointProbabilityMatchesHandCalculation(t *testing.T) {
	p := mustPedigree(t, potterIndividuals())
	model := domain.StandardModel()
	// Harry=1 copy without trait, James=2 copies with trait, Lily=0 copies without.
	w, err := domain.WorldFromAssignments(p,
		domain.GeneAssignment{"Harry": domain.GeneOne, "James": domain.GeneTwo, "Lily": domain.GeneNone},
		domain.TraitAssignment{"Harry": false, "James": true, "Lily": false},
	)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	got, err := JointProbability(p, model, w)
	if err != nil {
		t.Fatalf("joint probability: %v", err)
	}
	harry := (0.99*0.99 + 0.01*0.01) * 0.44
	james := 0.01 * 0.65
	lily := 0.96 * 0.99
	assertClose(t, "joint", got, harry*james*lily, 1e-15)
}

func TestJointProbabilityRejectsPartialWorld(t *testing.T) {
	p := mustPedigree(t, potterIndividuals())
	_, err := JointProbability(p, domain.StandardModel(), domain.World{
		Genes:  []domain.GeneCount{0, 0},
		Traits: []bool{false, true, false},
	})
	if !errors.Is(err, domain.ErrInvalidAssignment) {
		t.Fatalf("expected ErrInvalidAssignment, got %v", err)
	}
}
