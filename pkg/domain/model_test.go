package domain

import (
	"errors"
	"math"
	"testing"
)

func TestStandardModelIsValid(t *testing.T) {
	if err := StandardModel().Validate(); err != nil {
		t.Fatalf("standard model invalid: %v", err)
	}
}

func TestModelValidateRejects(t *testing.T) {
	cases := map[string]func(*Model){
		"prior sum":        func(m *Model) { m.FounderPrior = GeneDistribution{0.5, 0.2, 0.2} },
		"negative prior":   func(m *Model) { m.FounderPrior = GeneDistribution{1.1, -0.1, 0} },
		"emission row sum": func(m *Model) { m.Emission[GeneOne] = TraitDistribution{True: 0.5, False: 0.6} },
		"nan emission":     func(m *Model) { m.Emission[GeneTwo] = TraitDistribution{True: math.NaN(), False: 1} },
		"zero mutation":    func(m *Model) { m.MutationRate = 0 },
		"unit mutation":    func(m *Model) { m.MutationRate = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			m := StandardModel()
			mutate(&m)
			err := m.Validate()
			if !errors.Is(err, ErrInvalidModel) {
				t.Fatalf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
}

func TestEmissionProbability(t *testing.T) {
	m := StandardModel()
	if got := m.Emission.Probability(GeneTwo, true); got != 0.65 {
		t.Fatalf("P(trait|2) = %v", got)
	}
	if got := m.Emission.Probability(GeneNone, false); got != 0.99 {
		t.Fatalf("P(no trait|0) = %v", got)
	}
	if GeneCount(3).Valid() {
		t.Fatalf("3 copies must be invalid")
	}
}
