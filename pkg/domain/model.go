package domain

import (
	"fmt"
	"math"
)

// GeneCount is the number of copies of the allele of interest an individual carries.
type GeneCount uint8

// Gene-copy-count values.
const (
	GeneNone GeneCount = 0
	GeneOne  GeneCount = 1
	GeneTwo  GeneCount = 2
)

// GeneCounts lists every gene-copy-count value in ascending order.
var GeneCounts = [3]GeneCount{GeneNone, GeneOne, GeneTwo}

// Valid reports whether g is 0, 1 or 2.
func (g GeneCount) Valid() bool { return g <= GeneTwo }

// ProbabilityTolerance bounds the deviation from 1 accepted when a distribution is validated.
const ProbabilityTolerance = 1e-9

// GeneDistribution is a categorical distribution over gene-copy-counts, indexed by GeneCount.
type GeneDistribution [3]float64

// Of returns the probability assigned to g.
func (d GeneDistribution) Of(g GeneCount) float64 { return d[g] }

// Sum returns the total mass of the distribution.
func (d GeneDistribution) Sum() float64 { return d[0] + d[1] + d[2] }

// TraitDistribution is a Bernoulli distribution over the trait.
type TraitDistribution struct {
	True  float64 `json:"true"`
	False float64 `json:"false"`
}

// Of returns the probability assigned to trait.
func (d TraitDistribution) Of(trait bool) float64 {
	if trait {
		return d.True
	}
	return d.False
}

// Sum returns the total mass of the distribution.
func (d TraitDistribution) Sum() float64 { return d.True + d.False }

// EmissionTable holds P(trait | gene-copy-count), indexed by GeneCount.
type EmissionTable [3]TraitDistribution

// Probability returns P(trait | g).
func (t EmissionTable) Probability(g GeneCount, trait bool) float64 { return t[g].Of(trait) }

// Model carries the fixed generative parameters. It is passed by value into every
// evaluation; nothing reads it from process-wide state.
type Model struct {
	FounderPrior GeneDistribution `json:"founder_prior"`
	Emission     EmissionTable    `json:"emission"`
	MutationRate float64          `json:"mutation_rate"`
}

// Validate checks that every distribution is a probability distribution and that
// the mutation rate lies strictly between 0 and 1.
func (m Model) Validate() error {
	if err := validateDistribution("founder_prior", m.FounderPrior[:]); err != nil {
		return err
	}
	for _, g := range GeneCounts {
		row := m.Emission[g]
		if err := validateDistribution(fmt.Sprintf("emission[%d]", g), []float64{row.True, row.False}); err != nil {
			return err
		}
	}
	if math.IsNaN(m.MutationRate) || m.MutationRate <= 0 || m.MutationRate >= 1 {
		return &InvalidModelError{Field: "mutation_rate", Reason: fmt.Sprintf("%v is outside (0,1)", m.MutationRate)}
	}
	return nil
}

func validateDistribution(field string, values []float64) error {
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return &InvalidModelError{Field: field, Reason: fmt.Sprintf("probability %v is outside [0,1]", v)}
		}
		sum += v
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return &InvalidModelError{Field: field, Reason: fmt.Sprintf("probabilities sum to %v", sum)}
	}
	return nil
}

// StandardModel returns the literature-standard parameters callers commonly supply.
func StandardModel() Model {
	return Model{
		FounderPrior: GeneDistribution{0.96, 0.03, 0.01},
		Emission: EmissionTable{
			{True: 0.01, False: 0.99},
			{True: 0.56, False: 0.44},
			{True: 0.65, False: 0.35},
		},
		MutationRate: 0.01,
	}
}
