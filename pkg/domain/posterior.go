package domain

import (
	"math"
	"sort"
)

// Marginal holds the two posterior distributions of one individual.
type Marginal struct {
	Gene  GeneDistribution  `json:"gene"`
	Trait TraitDistribution `json:"trait"`
}

// PosteriorTable maps each individual to its posterior marginals.
type PosteriorTable map[string]Marginal

// IDs returns the table's identifiers in ascending order.
func (t PosteriorTable) IDs() []string {
	out := make([]string, 0, len(t))
	for id := range t {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Normalized reports whether every distribution in the table sums to 1 within tol.
func (t PosteriorTable) Normalized(tol float64) bool {
	for _, m := range t {
		if math.Abs(m.Gene.Sum()-1) > tol || math.Abs(m.Trait.Sum()-1) > tol {
			return false
		}
	}
	return true
}
