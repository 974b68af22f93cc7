package core

import (
	"fmt"

	"pedigreecore/pkg/domain"
)

// Tally accumulates un-normalised per-individual probability mass. A Tally is
// not safe for concurrent use; parallel runs give each worker its own and merge.
type Tally struct {
	ids      []string
	genes    []domain.GeneDistribution
	traits   []domain.TraitDistribution
	worlds   uint64
	positive uint64
}

// NewTally returns an all-zero tally for p.
func NewTally(p *domain.Pedigree) *Tally {
	return &Tally{
		ids:    p.IDs(),
		genes:  make([]domain.GeneDistribution, p.Len()),
		traits: make([]domain.TraitDistribution, p.Len()),
	}
}

// Add folds one scored world into the tally. Worlds with zero probability are
// counted but contribute no mass.
func (t *Tally) Add(w domain.World, prob float64) {
	t.worlds++
	if prob <= 0 {
		return
	}
	t.positive++
	for i, g := range w.Genes {
		t.genes[i][g] += prob
		if w.Traits[i] {
			t.traits[i].True += prob
		} else {
			t.traits[i].False += prob
		}
	}
}

// Merge adds other's tallies elementwise into t.
func (t *Tally) Merge(other *Tally) error {
	if len(other.ids) != len(t.ids) {
		return fmt.Errorf("merge tally: %d individuals into %d", len(other.ids), len(t.ids))
	}
	for i := range t.ids {
		if t.ids[i] != other.ids[i] {
			return fmt.Errorf("merge tally: individual %s does not match %s", other.ids[i], t.ids[i])
		}
		for _, g := range domain.GeneCounts {
			t.genes[i][g] += other.genes[i][g]
		}
		t.traits[i].True += other.traits[i].True
		t.traits[i].False += other.traits[i].False
	}
	t.worlds += other.worlds
	t.positive += other.positive
	return nil
}

// Worlds returns the number of worlds folded in, including zero-probability ones.
func (t *Tally) Worlds() uint64 { return t.worlds }

// PositiveWorlds returns the number of worlds that contributed mass.
func (t *Tally) PositiveWorlds() uint64 { return t.positive }

// Normalize divides each individual's gene and trait tallies by their sums. A zero
// sum means no world carried mass and is reported as InconsistentEvidenceError.
func (t *Tally) Normalize() (domain.PosteriorTable, error) {
	table := make(domain.PosteriorTable, len(t.ids))
	for i, id := range t.ids {
		geneSum := t.genes[i].Sum()
		if geneSum == 0 {
			return nil, &domain.InconsistentEvidenceError{ID: id, Variable: "gene"}
		}
		traitSum := t.traits[i].Sum()
		if traitSum == 0 {
			return nil, &domain.InconsistentEvidenceError{ID: id, Variable: "trait"}
		}
		var m domain.Marginal
		for _, g := range domain.GeneCounts {
			m.Gene[g] = t.genes[i][g] / geneSum
		}
		m.Trait.True = t.traits[i].True / traitSum
		m.Trait.False = t.traits[i].False / traitSum
		table[id] = m
	}
	return table, nil
}
