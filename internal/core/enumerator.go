package core

import (
	"fmt"
	"iter"
	"math/bits"

	"pedigreecore/pkg/domain"
)

// MaxIndividuals bounds the pedigree size accepted by the enumerator. Index sets
// are held as bitsets, and beyond this size 6^N worlds are out of reach anyway.
const MaxIndividuals = 24

// Partition splits the individuals into those carrying one and two gene copies;
// everyone outside both sets carries none. Bit i refers to pedigree position i.
type Partition struct {
	One uint64
	Two uint64
}

// Gene returns the gene-copy-count the partition assigns to position i.
func (p Partition) Gene(i int) domain.GeneCount {
	bit := uint64(1) << uint(i)
	switch {
	case p.One&bit != 0:
		return domain.GeneOne
	case p.Two&bit != 0:
		return domain.GeneTwo
	default:
		return domain.GeneNone
	}
}

// EnumerationCount summarises the size of a pedigree's world space.
type EnumerationCount struct {
	Individuals int    `json:"individuals"`
	TraitSets   uint64 `json:"trait_sets"`
	Pruned      uint64 `json:"pruned_trait_sets"`
	Partitions  uint64 `json:"gene_partitions"`
	Worlds      uint64 `json:"worlds"`
}

// Enumerator produces every evidence-consistent world of a pedigree. It holds no
// iteration state, so each sequence it returns can be ranged over any number of times.
type Enumerator struct {
	pedigree *domain.Pedigree
	n        int
	full     uint64
	observed uint64
	present  uint64
}

// NewEnumerator prepares the trait evidence masks for p.
func NewEnumerator(p *domain.Pedigree) (*Enumerator, error) {
	n := p.Len()
	if n > MaxIndividuals {
		return nil, fmt.Errorf("%w: %d individuals exceeds %d", domain.ErrPedigreeTooLarge, n, MaxIndividuals)
	}
	e := &Enumerator{pedigree: p, n: n, full: uint64(1)<<uint(n) - 1}
	for i := 0; i < n; i++ {
		obs := p.Observation(i)
		if !obs.Known() {
			continue
		}
		bit := uint64(1) << uint(i)
		e.observed |= bit
		if obs == domain.ObservationPresent {
			e.present |= bit
		}
	}
	return e, nil
}

// Pedigree returns the pedigree being enumerated.
func (e *Enumerator) Pedigree() *domain.Pedigree { return e.pedigree }

// Consistent reports whether the trait set agrees with every observation.
func (e *Enumerator) Consistent(traits uint64) bool {
	return traits&e.observed == e.present
}

// TraitSets yields every subset T of individuals (as a bitset of trait = true)
// that agrees with the evidence. Contradicting subsets are dropped here, before
// any gene partition is generated for them.
func (e *Enumerator) TraitSets() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for t := uint64(0); ; t++ {
			if e.Consistent(t) && !yield(t) {
				return
			}
			if t == e.full {
				return
			}
		}
	}
}

// Partitions yields all 3^N assignments of individuals to the one-copy set S1
// and the two-copy set S2: S1 ranges over every subset, S2 over every subset of
// the complement of S1.
func (e *Enumerator) Partitions() iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		for one := uint64(0); ; one++ {
			rest := e.full &^ one
			for two := rest; ; two = (two - 1) & rest {
				if !yield(Partition{One: one, Two: two}) {
					return
				}
				if two == 0 {
					break
				}
			}
			if one == e.full {
				return
			}
		}
	}
}

// WorldsWithTraits yields every world whose trait set is exactly traits.
func (e *Enumerator) WorldsWithTraits(traits uint64) iter.Seq[domain.World] {
	return func(yield func(domain.World) bool) {
		for part := range e.Partitions() {
			if !yield(e.World(part, traits)) {
				return
			}
		}
	}
}

// Worlds yields every evidence-consistent world exactly once.
func (e *Enumerator) Worlds() iter.Seq[domain.World] {
	return func(yield func(domain.World) bool) {
		for traits := range e.TraitSets() {
			for w := range e.WorldsWithTraits(traits) {
				if !yield(w) {
					return
				}
			}
		}
	}
}

// World materialises a partition and trait set into freshly allocated slices.
func (e *Enumerator) World(part Partition, traits uint64) domain.World {
	w := domain.World{
		Genes:  make([]domain.GeneCount, e.n),
		Traits: make([]bool, e.n),
	}
	for i := 0; i < e.n; i++ {
		w.Genes[i] = part.Gene(i)
		w.Traits[i] = traits&(uint64(1)<<uint(i)) != 0
	}
	return w
}

// Count computes the size of the world space without generating it.
func (e *Enumerator) Count() EnumerationCount {
	free := e.n - bits.OnesCount64(e.observed)
	traitSets := uint64(1) << uint(free)
	partitions := uint64(1)
	for i := 0; i < e.n; i++ {
		partitions *= 3
	}
	return EnumerationCount{
		Individuals: e.n,
		TraitSets:   traitSets,
		Pruned:      (e.full + 1) - traitSets,
		Partitions:  partitions,
		Worlds:      traitSets * partitions,
	}
}
