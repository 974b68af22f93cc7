package domain

import "fmt"

// GeneAssignment maps every individual to a gene-copy-count.
type GeneAssignment map[string]GeneCount

// TraitAssignment maps every individual to a trait value.
type TraitAssignment map[string]bool

// World is one complete assignment of gene-copy-count and trait to every
// individual. Both slices are aligned with pedigree order.
type World struct {
	Genes  []GeneCount
	Traits []bool
}

// WorldFromAssignments converts map assignments into a World aligned with p.
// Missing coverage or out-of-range gene counts yield an InvalidAssignmentError.
func WorldFromAssignments(p *Pedigree, genes GeneAssignment, traits TraitAssignment) (World, error) {
	w := World{
		Genes:  make([]GeneCount, p.Len()),
		Traits: make([]bool, p.Len()),
	}
	for i := 0; i < p.Len(); i++ {
		id := p.ID(i)
		g, ok := genes[id]
		if !ok {
			return World{}, &InvalidAssignmentError{ID: id, Reason: "no gene count assigned"}
		}
		if !g.Valid() {
			return World{}, &InvalidAssignmentError{ID: id, Reason: fmt.Sprintf("gene count %d out of range", g)}
		}
		t, ok := traits[id]
		if !ok {
			return World{}, &InvalidAssignmentError{ID: id, Reason: "no trait assigned"}
		}
		w.Genes[i] = g
		w.Traits[i] = t
	}
	return w, nil
}

// GeneAssignment returns the gene map view of w.
func (w World) GeneAssignment(p *Pedigree) GeneAssignment {
	out := make(GeneAssignment, len(w.Genes))
	for i, g := range w.Genes {
		out[p.ID(i)] = g
	}
	return out
}

// TraitAssignment returns the trait map view of w.
func (w World) TraitAssignment(p *Pedigree) TraitAssignment {
	out := make(TraitAssignment, len(w.Traits))
	for i, t := range w.Traits {
		out[p.ID(i)] = t
	}
	return out
}

// Covers checks that w assigns a valid value to every individual in p.
func (w World) Covers(p *Pedigree) error {
	if len(w.Genes) != p.Len() {
		return &InvalidAssignmentError{Reason: fmt.Sprintf("gene assignment covers %d of %d individuals", len(w.Genes), p.Len())}
	}
	if len(w.Traits) != p.Len() {
		return &InvalidAssignmentError{Reason: fmt.Sprintf("trait assignment covers %d of %d individuals", len(w.Traits), p.Len())}
	}
	for i, g := range w.Genes {
		if !g.Valid() {
			return &InvalidAssignmentError{ID: p.ID(i), Reason: fmt.Sprintf("gene count %d out of range", g)}
		}
	}
	return nil
}

// EvidenceConsistent reports whether every observed trait in p matches w.
func (w World) EvidenceConsistent(p *Pedigree) bool {
	for i, t := range w.Traits {
		if !p.Observation(i).Allows(t) {
			return false
		}
	}
	return true
}
