// Package domain defines the pedigree model, model parameters, worlds, posterior
// tables, and error kinds shared by the pedigreecore inference engine.
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Observation records what is known about an individual's trait.
type Observation int8

// Trait observation states.
const (
	// ObservationUnknown means the trait was not observed.
	ObservationUnknown Observation = iota
	// ObservationAbsent means the individual is known not to exhibit the trait.
	ObservationAbsent
	// ObservationPresent means the individual is known to exhibit the trait.
	ObservationPresent
)

// ParseObservation maps the tabular encoding ("1", "0", blank) onto an Observation.
func ParseObservation(raw string) (Observation, error) {
	switch strings.TrimSpace(raw) {
	case "":
		return ObservationUnknown, nil
	case "1":
		return ObservationPresent, nil
	case "0":
		return ObservationAbsent, nil
	default:
		return ObservationUnknown, fmt.Errorf("invalid trait observation %q", raw)
	}
}

// Known reports whether the trait value is fixed by evidence.
func (o Observation) Known() bool { return o == ObservationPresent || o == ObservationAbsent }

// Allows reports whether a trait value is consistent with the observation.
func (o Observation) Allows(trait bool) bool {
	switch o {
	case ObservationPresent:
		return trait
	case ObservationAbsent:
		return !trait
	default:
		return true
	}
}

func (o Observation) String() string {
	switch o {
	case ObservationPresent:
		return "present"
	case ObservationAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// MarshalText encodes the observation by name.
func (o Observation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (o *Observation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "present":
		*o = ObservationPresent
	case "absent":
		*o = ObservationAbsent
	case "unknown", "":
		*o = ObservationUnknown
	default:
		return fmt.Errorf("invalid trait observation %q", b)
	}
	return nil
}

// Individual is a single member of a pedigree.
type Individual struct {
	ID       string      `json:"id"`
	MotherID *string     `json:"mother_id,omitempty"`
	FatherID *string     `json:"father_id,omitempty"`
	Trait    Observation `json:"trait"`
}

// IsFounder reports whether the individual has no recorded parents.
func (i Individual) IsFounder() bool { return i.MotherID == nil && i.FatherID == nil }

// Pedigree is an immutable, validated set of individuals. Every fold over the
// pedigree visits individuals in ascending ID order.
type Pedigree struct {
	people []Individual
	index  map[string]int
	mother []int
	father []int
	order  []int
}

// NewPedigree validates the supplied individuals and builds a Pedigree.
func NewPedigree(individuals []Individual) (*Pedigree, error) {
	people := make([]Individual, len(individuals))
	for i, ind := range individuals {
		people[i] = cloneIndividual(ind)
	}
	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })

	index := make(map[string]int, len(people))
	for i, ind := range people {
		if strings.TrimSpace(ind.ID) == "" {
			return nil, malformed("", "individual has an empty identifier")
		}
		if _, dup := index[ind.ID]; dup {
			return nil, malformed(ind.ID, "identifier is declared more than once")
		}
		index[ind.ID] = i
	}

	p := &Pedigree{
		people: people,
		index:  index,
		mother: make([]int, len(people)),
		father: make([]int, len(people)),
	}
	for i, ind := range people {
		p.mother[i], p.father[i] = -1, -1
		if ind.IsFounder() {
			continue
		}
		if ind.MotherID == nil || ind.FatherID == nil {
			return nil, malformed(ind.ID, "exactly one parent is recorded")
		}
		mother, father := *ind.MotherID, *ind.FatherID
		if mother == ind.ID || father == ind.ID {
			return nil, malformed(ind.ID, "individual references itself as a parent")
		}
		if mother == father {
			return nil, malformed(ind.ID, fmt.Sprintf("parent %s is listed as both mother and father", mother))
		}
		mi, ok := index[mother]
		if !ok {
			return nil, malformed(ind.ID, fmt.Sprintf("references missing mother %s", mother))
		}
		fi, ok := index[father]
		if !ok {
			return nil, malformed(ind.ID, fmt.Sprintf("references missing father %s", father))
		}
		p.mother[i], p.father[i] = mi, fi
	}

	order, err := p.topologicalOrder()
	if err != nil {
		return nil, err
	}
	p.order = order
	return p, nil
}

// topologicalOrder returns parents before children and fails on cycles.
func (p *Pedigree) topologicalOrder() ([]int, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(p.people))
	order := make([]int, 0, len(p.people))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return malformed(p.people[i].ID, "parent references form a cycle")
		}
		state[i] = visiting
		for _, parent := range [2]int{p.mother[i], p.father[i]} {
			if parent < 0 {
				continue
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[i] = done
		order = append(order, i)
		return nil
	}

	for i := range p.people {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Len returns the number of individuals.
func (p *Pedigree) Len() int { return len(p.people) }

// IDs returns the individual identifiers in pedigree order.
func (p *Pedigree) IDs() []string {
	out := make([]string, len(p.people))
	for i, ind := range p.people {
		out[i] = ind.ID
	}
	return out
}

// Individuals returns copies of every individual in pedigree order.
func (p *Pedigree) Individuals() []Individual {
	out := make([]Individual, len(p.people))
	for i, ind := range p.people {
		out[i] = cloneIndividual(ind)
	}
	return out
}

// Index returns the position of id in pedigree order.
func (p *Pedigree) Index(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// At returns the individual at position i.
func (p *Pedigree) At(i int) Individual { return cloneIndividual(p.people[i]) }

// ID returns the identifier at position i.
func (p *Pedigree) ID(i int) string { return p.people[i].ID }

// Individual looks up an individual by identifier.
func (p *Pedigree) Individual(id string) (Individual, bool) {
	i, ok := p.index[id]
	if !ok {
		return Individual{}, false
	}
	return cloneIndividual(p.people[i]), true
}

// IsFounder reports whether the individual at position i has no parents.
func (p *Pedigree) IsFounder(i int) bool { return p.mother[i] < 0 }

// ParentIndexes returns the positions of the mother and father of individual i.
// Both are -1 for founders.
func (p *Pedigree) ParentIndexes(i int) (mother, father int) { return p.mother[i], p.father[i] }

// Parents returns the parent identifiers of id. ok is false for founders and unknown IDs.
func (p *Pedigree) Parents(id string) (mother, father string, ok bool) {
	i, found := p.index[id]
	if !found || p.IsFounder(i) {
		return "", "", false
	}
	return p.people[p.mother[i]].ID, p.people[p.father[i]].ID, true
}

// Observation returns the observed trait of the individual at position i.
func (p *Pedigree) Observation(i int) Observation { return p.people[i].Trait }

// Founders returns the identifiers of all founders in pedigree order.
func (p *Pedigree) Founders() []string {
	var out []string
	for i, ind := range p.people {
		if p.IsFounder(i) {
			out = append(out, ind.ID)
		}
	}
	return out
}

// Generations returns positions ordered so that parents precede their children.
func (p *Pedigree) Generations() []int {
	out := make([]int, len(p.order))
	copy(out, p.order)
	return out
}

func cloneIndividual(ind Individual) Individual {
	out := ind
	if ind.MotherID != nil {
		m := *ind.MotherID
		out.MotherID = &m
	}
	if ind.FatherID != nil {
		f := *ind.FatherID
		out.FatherID = &f
	}
	return out
}

func malformed(id, reason string) error {
	return &MalformedPedigreeError{ID: id, Reason: reason}
}
