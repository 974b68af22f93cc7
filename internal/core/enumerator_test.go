package core

import (
	"errors"
	"fmt"
	"testing"

	"pedigreecore/pkg/domain"
)

func worldKey(w domain.World) string {
	return fmt.Sprint(w.Genes, w.Traits)
}

func TestEnumeratorYieldsEachConsistentWorldOnce(t *testing.T) {
	p := mustPedigree(t, potterIndividuals())
	enum, err := NewEnumerator(p)
	if err != nil {
		t.Fatalf("new enumerator: %v", err)
	}
	seen := make(map[string]bool)
	for w := range enum.Worlds() {
		key := worldKey(w)
		if seen[key] {
			t.Fatalf("world %s yielded twice", key)
		}
		seen[key] = true
		if !w.EvidenceConsistent(p) {
			t.Fatalf("world %s contradicts evidence", key)
		}
	}
	// Harry's trait is free, James and Lily are observed: 2 trait sets x 3^3 partitions.
	if len(seen) != 54 {
		t.Fatalf("expected 54 worlds, got %d", len(seen))
	}
	count := enum.Count()
	if count.Worlds != 54 || count.TraitSets != 2 || count.Pruned != 6 || count.Partitions != 27 {
		t.Fatalf("unexpected count %+v", count)
	}
}

func TestEnumeratorSequencesRestart(t *testing.T) {
	p := mustPedigree(t, potterIndividuals())
	enum, err := NewEnumerator(p)
	if err != nil {
		t.Fatalf("new enumerator: %v", err)
	}
	first, second := 0, 0
	for range enum.Worlds() {
		first++
	}
	for range enum.Worlds() {
		second++
	}
	if first != second || first == 0 {
		t.Fatalf("second pass saw %d worlds, first %d", second, first)
	}

	stopped := 0
	for range enum.Worlds() {
		stopped++
		if stopped == 5 {
			break
		}
	}
	if stopped != 5 {
		t.Fatalf("early break not honoured")
	}
}

func TestEnumeratorPrunesTraitSets(t *testing.T) {
	people := []domain.Individual{
		{ID: "A", Trait: domain.ObservationPresent},
		{ID: "B", Trait: domain.ObservationPresent},
		{ID: "C"},
		{ID: "D", Trait: domain.ObservationAbsent},
	}
	enum, err := NewEnumerator(mustPedigree(t, people))
	if err != nil {
		t.Fatalf("new enumerator: %v", err)
	}
	var sets []uint64
	for traits := range enum.TraitSets() {
		sets = append(sets, traits)
	}
	// A=bit0, B=bit1 present, C=bit2 free, D=bit3 absent.
	if len(sets) != 2 || sets[0] != 0b0011 || sets[1] != 0b0111 {
		t.Fatalf("unexpected trait sets %b", sets)
	}
	if enum.Count().Pruned != 14 {
		t.Fatalf("expected 14 pruned trait sets, got %d", enum.Count().Pruned)
	}
}

func TestPartitionsCoverThreeToTheN(t *testing.T) {
	people := []domain.Individual{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}
	enum, err := NewEnumerator(mustPedigree(t, people))
	if err != nil {
		t.Fatalf("new enumerator: %v", err)
	}
	seen := make(map[Partition]bool)
	for part := range enum.Partitions() {
		if part.One&part.Two != 0 {
			t.Fatalf("partition %+v overlaps", part)
		}
		if seen[part] {
			t.Fatalf("partition %+v repeated", part)
		}
		seen[part] = true
	}
	if len(seen) != 81 {
		t.Fatalf("expected 81 partitions, got %d", len(seen))
	}
	part := Partition{One: 0b0010, Two: 0b0100}
	if part.Gene(0) != domain.GeneNone || part.Gene(1) != domain.GeneOne || part.Gene(2) != domain.GeneTwo {
		t.Fatalf("partition gene lookup broken")
	}
}

func TestEnumeratorEmptyPedigree(t *testing.T) {
	enum, err := NewEnumerator(mustPedigree(t, nil))
	if err != nil {
		t.Fatalf("new enumerator: %v", err)
	}
	n := 0
	for w := range enum.Worlds() {
		if len(w.Genes) != 0 {
			t.Fatalf("expected empty world")
		}
		n++
	}
	if n != 1 || enum.Count().Worlds != 1 {
		t.Fatalf("empty pedigree has exactly one world, got %d", n)
	}
}

func TestEnumeratorRejectsLargePedigree(t *testing.T) {
	people := make([]domain.Individual, MaxIndividuals+1)
	for i := range people {
		people[i] = domain.Individual{ID: fmt.Sprintf("p%02d", i)}
	}
	_, err := NewEnumerator(mustPedigree(t, people))
	if !errors.Is(err, domain.ErrPedigreeTooLarge) {
		t.Fatalf("expected ErrPedigreeTooLarge, got %v", err)
	}
}
