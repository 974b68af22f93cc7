// Package pedigreecsv reads pedigrees from CSV files with the columns
// name, mother, father and trait. Parent columns are blank for founders; trait
// is 1, 0 or blank when unobserved.
package pedigreecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pedigreecore/pkg/domain"
)

var requiredColumns = []string{"name", "mother", "father", "trait"}

// Load parses individuals in file order. Structural validation of the
// pedigree is left to domain.NewPedigree.
func Load(r io.Reader) ([]domain.Individual, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("pedigree csv: missing header")
		}
		return nil, fmt.Errorf("pedigree csv: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("pedigree csv: missing column %q", name)
		}
	}

	var out []domain.Individual
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pedigree csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		trait, err := domain.ParseObservation(row[cols["trait"]])
		if err != nil {
			return nil, fmt.Errorf("pedigree csv line %d: %w", line, err)
		}
		out = append(out, domain.Individual{
			ID:       strings.TrimSpace(row[cols["name"]]),
			MotherID: optional(row[cols["mother"]]),
			FatherID: optional(row[cols["father"]]),
			Trait:    trait,
		})
	}
	return out, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string) ([]domain.Individual, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func optional(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}
