// Package config loads model parameters from YAML and applies environment
// overrides.
//
// A model file may set any subset of the parameters; unset ones keep the
// values of the base model passed in:
//
//	founderPrior: {0: 0.96, 1: 0.03, 2: 0.01}
//	emission:
//	  0: {present: 0.01, absent: 0.99}
//	  1: {present: 0.56, absent: 0.44}
//	  2: {present: 0.65, absent: 0.35}
//	mutationRate: 0.01
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pedigreecore/pkg/domain"
)

// Environment overrides.
const (
	EnvMutationRate = "PEDIGREECORE_MUTATION_RATE"
	EnvWorkers      = "PEDIGREECORE_WORKERS"
)

// EmissionRow is P(trait | gene count) in file form.
type EmissionRow struct {
	Present float64 `yaml:"present"`
	Absent  float64 `yaml:"absent"`
}

// ModelFile is the YAML shape of a model.
type ModelFile struct {
	FounderPrior map[int]float64     `yaml:"founderPrior"`
	Emission     map[int]EmissionRow `yaml:"emission"`
	MutationRate *float64            `yaml:"mutationRate"`
}

// ParseModel decodes data over base and validates the result.
func ParseModel(data []byte, base domain.Model) (domain.Model, error) {
	var file ModelFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return domain.Model{}, fmt.Errorf("decode model: %w", err)
	}
	m := base
	if len(file.FounderPrior) > 0 {
		prior, err := geneDistribution(file.FounderPrior)
		if err != nil {
			return domain.Model{}, err
		}
		m.FounderPrior = prior
	}
	for g, row := range file.Emission {
		if g < 0 || g > int(domain.GeneTwo) {
			return domain.Model{}, &domain.InvalidModelError{Field: "emission", Reason: fmt.Sprintf("gene count %d is outside 0..2", g)}
		}
		m.Emission[g] = domain.TraitDistribution{True: row.Present, False: row.Absent}
	}
	if file.MutationRate != nil {
		m.MutationRate = *file.MutationRate
	}
	if err := m.Validate(); err != nil {
		return domain.Model{}, err
	}
	return m, nil
}

// LoadModel reads and parses the model file at path.
func LoadModel(path string, base domain.Model) (domain.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Model{}, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(data, base)
}

// ApplyEnv overrides the mutation rate from PEDIGREECORE_MUTATION_RATE.
func ApplyEnv(m domain.Model) (domain.Model, error) {
	raw := os.Getenv(EnvMutationRate)
	if raw == "" {
		return m, nil
	}
	mu, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Model{}, fmt.Errorf("parse %s: %w", EnvMutationRate, err)
	}
	m.MutationRate = mu
	if err := m.Validate(); err != nil {
		return domain.Model{}, err
	}
	return m, nil
}

// Workers returns the PEDIGREECORE_WORKERS shard count, or 0 (one per CPU) when unset.
func Workers() (int, error) {
	raw := os.Getenv(EnvWorkers)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("parse %s: %q is not a non-negative integer", EnvWorkers, raw)
	}
	return n, nil
}

// MarshalModel renders m in the file format accepted by ParseModel.
func MarshalModel(m domain.Model) ([]byte, error) {
	file := ModelFile{
		FounderPrior: make(map[int]float64, 3),
		Emission:     make(map[int]EmissionRow, 3),
		MutationRate: &m.MutationRate,
	}
	for _, g := range domain.GeneCounts {
		file.FounderPrior[int(g)] = m.FounderPrior.Of(g)
		file.Emission[int(g)] = EmissionRow{Present: m.Emission[g].True, Absent: m.Emission[g].False}
	}
	return yaml.Marshal(file)
}

func geneDistribution(in map[int]float64) (domain.GeneDistribution, error) {
	var d domain.GeneDistribution
	for g, p := range in {
		if g < 0 || g > int(domain.GeneTwo) {
			return d, &domain.InvalidModelError{Field: "founder_prior", Reason: fmt.Sprintf("gene count %d is outside 0..2", g)}
		}
		d[g] = p
	}
	return d, nil
}
