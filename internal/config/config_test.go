package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pedigreecore/pkg/domain"
)

func TestParseModelFullFile(t *testing.T) {
	data := []byte(`
founderPrior: {0: 0.9, 1: 0.08, 2: 0.02}
emission:
  0: {present: 0.05, absent: 0.95}
  1: {present: 0.5, absent: 0.5}
  2: {present: 0.9, absent: 0.1}
mutationRate: 0.02
`)
	m, err := ParseModel(data, domain.StandardModel())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.FounderPrior != (domain.GeneDistribution{0.9, 0.08, 0.02}) {
		t.Fatalf("unexpected prior %v", m.FounderPrior)
	}
	if m.Emission[domain.GeneTwo].True != 0.9 || m.MutationRate != 0.02 {
		t.Fatalf("unexpected model %+v", m)
	}
}

func TestParseModelPartialKeepsBase(t *testing.T) {
	m, err := ParseModel([]byte("mutationRate: 0.05\n"), domain.StandardModel())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := domain.StandardModel()
	want.MutationRate = 0.05
	if m != want {
		t.Fatalf("expected standard model with new rate, got %+v", m)
	}
	empty, err := ParseModel(nil, domain.StandardModel())
	if err != nil || empty != domain.StandardModel() {
		t.Fatalf("empty file should keep base: %+v %v", empty, err)
	}
}

func TestParseModelRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":     "mutation: 0.1\n",
		"prior sum":         "founderPrior: {0: 0.5, 1: 0.1, 2: 0.1}\n",
		"gene out of range": "emission:\n  3: {present: 1, absent: 0}\n",
		"rate bounds":       "mutationRate: 1\n",
		"malformed yaml":    "founderPrior: [\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseModel([]byte(input), domain.StandardModel()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	_, err := ParseModel([]byte("mutationRate: 0\n"), domain.StandardModel())
	if !errors.Is(err, domain.ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}

func TestMarshalModelRoundTrip(t *testing.T) {
	data, err := MarshalModel(domain.StandardModel())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	base := domain.StandardModel()
	base.MutationRate = 0.3
	m, err := LoadModel(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m != domain.StandardModel() {
		t.Fatalf("round trip mismatch: %+v", m)
	}
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.yaml"), base); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvMutationRate, "")
	m, err := ApplyEnv(domain.StandardModel())
	if err != nil || m != domain.StandardModel() {
		t.Fatalf("unset env should not change model: %v", err)
	}
	t.Setenv(EnvMutationRate, "0.2")
	m, err = ApplyEnv(domain.StandardModel())
	if err != nil || m.MutationRate != 0.2 {
		t.Fatalf("expected override, got %v %v", m.MutationRate, err)
	}
	t.Setenv(EnvMutationRate, "abc")
	if _, err := ApplyEnv(domain.StandardModel()); err == nil {
		t.Fatalf("expected parse error")
	}
	t.Setenv(EnvMutationRate, "2")
	if _, err := ApplyEnv(domain.StandardModel()); !errors.Is(err, domain.ErrInvalidModel) {
		t.Fatalf("expected invalid model, got %v", err)
	}
}

func TestWorkers(t *testing.T) {
	t.Setenv(EnvWorkers, "")
	if n, err := Workers(); err != nil || n != 0 {
		t.Fatalf("expected default 0, got %d %v", n, err)
	}
	t.Setenv(EnvWorkers, "4")
	if n, err := Workers(); err != nil || n != 4 {
		t.Fatalf("expected 4, got %d %v", n, err)
	}
	for _, bad := range []string{"-1", "many"} {
		t.Setenv(EnvWorkers, bad)
		if _, err := Workers(); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
