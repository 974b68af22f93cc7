package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pedigreecore/pkg/domain"
)

func sampleTable() domain.PosteriorTable {
	return domain.PosteriorTable{
		"Lily":  {Gene: domain.GeneDistribution{0.9, 0.08, 0.02}, Trait: domain.TraitDistribution{True: 0, False: 1}},
		"Harry": {Gene: domain.GeneDistribution{0.5351, 0.4557, 0.0092}, Trait: domain.TraitDistribution{True: 0.2665, False: 0.7335}},
	}
}

func TestTextMatchesReportLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleTable()); err != nil {
		t.Fatalf("text: %v", err)
	}
	want := strings.Join([]string{
		"Harry:",
		"  Gene:",
		"    2: 0.0092",
		"    1: 0.4557",
		"    0: 0.5351",
		"  Trait:",
		"    True: 0.2665",
		"    False: 0.7335",
		"Lily:",
		"  Gene:",
		"    2: 0.0200",
		"    1: 0.0800",
		"    0: 0.9000",
		"  Trait:",
		"    True: 0.0000",
		"    False: 1.0000",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected text output:\n%s", buf.String())
	}
}

func TestJSONKeysGeneCounts(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleTable()); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]struct {
		Gene  map[string]float64 `json:"gene"`
		Trait struct {
			True  float64 `json:"true"`
			False float64 `json:"false"`
		} `json:"trait"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["Harry"].Gene["2"] != 0.0092 || decoded["Harry"].Trait.True != 0.2665 {
		t.Fatalf("unexpected decoded marginal %+v", decoded["Harry"])
	}
}

func TestCSVRows(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleTable()); err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(lines))
	}
	if lines[0] != strings.Join(CSVHeader, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "Harry,0.5351,0.4557,0.0092,0.2665,0.7335" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " csv ": FormatCSV}
	for raw, want := range cases {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if err := Write(&bytes.Buffer{}, Format("xml"), nil); err == nil {
		t.Fatalf("expected Write to reject unknown format")
	}
}
