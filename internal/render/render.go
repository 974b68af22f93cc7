// Package render formats posterior tables for people and tools.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pedigreecore/pkg/domain"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", raw)
	}
}

// Write encodes table in format f.
func Write(w io.Writer, f Format, table domain.PosteriorTable) error {
	switch f {
	case FormatText, "":
		return Text(w, table)
	case FormatJSON:
		return JSON(w, table)
	case FormatCSV:
		return CSV(w, table)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// geneOrder lists gene counts the way the text report prints them.
var geneOrder = [3]domain.GeneCount{domain.GeneTwo, domain.GeneOne, domain.GeneNone}

// Text prints, for each individual in ID order, the gene distribution (2, 1, 0)
// and the trait distribution (True, False) to four decimal places.
func Text(w io.Writer, table domain.PosteriorTable) error {
	var b strings.Builder
	for _, id := range table.IDs() {
		m := table[id]
		fmt.Fprintf(&b, "%s:\n  Gene:\n", id)
		for _, g := range geneOrder {
			fmt.Fprintf(&b, "    %d: %.4f\n", g, m.Gene.Of(g))
		}
		fmt.Fprintf(&b, "  Trait:\n    True: %.4f\n    False: %.4f\n", m.Trait.True, m.Trait.False)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonMarginal struct {
	Gene  map[string]float64       `json:"gene"`
	Trait domain.TraitDistribution `json:"trait"`
}

// JSON writes the table as an object keyed by individual, with gene counts as
// string keys.
func JSON(w io.Writer, table domain.PosteriorTable) error {
	out := make(map[string]jsonMarginal, len(table))
	for id, m := range table {
		genes := make(map[string]float64, 3)
		for _, g := range domain.GeneCounts {
			genes[strconv.Itoa(int(g))] = m.Gene.Of(g)
		}
		out[id] = jsonMarginal{Gene: genes, Trait: m.Trait}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// CSVHeader is the first row written by CSV.
var CSVHeader = []string{"id", "gene_0", "gene_1", "gene_2", "trait_true", "trait_false"}

// CSV writes one row per individual in ID order.
func CSV(w io.Writer, table domain.PosteriorTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, id := range table.IDs() {
		m := table[id]
		row := []string{
			id,
			formatFloat(m.Gene.Of(domain.GeneNone)),
			formatFloat(m.Gene.Of(domain.GeneOne)),
			formatFloat(m.Gene.Of(domain.GeneTwo)),
			formatFloat(m.Trait.True),
			formatFloat(m.Trait.False),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
