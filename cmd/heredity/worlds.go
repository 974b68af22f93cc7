package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pedigreecore/internal/core"
	"pedigreecore/internal/pedigreecsv"
	"pedigreecore/pkg/domain"
)

func newWorldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worlds <pedigree.csv>",
		Short: "Size the world space of a pedigree without scoring it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			individuals, err := pedigreecsv.LoadFile(args[0])
			if err != nil {
				return err
			}
			p, err := domain.NewPedigree(individuals)
			if err != nil {
				return err
			}
			count, err := core.NewEngine().Count(p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "individuals: %d\n", count.Individuals)
			_, _ = fmt.Fprintf(out, "trait sets: %d (%d pruned by evidence)\n", count.TraitSets, count.Pruned)
			_, _ = fmt.Fprintf(out, "gene partitions: %d\n", count.Partitions)
			_, _ = fmt.Fprintf(out, "worlds: %d\n", count.Worlds)
			return nil
		},
	}
}
