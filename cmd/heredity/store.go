package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pedigreecore/internal/core"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect persisted pedigrees and inference runs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "pedigrees",
		Short: "List stored pedigrees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := core.OpenPedigreeStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeIfCloser(store)
			records, err := store.ListPedigrees(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tINDIVIDUALS\tUPDATED")
			for _, r := range records {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Name, len(r.Individuals), r.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "runs [pedigree-id]",
		Short: "List recorded inference runs, optionally for one pedigree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := core.OpenPedigreeStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeIfCloser(store)
			var pedigreeID string
			if len(args) == 1 {
				pedigreeID = args[0]
			}
			runs, err := store.ListRuns(cmd.Context(), pedigreeID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tPEDIGREE\tSTATUS\tCACHED\tWORLDS\tREPORT")
			for _, r := range runs {
				report := r.ReportKey
				if report == "" {
					report = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%s\n", r.ID, r.PedigreeID, r.Status, r.Cached, r.Worlds, report)
			}
			return tw.Flush()
		},
	})
	return cmd
}
