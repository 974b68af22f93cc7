package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "heredity",
		Short: "Exact pedigree inference for a single-gene trait",
		Long: `heredity enumerates every joint assignment of gene-copy counts and trait
values across a pedigree and reports each individual's posterior marginals.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
	root.AddCommand(newInferCmd(), newWorldsCmd(), newStoreCmd())
	return root
}

// closeIfCloser releases stores and caches that hold connections or files.
func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
