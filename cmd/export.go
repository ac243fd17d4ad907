package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/topicmap/internal/export"
	"github.com/agentic-research/topicmap/internal/store"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the topic map as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(s store.Store) error {
				doc, err := export.Document(cmd.Context(), s, opts.cfg.Import.MapIdentifier)
				if err != nil {
					return err
				}
				return export.Write(cmd.OutOrStdout(), doc, selector)
			})
		},
	}
	cmd.Flags().StringVar(&selector, "select", "", "JSONPath expression selecting part of the export")
	return cmd
}
