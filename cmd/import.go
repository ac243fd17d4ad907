package cmd

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agentic-research/topicmap/internal/ingest"
	"github.com/agentic-research/topicmap/internal/metrics"
	"github.com/agentic-research/topicmap/internal/store"
)

func (o *rootOptions) importer(s store.Store) (*ingest.Importer, error) {
	tabs, err := ingest.ParseTabPolicy(o.cfg.Import.Tabs)
	if err != nil {
		return nil, err
	}
	return &ingest.Importer{
		Store:                      s,
		MapID:                      o.cfg.Import.MapIdentifier,
		Indent:                     ingest.Indent{Width: o.cfg.Import.IndentWidth, Tabs: tabs},
		AllowDuplicateAssociations: o.cfg.Import.AllowDuplicateAssociations,
		Log:                        o.log,
	}, nil
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		allowDuplicates bool
		metricsFile     string
	)
	cmd := &cobra.Command{
		Use:   "import <outline>",
		Short: "Import an outline file into the topic map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg := prometheus.NewRegistry()

			err := opts.withStore(ctx, func(s store.Store) error {
				im, err := opts.importer(s)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("allow-duplicates") {
					im.AllowDuplicateAssociations = allowDuplicates
				}
				im.Metrics = metrics.NewImport(reg)

				res, err := im.ImportFile(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(),
					"imported %s into map %d: %d topics created (%d existing, %d type topics), %d associations created (%d existing) in %s\n",
					args[0], im.MapID,
					res.Topics.Created, res.Topics.Skipped, res.Topics.TypesCreated,
					res.Associations.Created, res.Associations.Skipped,
					res.Duration.Round(time.Millisecond))
				return err
			})

			// Failed runs are recorded too.
			if metricsFile != "" {
				if werr := metrics.WriteTextfile(metricsFile, reg); werr != nil {
					opts.log.Warn("failed to write metrics", "path", metricsFile, "error", werr)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", false, "Write derived associations even when the same edge exists")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write import metrics to this file in Prometheus text format")
	return cmd
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <outline>",
		Short: "Parse an outline and print its hierarchy without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			im, err := opts.importer(nil)
			if err != nil {
				return err
			}
			tree, err := im.PlanFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := tree.Render(out); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
			return tree.Walk(func(n *ingest.TreeNode) error {
				_, err := fmt.Fprintf(out, "%s - %s - %s\n", n.Identifier, n.Topic.InstanceOf, n.Topic.Name())
				return err
			})
		},
	}
}
