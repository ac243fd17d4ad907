package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/topicmap/internal/config"
	"github.com/agentic-research/topicmap/internal/logger"
	"github.com/agentic-research/topicmap/internal/store"
)

// rootOptions is shared by every subcommand. It is filled in by the root's
// PersistentPreRunE before any RunE executes.
type rootOptions struct {
	configPath string
	mapID      int

	cfg config.Config
	log *logger.Logger
}

// NewRootCmd builds the topicmap command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "topicmap",
		Short:         "Import indented outlines into a topic map store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				opts.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to HCL configuration")
	root.PersistentFlags().IntVar(&opts.mapID, "map", 0, "Topic map identifier (overrides import.map_identifier)")

	root.AddCommand(
		newImportCmd(opts),
		newTreeCmd(opts),
		newTopicCmd(opts),
		newOccurrenceCmd(opts),
		newAssociationCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("map") {
		cfg.Import.MapIdentifier = o.mapID
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--map: %w", err)
		}
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log.With("map", cfg.Import.MapIdentifier)
	return nil
}

func (o *rootOptions) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, o.cfg.Store.Driver, o.cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", o.cfg.Store.Driver, err)
	}
	o.log.Debug("store opened", "driver", o.cfg.Store.Driver, "dsn", o.cfg.Store.DSN)
	return s, nil
}

// withStore opens the configured store for the duration of fn.
func (o *rootOptions) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}
