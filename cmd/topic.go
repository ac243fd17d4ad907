package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/store"
)

func newTopicCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Inspect or delete topics",
	}

	var withAttributes, withOccurrences bool
	get := &cobra.Command{
		Use:   "get <identifier>",
		Short: "Print a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ro := api.DontResolve
			if withAttributes {
				ro |= api.ResolveAttributes
			}
			if withOccurrences {
				ro |= api.ResolveOccurrences
			}
			return opts.withStore(cmd.Context(), func(s store.Store) error {
				topic, err := s.GetTopic(cmd.Context(), opts.cfg.Import.MapIdentifier, args[0], ro)
				if err != nil {
					return notFound("topic", args[0], err)
				}
				return printTopic(cmd.OutOrStdout(), topic)
			})
		},
	}
	get.Flags().BoolVar(&withAttributes, "attributes", false, "Resolve attributes")
	get.Flags().BoolVar(&withOccurrences, "occurrences", false, "Resolve occurrences")

	del := &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete a topic with its names, attributes, occurrences and associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mapID := opts.cfg.Import.MapIdentifier
			return opts.withStore(ctx, func(s store.Store) error {
				exists, err := s.TopicExists(ctx, mapID, args[0])
				if err != nil {
					return err
				}
				if !exists {
					return notFound("topic", args[0], store.ErrNotFound)
				}
				if err := s.DeleteTopic(ctx, mapID, args[0]); err != nil {
					return err
				}
				opts.log.Info("topic deleted", "topic", args[0])
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted topic %s\n", args[0])
				return err
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List topic identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(s store.Store) error {
				ids, err := s.GetTopicIdentifiers(cmd.Context(), opts.cfg.Import.MapIdentifier)
				if err != nil {
					return err
				}
				for _, id := range ids {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(get, del, list)
	return cmd
}

func newOccurrenceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occurrence",
		Short: "Inspect or delete occurrences",
	}

	get := &cobra.Command{
		Use:   "get <identifier>",
		Short: "Print an occurrence with its attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(s store.Store) error {
				occ, err := s.GetOccurrence(cmd.Context(), opts.cfg.Import.MapIdentifier, args[0], api.ResolveAttributes)
				if err != nil {
					return notFound("occurrence", args[0], err)
				}
				return printOccurrence(cmd.OutOrStdout(), "", *occ)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete an occurrence and its attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mapID := opts.cfg.Import.MapIdentifier
			return opts.withStore(ctx, func(s store.Store) error {
				if _, err := s.GetOccurrence(ctx, mapID, args[0], api.DontResolve); err != nil {
					return notFound("occurrence", args[0], err)
				}
				if err := s.DeleteOccurrence(ctx, mapID, args[0]); err != nil {
					return err
				}
				opts.log.Info("occurrence deleted", "occurrence", args[0])
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted occurrence %s\n", args[0])
				return err
			})
		},
	}

	cmd.AddCommand(get, del)
	return cmd
}

func newAssociationCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "association",
		Short: "Inspect associations",
	}
	list := &cobra.Command{
		Use:   "list <topic-identifier>",
		Short: "List associations with the topic at either end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(s store.Store) error {
				assocs, err := s.GetAssociations(cmd.Context(), opts.cfg.Import.MapIdentifier, args[0])
				if err != nil {
					return err
				}
				for _, a := range assocs {
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", a.Identifier, a); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func notFound(kind, identifier string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, identifier, store.ErrNotFound)
	}
	return err
}

func printTopic(w io.Writer, t *api.Topic) error {
	p := &printer{w: w}
	p.printf("identifier:  %s\n", t.Identifier)
	p.printf("instance of: %s\n", t.InstanceOf)
	for _, bn := range t.BaseNames {
		p.printf("name:        %s (%s)\n", bn.Name, bn.Language)
	}
	for _, a := range t.Attributes {
		printAttribute(p, "", a)
	}
	for _, o := range t.Occurrences {
		if p.err == nil {
			p.err = printOccurrence(w, "  ", o)
		}
	}
	return p.err
}

func printOccurrence(w io.Writer, indent string, o api.Occurrence) error {
	p := &printer{w: w}
	p.printf("%soccurrence:  %s %s [%s] (%s)\n", indent, o.Identifier, o.InstanceOf, o.Scope, o.Language)
	if o.ResourceRef != "" {
		p.printf("%s  ref:       %s\n", indent, o.ResourceRef)
	}
	if o.ResourceData != "" {
		p.printf("%s  data:      %s\n", indent, o.ResourceData)
	}
	for _, a := range o.Attributes {
		printAttribute(p, indent+"  ", a)
	}
	return p.err
}

func printAttribute(p *printer, indent string, a api.Attribute) {
	p.printf("%sattribute:   %s = %s (%s) [%s]\n", indent, a.Name, a.Value, a.DataType, a.Scope)
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
