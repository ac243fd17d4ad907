package ingest

import (
	"context"
	"fmt"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/logger"
	"github.com/agentic-research/topicmap/internal/metrics"
	"github.com/agentic-research/topicmap/internal/store"
)

// Role specs used on derived associations.
const (
	RoleChild    = "child"
	RoleParent   = "parent"
	RoleDown     = "down"
	RoleUp       = "up"
	RoleTopic    = "topic"
	RolePrevious = "previous"
	RoleNext     = "next"
)

type DeriveStats struct {
	Created int
	Skipped int
}

// Deriver writes the structural and navigation associations of a tree.
type Deriver struct {
	Store store.Store
	MapID int
	// AllowDuplicates writes every derived association even when the same
	// edge is already stored.
	AllowDuplicates bool
	Log             *logger.Logger
	Metrics         *metrics.Import
}

func (d *Deriver) Derive(ctx context.Context, tree *Tree) (DeriveStats, error) {
	var stats DeriveStats
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	err := tree.Walk(func(n *TreeNode) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, assoc := range NavigationFor(tree, n) {
			created := true
			var err error
			if d.AllowDuplicates {
				err = d.Store.SetAssociation(ctx, d.MapID, assoc)
			} else {
				created, err = d.Store.CreateAssociationIfMissing(ctx, d.MapID, assoc)
			}
			if err != nil {
				return fmt.Errorf("store association %s: %w", assoc, err)
			}
			if created {
				stats.Created++
				d.Metrics.AssociationCreated(assoc.InstanceOf)
				log.Debug("created association", "association", assoc.String())
			} else {
				stats.Skipped++
				d.Metrics.AssociationSkipped()
			}
		}
		return nil
	})
	return stats, err
}

// NavigationFor returns the associations derived for node, in write order:
//
//   - child -> parent, always (association)
//   - child(down) -> parent(up) when node is the first sibling (navigation)
//   - child(topic) -> parent(up) when node is the last sibling (navigation)
//   - previous sibling(previous) -> node(next) for every sibling after the first
//
// The root has none.
func NavigationFor(tree *Tree, node *TreeNode) []api.Association {
	if node.Parent == "" {
		return nil
	}
	parent, ok := tree.nodes[node.Parent]
	if !ok {
		return nil
	}
	siblings := parent.Children
	i := 0
	for i < len(siblings) && siblings[i] != node {
		i++
	}
	if i == len(siblings) {
		return nil
	}

	out := []api.Association{edge(api.AssociationType, node.Identifier, RoleChild, parent.Identifier, RoleParent)}
	if i == 0 {
		out = append(out, edge(api.NavigationType, node.Identifier, RoleDown, parent.Identifier, RoleUp))
	}
	if i == len(siblings)-1 {
		out = append(out, edge(api.NavigationType, node.Identifier, RoleTopic, parent.Identifier, RoleUp))
	}
	if i > 0 {
		out = append(out, edge(api.NavigationType, siblings[i-1].Identifier, RolePrevious, node.Identifier, RoleNext))
	}
	return out
}

func edge(instanceOf, src, srcRole, dest, destRole string) api.Association {
	return api.Association{
		InstanceOf:   instanceOf,
		Scope:        api.UniversalScope,
		SrcTopicRef:  src,
		SrcRoleSpec:  srcRole,
		DestTopicRef: dest,
		DestRoleSpec: destRole,
	}
}
