// Package export renders a stored topic map as JSON, optionally narrowed by a
// JSONPath selector.
package export

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/topicmap/api"
	"github.com/agentic-research/topicmap/internal/store"
)

// Document loads map mapID from s as generic JSON data: topics sorted by
// identifier, each with names, attributes and occurrences, and every
// association once.
func Document(ctx context.Context, s store.Store, mapID int) (map[string]any, error) {
	ids, err := s.GetTopicIdentifiers(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	sort.Strings(ids)

	topics := make([]any, 0, len(ids))
	seen := make(map[string]bool)
	var assocs []api.Association
	for _, id := range ids {
		topic, err := s.GetTopic(ctx, mapID, id, api.ResolveAttributes|api.ResolveOccurrences)
		if err != nil {
			return nil, fmt.Errorf("get topic %s: %w", id, err)
		}
		topics = append(topics, topicValue(topic))

		related, err := s.GetAssociations(ctx, mapID, id)
		if err != nil {
			return nil, fmt.Errorf("get associations of %s: %w", id, err)
		}
		for _, a := range related {
			if !seen[a.Identifier] {
				seen[a.Identifier] = true
				assocs = append(assocs, a)
			}
		}
	}

	sort.SliceStable(assocs, func(i, j int) bool {
		return assocs[i].String() < assocs[j].String()
	})
	associations := make([]any, 0, len(assocs))
	for _, a := range assocs {
		associations = append(associations, associationValue(a))
	}

	return map[string]any{
		"map":          int64(mapID),
		"topics":       topics,
		"associations": associations,
	}, nil
}

// Write renders doc as indented JSON with sorted keys. A non-empty selector
// is a JSONPath expression; the matches are written as an array.
func Write(w io.Writer, doc any, selector string) error {
	data := doc
	if selector != "" {
		x, err := jp.ParseString(selector)
		if err != nil {
			return fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
		}
		data = x.Get(doc)
	}
	if _, err := io.WriteString(w, oj.JSON(data, &oj.Options{Indent: 2, Sort: true})+"\n"); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func topicValue(t *api.Topic) map[string]any {
	names := make([]any, 0, len(t.BaseNames))
	for _, bn := range t.BaseNames {
		names = append(names, map[string]any{
			"identifier": bn.Identifier,
			"name":       bn.Name,
			"language":   string(bn.Language),
		})
	}
	occs := make([]any, 0, len(t.Occurrences))
	for _, o := range t.Occurrences {
		occ := map[string]any{
			"identifier":  o.Identifier,
			"instance_of": o.InstanceOf,
			"scope":       o.Scope,
			"language":    string(o.Language),
			"attributes":  attributeValues(o.Attributes),
		}
		if o.ResourceRef != "" {
			occ["resource_ref"] = o.ResourceRef
		}
		if o.ResourceData != "" {
			occ["resource_data"] = o.ResourceData
		}
		occs = append(occs, occ)
	}
	return map[string]any{
		"identifier":  t.Identifier,
		"instance_of": t.InstanceOf,
		"names":       names,
		"attributes":  attributeValues(t.Attributes),
		"occurrences": occs,
	}
}

func attributeValues(attrs []api.Attribute) []any {
	out := make([]any, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, map[string]any{
			"identifier": a.Identifier,
			"name":       a.Name,
			"value":      a.Value,
			"data_type":  a.DataType.String(),
			"scope":      a.Scope,
			"language":   string(a.Language),
		})
	}
	return out
}

func associationValue(a api.Association) map[string]any {
	return map[string]any{
		"identifier":  a.Identifier,
		"instance_of": a.InstanceOf,
		"scope":       a.Scope,
		"source":      map[string]any{"topic": a.SrcTopicRef, "role": a.SrcRoleSpec},
		"destination": map[string]any{"topic": a.DestTopicRef, "role": a.DestRoleSpec},
		"attributes":  attributeValues(a.Attributes),
	}
}
