// Package ingest imports indented outlines into a topic map: each line
// becomes a topic and the indentation hierarchy becomes structural and
// navigation associations between them.
package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/agentic-research/topicmap/internal/logger"
	"github.com/agentic-research/topicmap/internal/metrics"
	"github.com/agentic-research/topicmap/internal/store"
)

// Result summarises one import run.
type Result struct {
	Tree         *Tree
	Topics       MaterializeStats
	Associations DeriveStats
	Duration     time.Duration
}

// Importer runs parse, tree, materialize and derive for one topic map.
// The stages run strictly in that order; the first error aborts the run.
// Writes made before a materialize or derive failure stay in the store.
type Importer struct {
	Store store.Store
	MapID int
	// Indent defaults to DefaultIndent() when Width is zero.
	Indent Indent
	// FS resolves ImportFile paths. Nil means the host filesystem.
	FS                         billy.Filesystem
	AllowDuplicateAssociations bool
	Log                        *logger.Logger
	Metrics                    *metrics.Import
	Clock                      func() time.Time
}

func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := im.open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return im.Import(ctx, f)
}

// PlanFile is Plan for an outline on the importer's filesystem.
func (im *Importer) PlanFile(path string) (*Tree, error) {
	f, err := im.open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return im.Plan(f)
}

// Plan parses the outline and builds its tree without touching the store.
func (im *Importer) Plan(r io.Reader) (*Tree, error) {
	tree, _, err := im.plan(r)
	return tree, err
}

func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	log := im.logger()

	tree, stage, err := im.plan(r)
	if err != nil {
		im.Metrics.Failed(stage)
		return nil, err
	}
	log.Info("outline parsed", "topics", tree.Len(), "root", tree.Root.Identifier, "map", im.MapID)

	materializer := &Materializer{
		Store:   im.Store,
		MapID:   im.MapID,
		Clock:   im.Clock,
		Log:     log,
		Metrics: im.Metrics,
	}
	topics, err := materializer.Materialize(ctx, tree)
	if err != nil {
		im.Metrics.Failed(metrics.StageMaterialize)
		return nil, fmt.Errorf("materialize topics: %w", err)
	}

	deriver := &Deriver{
		Store:           im.Store,
		MapID:           im.MapID,
		AllowDuplicates: im.AllowDuplicateAssociations,
		Log:             log,
		Metrics:         im.Metrics,
	}
	assocs, err := deriver.Derive(ctx, tree)
	if err != nil {
		im.Metrics.Failed(metrics.StageDerive)
		return nil, fmt.Errorf("derive associations: %w", err)
	}

	res := &Result{
		Tree:         tree,
		Topics:       topics,
		Associations: assocs,
		Duration:     time.Since(start),
	}
	im.Metrics.ObserveImport(res.Duration)
	log.Info("import complete",
		"topics_created", topics.Created,
		"topics_skipped", topics.Skipped,
		"type_topics_created", topics.TypesCreated,
		"associations_created", assocs.Created,
		"associations_skipped", assocs.Skipped,
		"duration", res.Duration)
	return res, nil
}

// plan also reports the stage that failed.
func (im *Importer) plan(r io.Reader) (*Tree, string, error) {
	indent := im.Indent
	if indent.Width == 0 {
		indent = DefaultIndent()
	}
	records, err := ParseOutline(r, indent)
	if err != nil {
		return nil, metrics.StageParse, fmt.Errorf("parse outline: %w", err)
	}
	tree, err := BuildTree(records)
	if err != nil {
		return nil, metrics.StageTree, fmt.Errorf("build tree: %w", err)
	}
	return tree, "", nil
}

func (im *Importer) open(path string) (billy.File, error) {
	fs := im.FS
	name := path
	if fs == nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve outline path %s: %w", path, err)
		}
		fs = osfs.New(filepath.Dir(abs))
		name = filepath.Base(abs)
	}
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open outline %s: %w", path, err)
	}
	return f, nil
}

func (im *Importer) logger() *logger.Logger {
	if im.Log == nil {
		return logger.Nop()
	}
	return im.Log
}
