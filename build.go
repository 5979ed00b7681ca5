// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/taskgraph-mk/mk/compiledb"
	"github.com/taskgraph-mk/mk/discovery"
	"github.com/taskgraph-mk/mk/fragments"
)

// Options configures a single Build invocation — the surface the CLI
// (cmd/mk) and any embedder build against.
type Options struct {
	BuildRoot string
	SourceDir string // defaults to BuildRoot if empty (spec §6)
	Jobs      int
	DryRun    bool
	Compiledb bool
	Log       zerolog.Logger
}

// Build runs one complete invocation of the orchestrator end to end:
// discover the task file, ingest any ".d" fragments, parse, evaluate,
// build the dependency graph, and drive the scheduler over every root
// (spec §4.4: "Submit each root to the worker pool as an initial job"
// — the core has no notion of selecting a subset of targets; every
// top-level artifact reachable from the declared tasks gets built on
// every invocation, with staleness checks making the already-current
// ones cheap no-ops).
func Build(ctx context.Context, opt Options) error {
	sourceRoot := opt.SourceDir
	if sourceRoot == "" {
		sourceRoot = opt.BuildRoot
	}

	graph, recipes, err := Load(opt, sourceRoot)
	if err != nil {
		return err
	}

	var db *compiledb.DB
	runner := &RecipeRunner{
		Recipes:    recipes,
		SourceRoot: graph.SourceRoot,
		BuildRoot:  graph.BuildRoot,
		DryRun:     opt.DryRun,
		Log:        opt.Log,
	}
	if opt.Compiledb {
		db = compiledb.New()
		runner.PreCompile = db.PreCompile
	}

	sched := NewScheduler(graph, runner, opt.Jobs, opt.Log)
	if err := sched.Build(ctx); err != nil {
		return err
	}

	if db != nil {
		if err := db.Finalize(opt.BuildRoot); err != nil {
			opt.Log.Warn().Err(err).Msg("failed to write compile_commands.json")
		}
	}

	return nil
}

// Load discovers and parses the task file plus any ".d" fragments, and
// lowers the result into a Graph. It is shared by Build, the --why
// diagnostic, and --watch's file-set collection, none of which need to
// duplicate graph construction.
func Load(opt Options, sourceRoot string) (*Graph, map[string][]*Recipe, error) {
	taskFilePath, ok := discovery.FindTaskFile(sourceRoot, opt.Log)
	if !ok {
		return nil, nil, &ResolutionError{Target: discovery.TaskFileName, Msg: "not found in " + sourceRoot + " or any parent directory"}
	}

	taskFileBytes, err := os.ReadFile(taskFilePath)
	if err != nil {
		return nil, nil, err
	}

	fragPaths := discovery.FindFragments(opt.BuildRoot, opt.Log)
	fragTexts := fragments.Read(fragPaths, opt.Log)

	var src strings.Builder
	src.Write(taskFileBytes)
	for _, f := range fragTexts {
		src.WriteByte('\n')
		src.WriteString(f)
	}

	ast, err := ParseNamed(taskFilePath, strings.NewReader(src.String()))
	if err != nil {
		return nil, nil, err
	}

	env := NewEnv()
	tf, err := BuildTaskFile(ast, env)
	if err != nil {
		return nil, nil, err
	}

	graph, err := BuildGraph(tf, sourceRoot, opt.BuildRoot)
	if err != nil {
		return nil, nil, err
	}

	return graph, tf.Recipes, nil
}
