// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskgraph-mk/mk/discovery"
)

const watchDebounce = 100 * time.Millisecond

// Watch runs Build repeatedly: once immediately, then again every time
// a watched file changes (SPEC_FULL.md §4.4). It watches every
// Source-tagged dependency file reachable from the graph, the task
// file, and any ingested ".d" fragments. Any file-system event on a
// watched path (write, create, remove, rename or chmod) counts as a
// change; changes within watchDebounce of each other coalesce into a
// single rebuild. Watch returns only when ctx is cancelled or the
// watcher fails.
func Watch(ctx context.Context, opt Options) error {
	sourceRoot := opt.SourceDir
	if sourceRoot == "" {
		sourceRoot = opt.BuildRoot
	}

	for {
		if err := Build(ctx, opt); err != nil {
			opt.Log.Error().Err(err).Msg("build failed")
		} else {
			opt.Log.Info().Msg("build succeeded")
		}

		watchSet, err := watchSetFor(opt, sourceRoot)
		if err != nil {
			return err
		}

		if err := waitForChange(ctx, watchSet); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// watchSetFor re-loads the graph (a fresh parse, since the previous
// Build's internal graph isn't retained) and collects every file that
// should trigger a rebuild.
func watchSetFor(opt Options, sourceRoot string) (map[string]struct{}, error) {
	set := make(map[string]struct{})

	if taskFile, ok := discovery.FindTaskFile(sourceRoot, opt.Log); ok {
		set[taskFile] = struct{}{}
	}
	for _, f := range discovery.FindFragments(opt.BuildRoot, opt.Log) {
		set[f] = struct{}{}
	}

	graph, _, err := Load(opt, sourceRoot)
	if err != nil {
		// The task file may be transiently broken mid-edit; still watch
		// what we found above so the next save can retry.
		return set, nil
	}
	for _, n := range graph.Nodes {
		for _, d := range n.DependencyFiles {
			if d.Tag == TagSource {
				set[filepath.Join(graph.SourceRoot, d.Name)] = struct{}{}
			}
		}
	}
	return set, nil
}

// waitForChange blocks until any event touches a path in watchSet (after
// debouncing), ctx is cancelled, or the watcher fails.
func waitForChange(ctx context.Context, watchSet map[string]struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := make(map[string]struct{})
	for p := range watchSet {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		// Best-effort: a directory that doesn't exist yet (e.g. a build
		// output directory not yet created) simply isn't watched until a
		// later rebuild creates it.
		_ = w.Add(d)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, interesting := watchSet[ev.Name]; !interesting {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(watchDebounce)
			}
			timerC = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timerC:
			return nil
		}
	}
}
