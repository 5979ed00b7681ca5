// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner is the Recipe Runner collaborator the Scheduler dispatches
// ready nodes to (spec §4.4/§4.5).
type Runner interface {
	Run(ctx context.Context, n *TargetNode) error
}

// Scheduler is the bounded parallel worker pool described in spec §4.4
// and §5. It is grounded on the errgroup-based worker-pool pattern used
// throughout the retrieved example pack for fan-out-with-fail-fast, but
// concurrency is capped by a semaphore channel acquired only around the
// actual recipe execution rather than by errgroup.SetLimit — the
// teacher's own hand-rolled builder in exec.go acquires its limiting
// semaphore around the work itself, not around the goroutine that
// submits it, which is the shape restored here. Submitting a node (i.e.
// fanning out to its dependents) never blocks on job headroom; only
// running one does, so a job completing from inside an already-running
// worker can always submit its dependents without deadlocking the pool.
type Scheduler struct {
	graph     *Graph
	runner    Runner
	sem       chan struct{}
	log       zerolog.Logger
	cancelled atomic.Bool
}

// NewScheduler constructs a Scheduler over graph, dispatching ready
// nodes to runner with at most jobs concurrently executing. jobs <= 0
// defaults to runtime.NumCPU() (spec §5: "sized by default to the
// number of physical CPU cores").
func NewScheduler(graph *Graph, runner Runner, jobs int, log zerolog.Logger) *Scheduler {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Scheduler{graph: graph, runner: runner, sem: make(chan struct{}, jobs), log: log}
}

// Build runs the graph to completion (or first fatal error), returning
// the first error reported by any worker.
//
// ctx is the process's top-level cancellation signal (Ctrl-C/SIGTERM,
// wired in by cmd/mk) and is the context every subprocess runs under —
// per spec §5, cancellation "does not kill in-flight subprocesses but
// prevents further work". A second, errgroup-derived context is used
// only to stop scheduling new nodes once a sibling job fails; it is
// never passed to the runner, so a failing job's sibling processes are
// never killed out from under them.
func (s *Scheduler) Build(ctx context.Context) error {
	eg, schedCtx := errgroup.WithContext(ctx)

	var submit func(n *TargetNode)
	submit = func(n *TargetNode) {
		eg.Go(func() error {
			return s.runJob(ctx, schedCtx, n, submit)
		})
	}

	for _, root := range s.graph.Roots {
		submit(root)
	}

	return eg.Wait()
}

// runJob implements the per-node job body of spec §4.4: check
// cancellation, abandon silently if a dependency isn't ready yet
// (another completing dependency will re-submit this node later),
// otherwise run the node's recipe exactly once and fan out to its
// dependents on success.
//
// execCtx is handed to the runner and governs subprocess lifetime.
// schedCtx is only consulted here to decide whether to acquire a
// worker slot or bail out because the build has already failed
// elsewhere; it is never passed downstream.
func (s *Scheduler) runJob(execCtx, schedCtx context.Context, n *TargetNode, submit func(*TargetNode)) error {
	if s.cancelled.Load() {
		return nil
	}
	if schedCtx.Err() != nil {
		return nil
	}

	for _, dep := range n.Dependencies {
		if !dep.Once.isDone() {
			return nil
		}
	}

	ran, err := n.Once.tryRun(func() error {
		select {
		case s.sem <- struct{}{}:
		case <-schedCtx.Done():
			return schedCtx.Err()
		}
		defer func() { <-s.sem }()

		return s.runner.Run(execCtx, n)
	})
	if !ran {
		return nil
	}
	if err != nil {
		s.cancelled.Store(true)
		s.log.Error().Str("target", n.Name).Err(err).Msg("build failed")
		return err
	}

	for _, d := range n.Dependents {
		submit(d)
	}
	return nil
}
