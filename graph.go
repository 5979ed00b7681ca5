// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DependencyTag classifies a target node's dependency file (spec §3).
type DependencyTag int

const (
	// TagSource is an on-disk input resolved against the source root.
	TagSource DependencyTag = iota
	// TagGenerated is an input produced by another node in the graph,
	// resolved against the build root.
	TagGenerated
)

// DependencyFile is one tagged entry in a node's dependency_files list.
type DependencyFile struct {
	Name string
	Tag  DependencyTag
}

// TargetNode is a graph entity producing one target file (spec §3).
type TargetNode struct {
	Name string

	// DependencyFiles is the ordered, tagged input list. Order matches
	// the task's declared input order and drives $^ substitution.
	DependencyFiles []DependencyFile

	// Dependents are nodes that consume this one (strong references in
	// the source model; in Go, ordinary pointers suffice since the GC
	// has no trouble with the resulting cycles).
	Dependents []*TargetNode

	// Dependencies mirrors Dependents' back-edges (modeled as "weak" in
	// the source design to avoid a reference-counting cycle; Go's
	// garbage collector handles the cycle directly, so this field is a
	// plain slice of pointers rather than an actual weak reference).
	Dependencies []*TargetNode

	// IsBranch is true iff at least one of this node's own dependencies
	// was promoted to Generated during edge linking (spec §4.3 step 4).
	// Roots — the scheduler's initial seeds — are the nodes for which
	// this is false: their inputs are all on-disk Source files, so they
	// can run immediately without waiting on anything else.
	IsBranch bool

	Once onceFallible
}

// Graph is the complete, immutable-after-construction dependency graph.
type Graph struct {
	Nodes      map[string]*TargetNode
	Roots      []*TargetNode
	SourceRoot string
	BuildRoot  string
}

// BuildGraph lowers a TaskFile into a Graph, following spec §4.3's five
// steps exactly.
func BuildGraph(tf *TaskFile, sourceRoot, buildRoot string) (*Graph, error) {
	sourceRoot = filepath.Clean(sourceRoot)
	buildRoot = filepath.Clean(buildRoot)

	// Step 1: path canonicalization.
	tasks := make([]*Task, len(tf.Tasks))
	for i, t := range tf.Tasks {
		tasks[i] = &Task{
			Target: canonicalize(t.Target, sourceRoot, buildRoot),
			Inputs: canonicalizeAll(t.Inputs, sourceRoot, buildRoot),
		}
	}
	declared := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		declared[t.Target] = t
	}

	// Step 2: implicit-task inference. New tasks may themselves need
	// inference transitively resolved by repeated passes over the
	// worklist, so we run until a fixed point.
	worklist := append([]*Task(nil), tasks...)
	for len(worklist) > 0 {
		t := worklist[0]
		worklist = worklist[1:]
		for _, in := range t.Inputs {
			if _, ok := declared[in]; ok {
				continue
			}
			if fileExists(filepath.Join(sourceRoot, in)) {
				continue
			}
			synth, err := inferImplicitTask(in, tf.Recipes, sourceRoot)
			if err != nil {
				return nil, err
			}
			declared[in] = synth
			tasks = append(tasks, synth)
			worklist = append(worklist, synth)
		}
	}

	// Step 3: node construction.
	g := &Graph{Nodes: make(map[string]*TargetNode, len(tasks)), SourceRoot: sourceRoot, BuildRoot: buildRoot}
	for _, t := range tasks {
		depFiles := make([]DependencyFile, len(t.Inputs))
		for i, in := range t.Inputs {
			depFiles[i] = DependencyFile{Name: in, Tag: TagSource}
		}
		g.Nodes[t.Target] = &TargetNode{Name: t.Target, DependencyFiles: depFiles}
	}

	// Step 4: edge linking.
	for _, a := range g.Nodes {
		for i := range a.DependencyFiles {
			n := a.DependencyFiles[i].Name
			b, ok := g.Nodes[n]
			if !ok {
				continue
			}
			a.DependencyFiles[i].Tag = TagGenerated
			b.Dependents = append(b.Dependents, a)
			a.Dependencies = append(a.Dependencies, b)
			a.IsBranch = true
		}
	}

	// Step 5: root extraction.
	for _, n := range g.Nodes {
		if !n.IsBranch {
			g.Roots = append(g.Roots, n)
		}
	}

	return g, nil
}

// inferImplicitTask synthesizes the task for an input with no declared
// task and no on-disk source file, per spec §4.3 step 2.
func inferImplicitTask(input string, recipes map[string][]*Recipe, sourceRoot string) (*Task, error) {
	ext, ok := extensionOf(input)
	if !ok {
		return nil, &ResolutionError{Target: input, Msg: "has no extension and no declared task or source file"}
	}
	candidates := recipes[ext]

	stem := stemOf(input)
	var matches []*Recipe
	for _, r := range candidates {
		if templInSatisfiable(r, stem, sourceRoot) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &ResolutionError{Target: input, Msg: "no recipe produces this file (no matching or satisfiable recipe)"}
	case 1:
		r := matches[0]
		inputs := make([]string, len(r.TemplIn))
		for i, e := range r.TemplIn {
			inputs[i] = stem + "." + e
		}
		return &Task{Target: input, Inputs: inputs}, nil
	default:
		candidateDescs := make([]string, len(matches))
		for i, r := range matches {
			candidateDescs[i] = fmt.Sprintf("%%.%s (line %d)", ext, r.Line)
		}
		return nil, &ResolutionError{Target: input, Msg: fmt.Sprintf("ambiguous implicit task: %d recipes match: %s", len(matches), strings.Join(candidateDescs, ", "))}
	}
}

func templInSatisfiable(r *Recipe, stem, sourceRoot string) bool {
	for _, e := range r.TemplIn {
		if !fileExists(filepath.Join(sourceRoot, stem+"."+e)) {
			return false
		}
	}
	return true
}

func canonicalize(name, sourceRoot, buildRoot string) string {
	switch {
	case strings.HasPrefix(name, buildRoot+"/"):
		return strings.TrimPrefix(name, buildRoot+"/")
	case strings.HasPrefix(name, sourceRoot+"/"):
		return strings.TrimPrefix(name, sourceRoot+"/")
	default:
		return name
	}
}

func canonicalizeAll(names []string, sourceRoot, buildRoot string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = canonicalize(n, sourceRoot, buildRoot)
	}
	return out
}

// stemOf returns name with its first-dot extension removed (GLOSSARY:
// "Stem: the filename with its first-dot extension removed").
func stemOf(name string) string {
	base := filepath.Base(name)
	dir := filepath.Dir(name)
	dot := strings.IndexByte(base, '.')
	if dot < 0 {
		return name
	}
	stem := base[:dot]
	if dir == "." {
		return stem
	}
	return filepath.Join(dir, stem)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
