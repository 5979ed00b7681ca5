// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"fmt"
	"os"
	"path/filepath"
)

// Why resolves target's recipe and reports, without building, whether
// it is stale and why (SPEC_FULL.md §4.5): a read-only pass over the
// same staleness check the Recipe Runner performs, reusing its recipe
// selection so the explanation matches what a real build would do. An
// empty result means the target is up to date.
func Why(target string, graph *Graph, recipes map[string][]*Recipe) ([]string, error) {
	n, ok := graph.Nodes[target]
	if !ok {
		return nil, &ResolutionError{Target: target, Msg: "no task produces this target"}
	}

	ext, _ := extensionOf(n.Name)
	candidates := recipes[ext]
	if len(candidates) == 0 {
		candidates = recipes[catchAllExt]
	}
	if len(candidates) == 0 {
		return nil, &ResolutionError{Target: n.Name, Msg: "no recipe for extension " + ext}
	}

	r, depFiles := selectRecipe(candidates, n)
	if r == nil {
		return nil, &ResolutionError{Target: n.Name, Msg: "no recipe step matches this target's dependencies"}
	}

	rr := &RecipeRunner{SourceRoot: graph.SourceRoot, BuildRoot: graph.BuildRoot}
	targetPath := filepath.Join(graph.BuildRoot, n.Name)

	var reasons []string
	targetInfo, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		return []string{fmt.Sprintf("%s does not exist", targetPath)}, nil
	}
	if err != nil {
		return nil, err
	}

	for _, d := range depFiles {
		depPath := rr.resolve(d)
		depInfo, err := os.Stat(depPath)
		if os.IsNotExist(err) {
			reasons = append(reasons, fmt.Sprintf("dependency %s does not exist", depPath))
			continue
		}
		if err != nil {
			return nil, err
		}
		if depInfo.ModTime().After(targetInfo.ModTime()) {
			reasons = append(reasons, fmt.Sprintf("dependency %s is newer than %s", depPath, targetPath))
		}
	}

	return reasons, nil
}
