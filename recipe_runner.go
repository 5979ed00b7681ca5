// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PreCompileHook is the compile-commands collaborator (spec §6): fired
// before each step's staleness check with the step's argv, the
// resolved dependency paths, the target path, and the source root.
type PreCompileHook func(argv []string, depPaths []string, targetPath, sourceRoot string)

// RecipeRunner implements spec §4.5: given a node, it selects a
// matching recipe, substitutes sigils, checks mtime staleness, and
// spawns the subprocess for each step.
type RecipeRunner struct {
	Recipes    map[string][]*Recipe
	SourceRoot string
	BuildRoot  string
	DryRun     bool
	Log        zerolog.Logger
	PreCompile PreCompileHook
}

// catchAllExt is the recipe bucket key used when no recipe is declared
// for a node's own extension (spec §4.5 step 1).
const catchAllExt = "%"

// Run executes n's recipe to completion, or returns the first fatal
// error (recipe-resolution failure, I/O error, or subprocess failure).
func (rr *RecipeRunner) Run(ctx context.Context, n *TargetNode) error {
	ext, ok := extensionOf(n.Name)
	if !ok {
		ext = ""
	}
	candidates := rr.Recipes[ext]
	if len(candidates) == 0 {
		candidates = rr.Recipes[catchAllExt]
	}
	if len(candidates) == 0 {
		return &ResolutionError{Target: n.Name, Msg: "no recipe for extension " + ext}
	}

	r, depFiles := selectRecipe(candidates, n)
	if r == nil {
		return &ResolutionError{Target: n.Name, Msg: "no recipe step matches this target's dependencies"}
	}

	targetPath := filepath.Join(rr.BuildRoot, n.Name)
	depPaths := make([]string, len(depFiles))
	for i, d := range depFiles {
		depPaths[i] = rr.resolve(d)
	}

	for stepIdx, step := range r.Steps {
		argv := substitute(step, targetPath, depPaths, rr.BuildRoot, rr.SourceRoot)
		if len(argv) == 0 {
			continue
		}

		if rr.PreCompile != nil {
			rr.PreCompile(argv, depPaths, targetPath, rr.SourceRoot)
		}

		stale, err := isStale(targetPath, depPaths)
		if err != nil {
			return err
		}
		if !stale {
			continue
		}

		if rr.DryRun {
			rr.Log.Info().Str("target", n.Name).Int("step", stepIdx).Strs("argv", argv).Msg("dry-run")
			continue
		}

		if err := rr.exec(ctx, n.Name, argv); err != nil {
			return err
		}
	}

	return nil
}

// selectRecipe implements spec §4.5 step 2: first-declared-wins among
// recipes whose templ_in or any_in pattern accepts at least one of N's
// dependency files. It also returns the subset of N's dependencies that
// matched, in N's declared order, per §4.5's tie-break policy.
func selectRecipe(candidates []*Recipe, n *TargetNode) (*Recipe, []DependencyFile) {
	stem := stemOf(n.Name)
	for _, r := range candidates {
		var matched []DependencyFile
		for _, d := range n.DependencyFiles {
			if recipeMatches(r, stem, d.Name) {
				matched = append(matched, d)
			}
		}
		if len(matched) > 0 {
			return r, matched
		}
	}
	return nil, nil
}

func recipeMatches(r *Recipe, stem, dep string) bool {
	for _, e := range r.TemplIn {
		if dep == stem+"."+e {
			return true
		}
	}
	for _, e := range r.AnyIn {
		if strings.HasSuffix(dep, "."+e) {
			return true
		}
	}
	return false
}

func (rr *RecipeRunner) resolve(d DependencyFile) string {
	switch d.Tag {
	case TagGenerated:
		return filepath.Join(rr.BuildRoot, d.Name)
	default:
		return filepath.Join(rr.SourceRoot, d.Name)
	}
}

// substitute implements spec §4.5's sigil substitution: $@ becomes the
// target path, $bd/$sd become the build/source roots, and each $^
// token is spliced in place with the full dep-path list.
func substitute(step []RecipeToken, targetPath string, depPaths []string, buildRoot, sourceRoot string) []string {
	var out []string
	for _, tok := range step {
		switch tok.Sigil {
		case SigilTarget:
			out = append(out, targetPath)
		case SigilDeps:
			out = append(out, depPaths...)
		case SigilBuildDir:
			out = append(out, buildRoot)
		case SigilSourceDir:
			out = append(out, sourceRoot)
		default:
			out = append(out, tok.Literal)
		}
	}
	return out
}

// isStale implements spec §4.5's staleness check: stale if the target
// is missing, a dependency is missing, or any dependency's mtime is
// newer than the target's (timestamps only — no content hashing, per
// spec's Non-goals).
func isStale(targetPath string, depPaths []string) (bool, error) {
	targetInfo, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	for _, d := range depPaths {
		depInfo, err := os.Stat(d)
		if os.IsNotExist(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if depInfo.ModTime().After(targetInfo.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// exec spawns argv[0] with the remaining tokens as arguments, cwd set
// to the build root, capturing combined stdout/stderr (spec §4.5's
// "Execute" step).
func (rr *RecipeRunner) exec(ctx context.Context, target string, argv []string) error {
	if err := os.MkdirAll(filepath.Dir(filepath.Join(rr.BuildRoot, target)), 0o755); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = rr.BuildRoot
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		if exitCode < 0 {
			return &RunError{Target: target, Command: argv, Cause: err, Stderr: out.String()}
		}
		return &RunError{Target: target, Command: argv, ExitCode: exitCode, Stderr: out.String()}
	}

	rr.Log.Debug().Str("target", target).Dur("elapsed", elapsed).Str("output", out.String()).Msg("recipe step succeeded")
	return nil
}
