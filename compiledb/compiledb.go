// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Package compiledb implements the optional compile-commands database
// post-processing hook described in spec §6: a pre-step callback that
// heuristically recognizes C/C++ toolchain invocations and accumulates
// them, plus a finalizer that serializes the accumulated records as
// compile_commands.json.
//
// It is grounded directly on _examples/original_source/src/hooks.rs's
// pre_compile/post_compile pair. The Rust original fans writes into a
// lock-free crossbeam::queue::SegQueue from arbitrary worker
// goroutines; recipe steps here are similarly invoked from scheduler
// workers, so the Go port needs the same concurrent-accumulation
// property. A mutex-guarded slice is the idiomatic Go substitute —
// there is no SegQueue-equivalent among the example pack's
// dependencies, and a channel would add an unneeded consumer goroutine
// for what is, in effect, just append-under-lock.
package compiledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CompileCommand is one entry of compile_commands.json, matching the
// shape every compile_commands.json consumer (clangd, etc.) expects.
type CompileCommand struct {
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
	File      string   `json:"file"`
}

// DB accumulates compile commands across concurrent recipe steps.
type DB struct {
	mu      sync.Mutex
	records []CompileCommand
}

// New constructs an empty database.
func New() *DB {
	return &DB{}
}

// PreCompile is a RecipeRunner.PreCompile-shaped hook: it filters argv
// for a C/C++ toolchain invocation (argv[0] contains gcc, g++, or
// clang) with at least one dependency whose extension contains "c",
// and records it. Anything else is silently ignored — this hook never
// fails the build (spec §6, §7: "JSON errors are reported but
// non-fatal").
func (db *DB) PreCompile(argv []string, depPaths []string, targetPath, sourceRoot string) {
	if len(argv) < 2 {
		return
	}
	exe := argv[0]
	if !strings.Contains(exe, "gcc") && !strings.Contains(exe, "g++") && !strings.Contains(exe, "clang") {
		return
	}

	isCFamily := false
	for _, d := range depPaths {
		if strings.Contains(filepath.Ext(d), "c") {
			isCFamily = true
			break
		}
	}
	if !isCFamily {
		return
	}

	db.mu.Lock()
	db.records = append(db.records, CompileCommand{
		Directory: sourceRoot,
		Arguments: append([]string(nil), argv...),
		File:      targetPath,
	})
	db.mu.Unlock()
}

// Finalize writes the accumulated records as pretty-printed JSON to
// <buildRoot>/compile_commands.json. Errors are the caller's to log as
// a warning — a failure here must never fail the build (spec §7).
func (db *DB) Finalize(buildRoot string) error {
	db.mu.Lock()
	records := db.records
	if records == nil {
		records = []CompileCommand{}
	}
	db.mu.Unlock()

	f, err := os.Create(filepath.Join(buildRoot, "compile_commands.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
