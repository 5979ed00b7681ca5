// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"strings"
	"testing"
)

func TestParseVariableDecl(t *testing.T) {
	f, err := Parse(strings.NewReader("cflags = -Wall -O2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(f.Stmts))
	}
	v, ok := f.Stmts[0].(VarDecl)
	if !ok {
		t.Fatalf("expected VarDecl, got %T", f.Stmts[0])
	}
	if v.Name != "cflags" || len(v.Value) != 2 {
		t.Errorf("unexpected var decl: %+v", v)
	}
}

func TestParseTask(t *testing.T) {
	f, err := Parse(strings.NewReader("a.exe: main.o f.o\n"))
	if err != nil {
		t.Fatal(err)
	}
	task, ok := f.Stmts[0].(TaskDecl)
	if !ok {
		t.Fatalf("expected TaskDecl, got %T", f.Stmts[0])
	}
	if len(task.Target) != 1 || len(task.Inputs) != 2 {
		t.Errorf("unexpected task decl: %+v", task)
	}
}

func TestParseRecipe(t *testing.T) {
	input := "%.o < %.c\n    gcc -c -o $@ $^\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := f.Stmts[0].(RecipeDecl)
	if !ok {
		t.Fatalf("expected RecipeDecl, got %T", f.Stmts[0])
	}
	if r.TargetExt != "o" {
		t.Errorf("TargetExt = %q, want %q", r.TargetExt, "o")
	}
	if len(r.TemplIn) != 1 || r.TemplIn[0] != "c" {
		t.Errorf("TemplIn = %v, want [c]", r.TemplIn)
	}
	if len(r.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(r.Steps))
	}
	step := r.Steps[0]
	if len(step) != 5 {
		t.Fatalf("expected 5 step tokens, got %d: %+v", len(step), step)
	}
	if step[3].Sigil != SigilTarget || step[4].Sigil != SigilDeps {
		t.Errorf("expected $@ then $^ sigils, got %+v", step[3:])
	}
}

func TestParseRecipeWildcard(t *testing.T) {
	input := "%.exe < *.o\n    gcc -o $@ $^\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	r := f.Stmts[0].(RecipeDecl)
	if len(r.AnyIn) != 1 || r.AnyIn[0] != "o" {
		t.Errorf("AnyIn = %v, want [o]", r.AnyIn)
	}
}

func TestParseCatchAllRecipe(t *testing.T) {
	input := "%\n    cp $^ $@\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	r := f.Stmts[0].(RecipeDecl)
	if r.TargetExt != "%" {
		t.Errorf("TargetExt = %q, want %q", r.TargetExt, "%")
	}
}

func TestParseLineContinuation(t *testing.T) {
	input := "cflags = -Wall \\\n    -O2\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	v := f.Stmts[0].(VarDecl)
	if len(v.Value) != 2 {
		t.Errorf("expected continuation to join into 2 tokens, got %d: %+v", len(v.Value), v.Value)
	}
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	input := "# a comment\n\ncc = gcc\n\n# trailing\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Stmts) != 1 {
		t.Fatalf("expected comments/blank lines to be skipped, got %d statements", len(f.Stmts))
	}
}

func TestParseInvalidRecipeTarget(t *testing.T) {
	_, err := Parse(strings.NewReader("%nodot\n    echo hi\n"))
	if err == nil {
		t.Fatal("expected a parse error for a malformed recipe target")
	}
}

func TestParseUnexpectedIndent(t *testing.T) {
	_, err := Parse(strings.NewReader("    stray indented line\n"))
	if err == nil {
		t.Fatal("expected a parse error for an indented line outside a recipe")
	}
}
