// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"reflect"
	"testing"
)

func TestSplitWordsRespectsParens(t *testing.T) {
	got := splitWords("$(upper a b) plain $(env X)")
	want := []string{"$(upper a b)", "plain", "$(env X)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitWords = %v, want %v", got, want)
	}
}

func TestParseExprWordLiteral(t *testing.T) {
	e, err := parseExprWord("-Wall")
	if err != nil {
		t.Fatal(err)
	}
	if lit, ok := e.(Literal); !ok || lit.Tok != "-Wall" {
		t.Errorf("expected Literal(-Wall), got %#v", e)
	}
}

func TestParseExprWordVarRef(t *testing.T) {
	e, err := parseExprWord("$(CFLAGS)")
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := e.(VarRef)
	if !ok || ref.Name != "CFLAGS" {
		t.Errorf("expected VarRef(CFLAGS), got %#v", e)
	}
}

func TestParseExprWordFuncCall(t *testing.T) {
	e, err := parseExprWord("$(upper $(CFLAGS))")
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := e.(FuncCall)
	if !ok || fc.Name != "upper" || len(fc.Args) != 1 {
		t.Fatalf("expected FuncCall(upper, 1 arg), got %#v", e)
	}
	if ref, ok := fc.Args[0].(VarRef); !ok || ref.Name != "CFLAGS" {
		t.Errorf("expected nested VarRef(CFLAGS), got %#v", fc.Args[0])
	}
}

func TestParseStepLineSigils(t *testing.T) {
	toks, err := parseStepLine("gcc -c -o $@ $^")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(toks))
	}
	if toks[3].Sigil != SigilTarget {
		t.Errorf("toks[3].Sigil = %v, want SigilTarget", toks[3].Sigil)
	}
	if toks[4].Sigil != SigilDeps {
		t.Errorf("toks[4].Sigil = %v, want SigilDeps", toks[4].Sigil)
	}
	for i, w := range []string{"gcc", "-c", "-o"} {
		lit, ok := toks[i].Expr.(Literal)
		if !ok || lit.Tok != w {
			t.Errorf("toks[%d] = %#v, want Literal(%q)", i, toks[i], w)
		}
	}
}
