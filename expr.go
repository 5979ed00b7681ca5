// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"fmt"
	"strings"
)

// splitWords splits s on whitespace, treating a balanced $(...) run as
// a single word even if it contains embedded spaces (function
// arguments).
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case (c == ' ' || c == '\t') && depth == 0:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

// parseExprWords splits s into words and parses each as an Expr.
func parseExprWords(s string) ([]Expr, error) {
	words := splitWords(s)
	exprs := make([]Expr, 0, len(words))
	for _, w := range words {
		e, err := parseExprWord(w)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// parseExprWord classifies a single word as a Literal, VarRef, or
// FuncCall (spec §4.1: "Expression := literal token | $(NAME) |
// $(fn arg1 arg2 …)").
func parseExprWord(w string) (Expr, error) {
	if !strings.HasPrefix(w, "$(") || !strings.HasSuffix(w, ")") {
		return Literal{Tok: w}, nil
	}
	inner := w[2 : len(w)-1]
	if !parensBalanced(inner) {
		return Literal{Tok: w}, nil
	}
	words := splitWords(inner)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty $(...) expression")
	}
	if len(words) == 1 {
		return VarRef{Name: words[0]}, nil
	}
	args := make([]Expr, 0, len(words)-1)
	for _, aw := range words[1:] {
		ae, err := parseExprWord(aw)
		if err != nil {
			return nil, err
		}
		args = append(args, ae)
	}
	return FuncCall{Name: words[0], Args: args}, nil
}

func parensBalanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// parseStepLine parses a recipe step, preserving the literal sigils
// $@, $^, $bd, $sd unevaluated (spec §4.1, §4.5).
func parseStepLine(line string) ([]StepToken, error) {
	words := splitWords(line)
	toks := make([]StepToken, 0, len(words))
	for _, w := range words {
		switch w {
		case "$@":
			toks = append(toks, sigilToken(SigilTarget))
		case "$^":
			toks = append(toks, sigilToken(SigilDeps))
		case "$bd":
			toks = append(toks, sigilToken(SigilBuildDir))
		case "$sd":
			toks = append(toks, sigilToken(SigilSourceDir))
		default:
			e, err := parseExprWord(w)
			if err != nil {
				return nil, err
			}
			toks = append(toks, StepToken{Expr: e})
		}
	}
	return toks, nil
}
