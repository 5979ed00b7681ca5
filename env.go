// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Env is the variable environment (spec §3): a mapping from variable
// name to an ordered list of tokens, populated by variable
// declarations evaluated in file order — later declarations overwrite
// earlier ones.
type Env struct {
	vars map[string][]string
}

// NewEnv constructs an environment with the built-in prologue applied
// (spec §3: "A prologue establishes built-in defaults before user
// input is parsed").
func NewEnv() *Env {
	e := &Env{vars: make(map[string][]string)}
	prologue(e)
	return e
}

// prologue seeds defaults a task file can freely override. None of the
// built-in functions require a seeded variable to function, so the
// prologue currently only records the host GOOS as the variable GOOS,
// read as $(GOOS) (the env built-in reads the process environment, not
// this variable); it is intentionally minimal.
func prologue(e *Env) {
	e.Set("GOOS", []string{runtime.GOOS})
}

// Set assigns name to toks, overwriting any previous value.
func (e *Env) Set(name string, toks []string) {
	e.vars[name] = toks
}

// Get returns the bound tokens for name and whether it is bound.
func (e *Env) Get(name string) ([]string, bool) {
	toks, ok := e.vars[name]
	return toks, ok
}

// Evaluate expands expr against e into an ordered token list.
func Evaluate(expr Expr, e *Env) ([]string, error) {
	switch v := expr.(type) {
	case Literal:
		return []string{v.Tok}, nil
	case VarRef:
		toks, ok := e.Get(v.Name)
		if !ok {
			return nil, &EvalError{Msg: "unbound variable: " + v.Name}
		}
		return append([]string(nil), toks...), nil
	case FuncCall:
		var args []string
		for _, a := range v.Args {
			toks, err := Evaluate(a, e)
			if err != nil {
				return nil, err
			}
			args = append(args, toks...)
		}
		return callBuiltin(v.Name, args)
	default:
		return nil, &EvalError{Msg: "unknown expression node"}
	}
}

// EvaluateAll expands a list of expressions, concatenating their
// token lists in order.
func EvaluateAll(exprs []Expr, e *Env) ([]string, error) {
	var toks []string
	for _, expr := range exprs {
		t, err := Evaluate(expr, e)
		if err != nil {
			return nil, err
		}
		toks = append(toks, t...)
	}
	return toks, nil
}

func callBuiltin(name string, args []string) ([]string, error) {
	switch name {
	case "upper":
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = strings.ToUpper(a)
		}
		return out, nil

	case "exe":
		if len(args) != 1 {
			return nil, &EvalError{Msg: "exe: expected 1 argument, got " + strconv.Itoa(len(args))}
		}
		if runtime.GOOS == "windows" {
			return []string{args[0] + ".exe"}, nil
		}
		return []string{args[0]}, nil

	case "env":
		if len(args) != 1 {
			return nil, &EvalError{Msg: "env: expected 1 argument, got " + strconv.Itoa(len(args))}
		}
		val, ok := os.LookupEnv(args[0])
		if !ok {
			return nil, nil
		}
		return []string{val}, nil

	case "path":
		if len(args) != 1 {
			return nil, &EvalError{Msg: "path: expected 1 argument, got " + strconv.Itoa(len(args))}
		}
		name := args[0]
		if runtime.GOOS == "windows" && !hasSuffixFold(name, ".exe") {
			name += ".exe"
		}
		if _, err := exec.LookPath(name); err != nil {
			return nil, nil
		}
		return []string{args[0]}, nil

	case "or":
		if len(args) == 0 {
			return nil, nil
		}
		return []string{args[0]}, nil

	case "just":
		return args, nil

	case "first":
		return firstLast(args, true)

	case "last":
		return firstLast(args, false)

	default:
		return nil, &EvalError{Msg: "unknown function: " + name}
	}
}

func firstLast(args []string, first bool) ([]string, error) {
	if len(args) < 1 {
		return nil, &EvalError{Msg: "expected at least 1 argument"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return nil, &EvalError{Msg: "expected a non-negative integer, got " + args[0]}
	}
	rest := args[1:]
	if n > len(rest) {
		return nil, &EvalError{Msg: "not enough tokens: need " + strconv.Itoa(n) + ", have " + strconv.Itoa(len(rest))}
	}
	if first {
		return append([]string(nil), rest[:n]...), nil
	}
	return append([]string(nil), rest[len(rest)-n:]...), nil
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
