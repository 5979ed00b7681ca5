// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"reflect"
	"testing"
)

func TestEvaluateVariableRoundTrip(t *testing.T) {
	e := &Env{vars: make(map[string][]string)}
	e.Set("FLAGS", []string{"-O3", "-g"})
	got, err := Evaluate(VarRef{Name: "FLAGS"}, e)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"-O3", "-g"}) {
		t.Errorf("got %v, want [-O3 -g]", got)
	}
}

func TestEvaluateUnboundVariable(t *testing.T) {
	e := &Env{vars: make(map[string][]string)}
	_, err := Evaluate(VarRef{Name: "NOPE"}, e)
	if err == nil {
		t.Fatal("expected an error for an unbound variable")
	}
	if _, ok := err.(*EvalError); !ok {
		t.Errorf("expected *EvalError, got %T", err)
	}
}

func TestUpperBuiltin(t *testing.T) {
	e := &Env{vars: make(map[string][]string)}
	e.Set("FLAGS", []string{"-O3", "-g"})
	got, err := Evaluate(FuncCall{Name: "upper", Args: []Expr{VarRef{Name: "FLAGS"}}}, e)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"-O3", "-G"}) {
		t.Errorf("got %v, want [-O3 -G]", got)
	}
}

func TestFirstLastBuiltins(t *testing.T) {
	toks := []string{"a", "b", "c", "d"}
	first, err := firstLast(append([]string{"2"}, toks...), true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, []string{"a", "b"}) {
		t.Errorf("first 2 = %v, want [a b]", first)
	}

	last, err := firstLast(append([]string{"2"}, toks...), false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(last, []string{"c", "d"}) {
		t.Errorf("last 2 = %v, want [c d]", last)
	}

	if _, err := firstLast(append([]string{"5"}, toks...), true); err == nil {
		t.Fatal("expected an error when N exceeds the available tokens")
	}
}

func TestOrJustBuiltins(t *testing.T) {
	got, err := callBuiltin("or", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("or of no tokens = %v, want nil", got)
	}

	got, err = callBuiltin("or", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("or(a, b) = %v, want [a]", got)
	}

	got, err = callBuiltin("just", []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("just(a, b) = %v, want [a b]", got)
	}
}

func TestEnvBuiltin(t *testing.T) {
	t.Setenv("MK_TEST_VAR", "hello")
	got, err := callBuiltin("env", []string{"MK_TEST_VAR"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"hello"}) {
		t.Errorf("env(MK_TEST_VAR) = %v, want [hello]", got)
	}

	got, err = callBuiltin("env", []string{"MK_TEST_VAR_UNSET_XYZ"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("env(unset) = %v, want nil", got)
	}
}

func TestUnknownFunction(t *testing.T) {
	_, err := callBuiltin("nope", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown function")
	}
}

func TestFuncCallConcatenatesArgLists(t *testing.T) {
	e := &Env{vars: make(map[string][]string)}
	e.Set("A", []string{"x", "y"})
	e.Set("B", []string{"z"})
	got, err := Evaluate(FuncCall{Name: "just", Args: []Expr{VarRef{Name: "A"}, VarRef{Name: "B"}}}, e)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("got %v, want [x y z]", got)
	}
}
