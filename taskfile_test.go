// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"strings"
	"testing"
)

func TestBuildTaskFileVariableOverride(t *testing.T) {
	input := `
cc = gcc
target = $(cc)
cc = clang
`
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	env := &Env{vars: make(map[string][]string)}
	tf, err := BuildTaskFile(f, env)
	if err != nil {
		t.Fatal(err)
	}
	// target was materialized while cc still meant gcc; the later
	// reassignment of cc must not retroactively change it.
	got, _ := env.Get("target")
	if len(got) != 1 || got[0] != "gcc" {
		t.Errorf("target = %v, want [gcc] (materialized before cc was reassigned)", got)
	}
	cc, _ := env.Get("cc")
	if len(cc) != 1 || cc[0] != "clang" {
		t.Errorf("cc = %v, want [clang]", cc)
	}
}

func TestBuildTaskFileTaskAppend(t *testing.T) {
	input := `
a.exe: main.o
a.exe: extra.o
`
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	tf, err := BuildTaskFile(f, NewEnv())
	if err != nil {
		t.Fatal(err)
	}
	if len(tf.Tasks) != 1 {
		t.Fatalf("expected a single merged task, got %d", len(tf.Tasks))
	}
	task := tf.Tasks[0]
	if len(task.Inputs) != 2 || task.Inputs[0] != "main.o" || task.Inputs[1] != "extra.o" {
		t.Errorf("Inputs = %v, want [main.o extra.o]", task.Inputs)
	}
}

func TestBuildTaskFileRecipeBucketsByExtension(t *testing.T) {
	input := "%.o < %.c\n    gcc -c -o $@ $^\n%.o < %.cc\n    g++ -c -o $@ $^\n"
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	tf, err := BuildTaskFile(f, NewEnv())
	if err != nil {
		t.Fatal(err)
	}
	recipes := tf.Recipes["o"]
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes bucketed under \"o\", got %d", len(recipes))
	}
	if recipes[0].TemplIn[0] != "c" || recipes[1].TemplIn[0] != "cc" {
		t.Errorf("expected declaration order preserved, got %v then %v", recipes[0].TemplIn, recipes[1].TemplIn)
	}
}

func TestBuildTaskFileStepSplice(t *testing.T) {
	input := `
flags = -Wall -O2
%.o < %.c
    gcc $(flags) -c -o $@ $^
`
	f, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	tf, err := BuildTaskFile(f, NewEnv())
	if err != nil {
		t.Fatal(err)
	}
	step := tf.Recipes["o"][0].Steps[0]
	// gcc -Wall -O2 -c -o $@ $^ => 7 tokens (the $(flags) var splices to 2).
	if len(step) != 7 {
		t.Fatalf("expected 7 materialized tokens, got %d: %+v", len(step), step)
	}
	if step[1].Literal != "-Wall" || step[2].Literal != "-O2" {
		t.Errorf("expected spliced flags at positions 1,2, got %+v", step[1:3])
	}
}

func TestBuildTaskFileUnboundVariableIsFatal(t *testing.T) {
	f, err := Parse(strings.NewReader("a.exe: $(MISSING)\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildTaskFile(f, NewEnv()); err == nil {
		t.Fatal("expected an error for an unbound variable in a task's input list")
	}
}
