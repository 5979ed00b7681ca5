// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

// Stmt is a top-level statement produced by the parser (spec §4.1's
// File := sequence of {task | recipe | variable-declaration}).
type Stmt interface {
	stmt()
}

// File is the parsed, unevaluated task file.
type File struct {
	Stmts []Stmt
}

// VarDecl is a variable declaration: `name = expr*`.
type VarDecl struct {
	Name  string
	Value []Expr
	Line  int
}

// TaskDecl is `<target-expr> : <input-expr>*` on one logical line.
type TaskDecl struct {
	Target []Expr   // expands to one or more target filenames
	Inputs []Expr   // expands (flattened, order preserved) to input filenames
	Line   int
}

// RecipeDecl is a pattern recipe: a target template, an optional list of
// input templates, and one or more indented step lines.
type RecipeDecl struct {
	TargetExt string   // extension after the %, e.g. "o" for "%.o"
	TemplIn   []string // required-together input extensions (%.ext entries)
	AnyIn     []string // any-one-suffices input extensions (*.ext entries)
	Steps     [][]StepToken
	Line      int
}

func (VarDecl) stmt()    {}
func (TaskDecl) stmt()   {}
func (RecipeDecl) stmt() {}
