// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse parses a task file from a reader (spec §4.1). UTF-8 text is
// assumed; the bufio.Scanner default split function works line-by-line
// on valid UTF-8 without decoding runes itself.
func Parse(r io.Reader) (*File, error) {
	return ParseNamed("taskfile", r)
}

// ParseNamed parses a task file, using name in error messages.
func ParseNamed(name string, r io.Reader) (*File, error) {
	var raw []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		raw = append(raw, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	lines := joinContinuations(raw)

	p := &parser{name: name, lines: lines}
	stmts, err := p.parseAll()
	if err != nil {
		return nil, err
	}
	return &File{Stmts: stmts}, nil
}

// joinContinuations merges physical lines ending in "\" with the line
// that follows, per spec §4.1's preprocessor step.
func joinContinuations(raw []string) []string {
	var lines []string
	for i := 0; i < len(raw); i++ {
		line := raw[i]
		for strings.HasSuffix(line, "\\") && i+1 < len(raw) {
			line = line[:len(line)-1] + " " + raw[i+1]
			i++
		}
		lines = append(lines, line)
	}
	return lines
}

type parser struct {
	name  string
	lines []string
	pos   int // 0-based index into lines; line number is pos+1
}

func (p *parser) errf(lineNum int, format string, args ...any) error {
	return &ParseError{File: p.name, Line: lineNum, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseAll() ([]Stmt, error) {
	var stmts []Stmt
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.pos++
			continue
		}

		lineNum := p.pos + 1
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			return nil, p.errf(lineNum, "unexpected indented line outside a recipe: %s", trimmed)
		}

		stmt, err := p.parseStatement(trimmed, lineNum)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func (p *parser) parseStatement(trimmed string, lineNum int) (Stmt, error) {
	p.pos++ // consume the header line

	if isRecipeHeader(trimmed) {
		return p.parseRecipe(trimmed, lineNum)
	}
	if idx, ok := findTopLevelByte(trimmed, ':'); ok {
		return p.parseTask(trimmed, idx, lineNum)
	}
	if idx, ok := findTopLevelByte(trimmed, '='); ok {
		return p.parseVarDecl(trimmed, idx, lineNum)
	}
	return nil, p.errf(lineNum, "unrecognized syntax: %s", trimmed)
}

func isRecipeHeader(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "%" || isTemplate(fields[0], '%')
}

func isTemplate(tok string, sigilByte byte) bool {
	return len(tok) >= 3 && tok[0] == sigilByte && tok[1] == '.'
}

func (p *parser) parseTask(line string, colonIdx int, lineNum int) (Stmt, error) {
	targetStr := strings.TrimSpace(line[:colonIdx])
	inputStr := strings.TrimSpace(line[colonIdx+1:])
	if targetStr == "" {
		return nil, p.errf(lineNum, "task has no target: %s", line)
	}

	targetExprs, err := parseExprWords(targetStr)
	if err != nil {
		return nil, p.errf(lineNum, "%v", err)
	}
	var inputExprs []Expr
	if inputStr != "" {
		inputExprs, err = parseExprWords(inputStr)
		if err != nil {
			return nil, p.errf(lineNum, "%v", err)
		}
	}

	return TaskDecl{Target: targetExprs, Inputs: inputExprs, Line: lineNum}, nil
}

func (p *parser) parseVarDecl(line string, eqIdx int, lineNum int) (Stmt, error) {
	name := strings.TrimSpace(line[:eqIdx])
	if !isValidVarName(name) {
		return nil, p.errf(lineNum, "invalid variable name: %q", name)
	}
	valueStr := strings.TrimSpace(line[eqIdx+1:])
	var value []Expr
	if valueStr != "" {
		exprs, err := parseExprWords(valueStr)
		if err != nil {
			return nil, p.errf(lineNum, "%v", err)
		}
		value = exprs
	}
	return VarDecl{Name: name, Value: value, Line: lineNum}, nil
}

func (p *parser) parseRecipe(header string, lineNum int) (Stmt, error) {
	fields := strings.Fields(header)
	target := fields[0]
	var ext string
	if target == "%" {
		ext = "%"
	} else {
		e, ok := extensionOf(target)
		if !ok {
			return nil, p.errf(lineNum, "recipe target must be %% or a %%.ext pattern, got %q", target)
		}
		ext = e
	}

	var templIn, anyIn []string
	if len(fields) > 1 {
		if fields[1] != "<" {
			return nil, p.errf(lineNum, "expected '<' after recipe target, got %q", fields[1])
		}
		for _, tmpl := range fields[2:] {
			switch {
			case isTemplate(tmpl, '%'):
				e, ok := extensionOf(tmpl)
				if !ok {
					return nil, p.errf(lineNum, "invalid input template %q", tmpl)
				}
				templIn = append(templIn, e)
			case isTemplate(tmpl, '*'):
				e, ok := extensionOf(tmpl)
				if !ok {
					return nil, p.errf(lineNum, "invalid input template %q", tmpl)
				}
				anyIn = append(anyIn, e)
			default:
				return nil, p.errf(lineNum, "input template must be %%.ext or *.ext, got %q", tmpl)
			}
		}
	}

	steps, err := p.parseSteps(lineNum)
	if err != nil {
		return nil, err
	}

	return RecipeDecl{TargetExt: ext, TemplIn: templIn, AnyIn: anyIn, Steps: steps, Line: lineNum}, nil
}

// parseSteps consumes the indented lines following a recipe header.
func (p *parser) parseSteps(headerLine int) ([][]StepToken, error) {
	var steps [][]StepToken
	indent := ""
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if strings.TrimSpace(line) == "" {
			p.pos++
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			break
		}
		if indent == "" {
			indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		}
		stepLine := strings.TrimPrefix(line, indent)
		lineNum := p.pos + 1
		p.pos++

		toks, err := parseStepLine(stepLine)
		if err != nil {
			return nil, p.errf(lineNum, "%v", err)
		}
		steps = append(steps, toks)
	}
	if len(steps) == 0 {
		return nil, p.errf(headerLine, "recipe has no steps")
	}
	return steps, nil
}

// extensionOf returns the substring after the pattern's first '.'
// (spec §3: "keyed by its output extension, the substring after the
// first . of the pattern").
func extensionOf(pattern string) (string, bool) {
	dot := strings.IndexByte(pattern, '.')
	if dot < 0 || dot+1 >= len(pattern) {
		return "", false
	}
	return pattern[dot+1:], true
}

func isValidVarName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if i == 0 && !isIdentStart(c) {
			return false
		}
		if i > 0 && !isIdentCont(c) {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// findTopLevelByte finds the first occurrence of b outside any $(...)
// nesting, returning false if it doesn't occur.
func findTopLevelByte(s string, b byte) (int, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == b && depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
