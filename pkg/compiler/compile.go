package compiler

import "fmt"

// Compile runs the front end of the pipeline described in §4 — lexing,
// parsing, AST construction, semantic analysis, and IR lowering — over
// src and returns the flat instruction stream. Turning that stream into
// assembly text is the MIPS emitter's job (pkg/mips), kept out of this
// package so the IR types pkg/mips depends on don't also have to depend
// on a backend.
func Compile(src string) ([]Instr, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	parser := NewParser(tokens, src)
	tree, err := parser.ParseProgram()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	prog, err := BuildProgram(tree)
	if err != nil {
		return nil, fmt.Errorf("build ast: %w", err)
	}

	if err := NewAnalyzer().Analyze(prog); err != nil {
		return nil, fmt.Errorf("analyse: %w", err)
	}

	instrs, err := NewLowerer().Lower(prog)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}

	return instrs, nil
}
