// Command iridescentc compiles a single Iridescent source file to MIPS
// assembly text. It never assembles or executes the result.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/DominicThorpe/iridescent-compiler/internal/config"
	"github.com/DominicThorpe/iridescent-compiler/internal/diag"
	"github.com/DominicThorpe/iridescent-compiler/pkg/compiler"
	"github.com/DominicThorpe/iridescent-compiler/pkg/mips"
)

// Positional arguments only, per §6.1: the third argument is a fixed enum
// token rather than a conventional flag, so there's no value in pulling in
// the flag package for a three-argument interface. -v is the one exception,
// scanned for and stripped out of args before positional handling rather
// than parsed as a real flag.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	verbose, args := takeVerbose(args)

	if len(args) < 1 {
		usage()
		return 2
	}

	inputPath := args[0]
	if !strings.HasSuffix(inputPath, ".iri") {
		diag.Fatal("args", fmt.Errorf("input file %q must end in .iri", inputPath))
		return 1
	}

	defaults, err := config.Load(filepath.Dir(inputPath))
	if err != nil {
		diag.Fatal("config", err)
		return 1
	}

	outputBase := defaults.OutputBase
	if len(args) >= 2 {
		outputBase = args[1]
	}

	target := defaults.Target
	if len(args) >= 3 {
		target = strings.TrimPrefix(args[2], "-")
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		diag.Fatal("read", err)
		return 1
	}

	if verbose {
		if err := dumpVerbose(string(src)); err != nil {
			diag.Fatal("verbose", err)
			return 1
		}
	}

	instrs, err := compiler.Compile(string(src))
	if err != nil {
		diag.Fatal("compile", err)
		return 1
	}

	warnOversizedFrames(instrs, defaults.FrameWarnBytes)

	asm, err := emitFor(target, instrs)
	if err != nil {
		diag.Fatal("emit", err)
		return 1
	}

	asm += mips.Prelude()

	outPath := outputBase + ".asm"
	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		diag.Fatal("write", err)
		return 1
	}

	diag.Info(fmt.Sprintf("wrote %s (%s)", outPath, humanize.Bytes(uint64(len(asm)))))
	return 0
}

// takeVerbose scans args for a bare -v token, reporting whether it was
// present and returning args with every occurrence removed, so the
// remaining positional arguments line up exactly as §6.1 describes them.
func takeVerbose(args []string) (bool, []string) {
	verbose := false
	kept := make([]string, 0, len(args))
	for _, a := range args {
		if a == "-v" {
			verbose = true
			continue
		}
		kept = append(kept, a)
	}
	return verbose, kept
}

// dumpVerbose runs the lex/parse/build/analyse stages by hand, independently
// of the real compiler.Compile call that follows it, since Compile's return
// signature exposes only the final IR and neither the token stream nor the
// Analyzer's SymbolTable. -v is a debug aid, not the hot path, so re-running
// these early stages a second time is an acceptable cost for getting at them
// without reshaping Compile's public signature.
func dumpVerbose(src string) error {
	tokens, err := compiler.Lex(src)
	if err != nil {
		return err
	}

	var toks strings.Builder
	for _, tok := range tokens {
		toks.WriteString(tok.String())
		toks.WriteByte('\n')
	}
	diag.Dump("tokens", toks.String())

	tree, err := compiler.NewParser(tokens, src).ParseProgram()
	if err != nil {
		return err
	}

	prog, err := compiler.BuildProgram(tree)
	if err != nil {
		return err
	}

	analyzer := compiler.NewAnalyzer()
	if err := analyzer.Analyze(prog); err != nil {
		return err
	}
	diag.Dump("symbols", analyzer.Symbols().String())

	return nil
}

// warnOversizedFrames flags every function whose stack frame (locals plus
// the saved $ra word FUNC_START allocates) exceeds the project's configured
// threshold, a hint that a function is accumulating more local state than
// intended rather than a hard error.
func warnOversizedFrames(instrs []compiler.Instr, limit int) {
	if limit <= 0 {
		return
	}
	for _, in := range instrs {
		if in.Op != compiler.IRFuncStart {
			continue
		}
		if in.FrameSize > limit {
			diag.Warn(fmt.Sprintf("function %q has a %d-byte frame, over the %d-byte threshold", in.Name, in.FrameSize, limit))
		}
	}
}

// emitFor dispatches on the §6.1 target flag; only MIPS is implemented.
func emitFor(target string, instrs []compiler.Instr) (string, error) {
	switch target {
	case "mips":
		return mips.Emit(instrs)
	case "x64", "ird":
		return "", fmt.Errorf("target %q is not implemented", target)
	default:
		return "", fmt.Errorf("unknown target %q", target)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: iridescentc <input.iri> [output_base] [-mips|-x64|-ird] [-v]")
}
