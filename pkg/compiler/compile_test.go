package compiler

import (
	"strings"
	"testing"
)

// TestCompileWorkedExamples exercises the full lex/parse/build/analyse/lower
// pipeline over the small worked programs documented alongside the language,
// checking that each compiles cleanly and that the resulting IR stream is
// internally consistent.
func TestCompileWorkedExamples(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "arithmetic",
			src:  `fn int main(){ let int x = ((7,7)+,2)/; return x; }`,
		},
		{
			name: "long arithmetic",
			src:  `fn long main(){ let long y = ((1000000l,1000000l)*,0l)+; return y; }`,
		},
		{
			name: "while loop accumulator",
			src:  `fn int main(){ let mut int i=0; let mut int s=0; while (i,10)< { s=(s,i)+; i=(i,1)+; } return s; }`,
		},
		{
			name: "if-else",
			src:  `fn int main(){ let int a = 5; if (a,3)> { return 1; } else { return 0; } }`,
		},
		{
			name: "for loop sum",
			src:  `fn int main(){ let mut int n = 0; for int i = 1 until 5 { n = (n,i)+; } return n; }`,
		},
		{
			name: "round-trip cast",
			src:  `fn int main(){ let int x = int(long(5)); return x; }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instrs, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if len(instrs) == 0 {
				t.Fatal("Compile returned no instructions")
			}
			checkFuncStartEndPairing(t, instrs)
			checkLabelsResolve(t, instrs)
			checkStackBalanced(t, instrs)
		})
	}
}

// checkFuncStartEndPairing asserts invariant that every FUNC_START has a
// matching FUNC_END for the same function name before the next FUNC_START.
func checkFuncStartEndPairing(t *testing.T, instrs []Instr) {
	t.Helper()
	var open string
	for _, in := range instrs {
		switch in.Op {
		case IRFuncStart:
			if open != "" {
				t.Fatalf("FUNC_START %q nested inside still-open %q", in.Name, open)
			}
			open = in.Name
		case IRFuncEnd:
			if open != in.Name {
				t.Fatalf("FUNC_END %q does not match open FUNC_START %q", in.Name, open)
			}
			open = ""
		}
	}
	if open != "" {
		t.Fatalf("function %q never closed with FUNC_END", open)
	}
}

// checkLabelsResolve asserts every JUMP/JZ target has a corresponding LABEL
// somewhere in the same instruction stream.
func checkLabelsResolve(t *testing.T, instrs []Instr) {
	t.Helper()
	defined := map[string]bool{}
	for _, in := range instrs {
		if in.Op == IRLabel {
			defined[in.Label] = true
		}
	}
	for _, in := range instrs {
		if in.Op == IRJump || in.Op == IRJz {
			if !defined[in.Label] {
				t.Fatalf("jump to undefined label %q", in.Label)
			}
		}
	}
}

// checkStackBalanced simulates the net effect of each instruction on the
// expression-evaluation stack's slot count within a function body and
// confirms it returns to zero by RETURN, mirroring the "net static slot
// count between FUNC_START and RETURN is zero plus the return-slot width"
// property the language's IR is meant to hold.
func checkStackBalanced(t *testing.T, instrs []Instr) {
	t.Helper()
	depth := 0
	for _, in := range instrs {
		switch in.Op {
		case IRFuncStart, IRFuncEnd, IRLabel, IRJump, IRPrint:
			// Only PRINT changes the depth here: it pops the argument that
			// was pushed before it.
			if in.Op == IRPrint {
				depth--
			}
		case IRPush, IRLoad:
			depth++
		case IRStore, IRJz:
			depth--
		case IRAdd, IRSub, IRMul, IRDiv, IRAnd, IROr, IRXor, IRSll, IRSrl, IRSra,
			IREq, IRNe, IRGt, IRGe, IRLt, IRLe, IRLand, IRLor, IRLxor:
			depth--
		case IRNeg, IRNot, IRCompl, IRCast:
			// unary: pop one, push one; net zero.
		case IRReturn:
			want := 0
			if in.Type != TypeVoid {
				want = 1
			}
			if depth != want {
				t.Fatalf("stack depth %d at RETURN, want %d", depth, want)
			}
			depth = 0
		case IRCall:
			for range in.ArgTypes {
				depth--
			}
			if in.RetType != TypeVoid {
				depth++
			}
		case IRInput:
			depth++
		}
		if depth < 0 {
			t.Fatalf("stack underflow at instruction %s (depth=%d)", in, depth)
		}
	}
}

// TestCompileErrors checks that semantically invalid programs are rejected
// with a useful message rather than silently miscompiled.
func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "missing return on non-void path",
			src:     `fn int main(){ let int x = 1; }`,
			wantErr: "does not return",
		},
		{
			name:    "type mismatch on assignment",
			src:     `fn int main(){ let mut int x = 1; let int a = 5; x = (a,3)>; return x; }`,
			wantErr: "cannot assign",
		},
		{
			name:    "break outside a loop",
			src:     `fn void main(){ break; }`,
			wantErr: "outside a loop",
		},
		{
			name:    "duplicate function",
			src:     `fn int f(){ return 1; } fn int f(){ return 2; }`,
			wantErr: "duplicate function",
		},
		{
			name:    "void variable",
			src:     `fn void main(){ let void x = 1; }`,
			wantErr: "cannot have type void",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			if err == nil {
				t.Fatalf("expected an error, got none")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestCompileFunctionCallMarshalling checks that a call to a function with
// mixed-width parameters lowers to argument pushes followed by a single
// CALL carrying every parameter's type in declaration order (§4.3 OQ5).
func TestCompileFunctionCallMarshalling(t *testing.T) {
	src := `
fn long combine(int a, long b, int c){ return (b,long((a,c)+))+; }
fn long main(){ return combine(1, 2l, 3); }
`
	instrs, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var call *Instr
	for i := range instrs {
		if instrs[i].Op == IRCall && instrs[i].Name == "combine" {
			call = &instrs[i]
		}
	}
	if call == nil {
		t.Fatal("no CALL to combine found")
	}
	if len(call.ArgTypes) != 3 {
		t.Fatalf("expected 3 argument types, got %d", len(call.ArgTypes))
	}
	if call.ArgTypes[0] != TypeInt || call.ArgTypes[1] != TypeLong || call.ArgTypes[2] != TypeInt {
		t.Fatalf("unexpected argument types: %v", call.ArgTypes)
	}
	if call.RetType != TypeLong {
		t.Fatalf("expected long return type, got %s", call.RetType)
	}

	var start *Instr
	for i := range instrs {
		if instrs[i].Op == IRFuncStart && instrs[i].Name == "combine" {
			start = &instrs[i]
		}
	}
	if start == nil {
		t.Fatal("no FUNC_START for combine found")
	}
	if len(start.ParamOffsets) != 3 || len(start.ParamTypes) != 3 {
		t.Fatalf("expected 3 parameters recorded on FUNC_START, got %d/%d", len(start.ParamTypes), len(start.ParamOffsets))
	}
}
