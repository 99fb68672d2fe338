package compiler

import (
	"strings"
	"testing"
)

// analyze runs the front end through semantic analysis only, without
// lowering to IR, for tests that only care whether analysis accepts or
// rejects a program.
func analyze(t *testing.T, src string) error {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	tree, err := NewParser(tokens, src).ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	prog, err := BuildProgram(tree)
	if err != nil {
		t.Fatalf("BuildProgram failed: %v", err)
	}
	return NewAnalyzer().Analyze(prog)
}

// TestAnalyzeAcceptsValidPrograms checks that a representative set of
// well-formed programs pass analysis cleanly.
func TestAnalyzeAcceptsValidPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"simple return", `fn int main(){ return 1; }`},
		{"void function no return needed", `fn void main(){ let int x = 1; }`},
		{"void function explicit empty return", `fn void main(){ return; }`},
		{"if-else both return", `fn int main(){ if (1,1)== { return 1; } else { return 2; } }`},
		{"forward call reference", `fn int main(){ return helper(); } fn int helper(){ return 5; }`},
		{"nested scopes reuse names", `fn int main(){ let int x = 1; if (x,1)== { let int x = 2; return x; } return x; }`},
		{"for loop with positive literal step", `fn int main(){ let mut int n = 0; for int i = 0 until 10 step 2 { n = (n,i)+; } return n; }`},
		{"loop with reachable break", `fn int main(){ loop { break; } return 0; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := analyze(t, tt.src); err != nil {
				t.Fatalf("expected program to analyse cleanly, got: %v", err)
			}
		})
	}
}

// TestAnalyzeRejectsInvalidPrograms checks the specific error each
// malformed program should produce.
func TestAnalyzeRejectsInvalidPrograms(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"non-void without return on every path", `fn int main(){ if (1,1)== { return 1; } }`, "does not return"},
		{"return type mismatch", `fn int main(){ return (1,1)==; }`, "does not match"},
		{"void function returning a value", `fn void main(){ return 1; }`, "cannot return a value"},
		{"assignment to const", `fn int main(){ let int x = 1; x = 2; return x; }`, "cannot assign to"},
		{"assignment to undeclared variable", `fn int main(){ x = 2; return 0; }`, "undeclared identifier"},
		{"use of undeclared identifier", `fn int main(){ return y; }`, "undeclared identifier"},
		{"duplicate parameter", `fn int f(int a, int a){ return a; } fn int main(){ return f(1,2); }`, "duplicate parameter"},
		{"call with wrong argument count", `fn int f(int a){ return a; } fn int main(){ return f(1, 2); }`, "expects 1 argument"},
		{"call with wrong argument type", `fn int f(long a){ return int(a); } fn int main(){ return f(1); }`, "has type int, expected long"},
		{"loop body with no reachable break", `fn void main(){ loop { let int x = 1; } }`, "no reachable break"},
		{"print with non-string argument", `fn void main(){ print(1); }`, "must be string"},
		{"binary op operand type mismatch", `fn int main(){ let int x = (1,1l)+; return x; }`, "operand type mismatch"},
		{"cast between disallowed types", `fn int main(){ let int x = int(long(5)); let string s = string(5l); return x; }`, "not permitted"},
		{"redeclaration in same scope", `fn int main(){ let int x = 1; let int x = 2; return x; }`, "redeclaration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := analyze(t, tt.src)
			if err == nil {
				t.Fatalf("expected an error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestAnalyzeRejectsNegativeLiteralForStep checks the OQ4 resolution: a
// for-loop step that is a bare negative-literal expression is rejected at
// analysis time. The grammar has no negative-number literal syntax (unary
// minus is only expressible in postfix form, e.g. "(1)-", which builds a
// UnaryExpr rather than a Literal), so this case is exercised by building
// the AST directly instead of through source text.
func TestAnalyzeRejectsNegativeLiteralForStep(t *testing.T) {
	prog := &Program{
		Functions: []*FunctionDecl{{
			Name:       "main",
			ReturnType: TypeVoid,
			Body: []Stmt{
				&ForLoopStmt{
					VarName: "i",
					VarType: TypeInt,
					Start:   &Literal{Type: TypeInt, IVal: 0},
					Until:   &Literal{Type: TypeInt, IVal: 10},
					Step:    &Literal{Type: TypeInt, IVal: -1},
					Body:    nil,
				},
				&ReturnStmt{},
			},
		}},
	}
	err := NewAnalyzer().Analyze(prog)
	if err == nil {
		t.Fatal("expected a negative literal for-loop step to be rejected")
	}
	if !strings.Contains(err.Error(), "must not be negative") {
		t.Fatalf("error %q does not mention the negative-step restriction", err.Error())
	}
}

// TestAnalyzeTernaryBranchTypeMismatch checks that a ternary whose branches
// disagree in type is rejected even when each branch is individually valid.
func TestAnalyzeTernaryBranchTypeMismatch(t *testing.T) {
	err := analyze(t, `fn int main(){ let int x = (1,1)== ? 1 : 2l; return x; }`)
	if err == nil {
		t.Fatal("expected an error for mismatched ternary branch types")
	}
	if !strings.Contains(err.Error(), "mismatched types") {
		t.Fatalf("error %q does not mention mismatched ternary branch types", err.Error())
	}
}

// TestAnalyzeBreakContinueOutsideLoop checks both break and continue are
// rejected at the top level of a function body.
func TestAnalyzeBreakContinueOutsideLoop(t *testing.T) {
	if err := analyze(t, `fn void main(){ break; }`); err == nil || !strings.Contains(err.Error(), "outside a loop") {
		t.Fatalf("expected a 'break outside a loop' error, got: %v", err)
	}
	if err := analyze(t, `fn void main(){ continue; }`); err == nil || !strings.Contains(err.Error(), "outside a loop") {
		t.Fatalf("expected a 'continue outside a loop' error, got: %v", err)
	}
}

// TestAnalyzeStringConversionExtension checks the cast-rule extension
// documented in exprType: int/byte to string and string to int are
// permitted despite not being numeric-to-numeric casts.
func TestAnalyzeStringConversionExtension(t *testing.T) {
	if err := analyze(t, `fn void main(){ let string s = string(5); }`); err != nil {
		t.Fatalf("expected int->string cast to be permitted, got: %v", err)
	}
	if err := analyze(t, `fn void main(){ let int x = int("5"); }`); err != nil {
		t.Fatalf("expected string->int cast to be permitted, got: %v", err)
	}
	if err := analyze(t, `fn void main(){ let string s = string(5l); }`); err == nil {
		t.Fatal("expected long->string cast to be rejected, since the prelude has no __tostring_long helper")
	}
}
