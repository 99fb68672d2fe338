package compiler

import "fmt"

// Analyzer implements the two-pass semantic analysis of §4.2: function
// collection, then per-function body checking with scope, type, and
// control-flow validation.
type Analyzer struct {
	syms      *SymbolTable
	loopDepth int

	currentFuncName string
	currentFuncRet  PrimitiveType
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{syms: NewSymbolTable()}
}

// Symbols exposes the populated table (the CLI's -v dump prints it). The
// lowerer does not use it; it rebuilds its own table from the AST.
func (a *Analyzer) Symbols() *SymbolTable { return a.syms }

func (a *Analyzer) Analyze(prog *Program) error {
	// Pass 1: function collection (forward references resolve against
	// the always-present outermost scope of function signatures).
	for _, fn := range prog.Functions {
		sig := &FuncSig{Name: fn.Name, ReturnType: fn.ReturnType, Pos: fn.Pos}
		for _, p := range fn.Params {
			sig.ParamTypes = append(sig.ParamTypes, p.Type)
			sig.ParamNames = append(sig.ParamNames, p.Name)
		}
		if !a.syms.DefineFunction(sig) {
			return fmt.Errorf("%s: duplicate function declaration %q", fn.Pos, fn.Name)
		}
	}

	// Pass 2: body check.
	for _, fn := range prog.Functions {
		if err := a.checkFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkFunction(fn *FunctionDecl) error {
	a.currentFuncName = fn.Name
	a.currentFuncRet = fn.ReturnType

	a.syms.EnterFunction()
	defer a.syms.ExitFunction()

	for _, p := range fn.Params {
		if p.Type == TypeVoid {
			return fmt.Errorf("%s: parameter %q cannot have type void", p.Pos, p.Name)
		}
		if _, ok := a.syms.DefineParam(p.Name, p.Type, p.Pos); !ok {
			return fmt.Errorf("%s: duplicate parameter %q", p.Pos, p.Name)
		}
	}

	if err := a.checkStmtList(fn.Body); err != nil {
		return err
	}

	if fn.ReturnType != TypeVoid {
		if !returnsOnAllPaths(fn.Body) {
			return fmt.Errorf("%s: function %q with non-void return type %s has a path that does not return",
				fn.Pos, fn.Name, fn.ReturnType)
		}
	}
	return nil
}

func (a *Analyzer) checkStmtList(stmts []Stmt) error {
	a.syms.EnterScope()
	defer a.syms.ExitScope()
	for _, s := range stmts {
		if err := a.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkStmt(s Stmt) error {
	switch st := s.(type) {
	case *VarDeclStmt:
		return a.checkVarDecl(st)
	case *InputStmt:
		if st.MaxLen < 2 {
			return fmt.Errorf("%s: input() max length must be >= 2, got %d", st.Pos, st.MaxLen)
		}
		if _, ok := a.syms.DefineVar(st.VarName, TypeString, Mut, st.Pos); !ok {
			return fmt.Errorf("%s: redeclaration of %q in the same scope", st.Pos, st.VarName)
		}
		return nil
	case *VarAssignStmt:
		return a.checkVarAssign(st)
	case *ReturnStmt:
		return a.checkReturn(st)
	case *IfStmt:
		return a.checkIf(st)
	case *WhileStmt:
		if err := a.checkBoolExpr(st.Cond); err != nil {
			return err
		}
		a.loopDepth++
		err := a.checkStmtList(st.Body)
		a.loopDepth--
		return err
	case *IndefiniteLoopStmt:
		if !containsReachableBreak(st.Body) {
			return fmt.Errorf("%s: 'loop' body has no reachable break statement", st.Pos)
		}
		a.loopDepth++
		err := a.checkStmtList(st.Body)
		a.loopDepth--
		return err
	case *ForLoopStmt:
		return a.checkForLoop(st)
	case *BreakStmt:
		if a.loopDepth == 0 {
			return fmt.Errorf("%s: 'break' outside a loop", st.Pos)
		}
		return nil
	case *ContinueStmt:
		if a.loopDepth == 0 {
			return fmt.Errorf("%s: 'continue' outside a loop", st.Pos)
		}
		return nil
	case *PrintStmt:
		for _, item := range st.Items {
			t, err := a.exprType(item)
			if err != nil {
				return err
			}
			if t != TypeString {
				return fmt.Errorf("%s: print() argument must be string, got %s", item.ExprPos(), t)
			}
		}
		return nil
	case *FunctionCallStmt:
		_, err := a.checkCall(st.Call)
		return err
	default:
		return fmt.Errorf("unhandled statement type %T", s)
	}
}

func (a *Analyzer) checkVarDecl(st *VarDeclStmt) error {
	if st.Type == TypeVoid {
		return fmt.Errorf("%s: variable %q cannot have type void", st.Pos, st.Name)
	}
	rhsType, err := a.exprType(st.Init)
	if err != nil {
		return err
	}
	if rhsType != st.Type {
		return fmt.Errorf("%s: cannot initialise %s %q with a value of type %s", st.Pos, st.Type, st.Name, rhsType)
	}
	if _, ok := a.syms.DefineVar(st.Name, st.Type, st.Mut, st.Pos); !ok {
		return fmt.Errorf("%s: redeclaration of %q in the same scope", st.Pos, st.Name)
	}
	return nil
}

func (a *Analyzer) checkVarAssign(st *VarAssignStmt) error {
	sym, ok := a.syms.Lookup(st.Name)
	if !ok {
		return fmt.Errorf("%s: assignment to undeclared identifier %q", st.Pos, st.Name)
	}
	if sym.Mut != Mut {
		return fmt.Errorf("%s: cannot assign to %s %q", st.Pos, sym.Kind, st.Name)
	}
	rhsType, err := a.exprType(st.Value)
	if err != nil {
		return err
	}
	if rhsType != sym.Type {
		return fmt.Errorf("%s: cannot assign a value of type %s to %s of type %s", st.Pos, rhsType, st.Name, sym.Type)
	}
	return nil
}

func (a *Analyzer) checkReturn(st *ReturnStmt) error {
	if st.Value == nil {
		if a.currentFuncRet != TypeVoid {
			return fmt.Errorf("%s: function %q must return a value of type %s", st.Pos, a.currentFuncName, a.currentFuncRet)
		}
		return nil
	}
	if a.currentFuncRet == TypeVoid {
		return fmt.Errorf("%s: void function %q cannot return a value", st.Pos, a.currentFuncName)
	}
	t, err := a.exprType(st.Value)
	if err != nil {
		return err
	}
	if t != a.currentFuncRet {
		return fmt.Errorf("%s: returned type %s does not match function %q's return type %s", st.Pos, t, a.currentFuncName, a.currentFuncRet)
	}
	return nil
}

func (a *Analyzer) checkIf(st *IfStmt) error {
	if err := a.checkBoolExpr(st.Cond); err != nil {
		return err
	}
	if err := a.checkStmtList(st.Body); err != nil {
		return err
	}
	if st.ElseBody != nil {
		if err := a.checkStmtList(st.ElseBody); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkForLoop(st *ForLoopStmt) error {
	if st.VarType != TypeInt && st.VarType != TypeLong {
		return fmt.Errorf("%s: for-loop variable %q must be int or long, got %s", st.Pos, st.VarName, st.VarType)
	}
	startT, err := a.exprType(st.Start)
	if err != nil {
		return err
	}
	if startT != st.VarType {
		return fmt.Errorf("%s: for-loop start value has type %s, expected %s", st.Pos, startT, st.VarType)
	}
	untilT, err := a.exprType(st.Until)
	if err != nil {
		return err
	}
	if untilT != st.VarType {
		return fmt.Errorf("%s: for-loop 'until' value has type %s, expected %s", st.Pos, untilT, st.VarType)
	}
	if st.Step != nil {
		stepT, err := a.exprType(st.Step)
		if err != nil {
			return err
		}
		if stepT != st.VarType {
			return fmt.Errorf("%s: for-loop 'step' value has type %s, expected %s", st.Pos, stepT, st.VarType)
		}
		// OQ4: a literal negative step is rejected here rather than
		// deferred to a runtime sign check.
		if lit, ok := st.Step.(*Literal); ok && lit.IVal < 0 {
			return fmt.Errorf("%s: for-loop 'step' literal must not be negative", st.Step.ExprPos())
		}
	}

	a.syms.EnterScope()
	if _, ok := a.syms.DefineVar(st.VarName, st.VarType, Mut, st.Pos); !ok {
		a.syms.ExitScope()
		return fmt.Errorf("%s: redeclaration of loop variable %q", st.Pos, st.VarName)
	}
	a.loopDepth++
	err = a.checkStmtList(st.Body)
	a.loopDepth--
	a.syms.ExitScope()
	return err
}

func (a *Analyzer) checkCall(call *FunctionCallExpr) (PrimitiveType, error) {
	sig, ok := a.syms.LookupFunction(call.Name)
	if !ok {
		return TypeVoid, fmt.Errorf("%s: call to undeclared function %q", call.Pos, call.Name)
	}
	if len(call.Args) != len(sig.ParamTypes) {
		return TypeVoid, fmt.Errorf("%s: %q expects %d argument(s), got %d", call.Pos, call.Name, len(sig.ParamTypes), len(call.Args))
	}
	for i, arg := range call.Args {
		t, err := a.exprType(arg)
		if err != nil {
			return TypeVoid, err
		}
		if t != sig.ParamTypes[i] {
			return TypeVoid, fmt.Errorf("%s: argument %d of %q has type %s, expected %s", arg.ExprPos(), i+1, call.Name, t, sig.ParamTypes[i])
		}
	}
	return sig.ReturnType, nil
}

//  Type rules for the arithmetic Expression family (§4.2 "Type rule – expressions")

func (a *Analyzer) exprType(e Expr) (PrimitiveType, error) {
	switch ex := e.(type) {
	case *Literal:
		return ex.Type, nil
	case *StringLiteral:
		return TypeString, nil
	case *Identifier:
		sym, ok := a.syms.Lookup(ex.Name)
		if !ok {
			return TypeVoid, fmt.Errorf("%s: use of undeclared identifier %q", ex.Pos, ex.Name)
		}
		return sym.Type, nil
	case *BinaryExpr:
		lt, err := a.exprType(ex.Left)
		if err != nil {
			return TypeVoid, err
		}
		rt, err := a.exprType(ex.Right)
		if err != nil {
			return TypeVoid, err
		}
		if lt != rt {
			return TypeVoid, fmt.Errorf("%s: operand type mismatch: %s vs %s", ex.Pos, lt, rt)
		}
		if !lt.IsNumeric() {
			return TypeVoid, fmt.Errorf("%s: operator %s requires numeric operands, got %s", ex.Pos, ex.Op, lt)
		}
		return lt, nil
	case *UnaryExpr:
		t, err := a.exprType(ex.Term)
		if err != nil {
			return TypeVoid, err
		}
		if !t.IsNumeric() {
			return TypeVoid, fmt.Errorf("%s: operator %s requires a numeric operand, got %s", ex.Pos, ex.Op, t)
		}
		return t, nil
	case *TypeCastExpr:
		t, err := a.exprType(ex.Term)
		if err != nil {
			return TypeVoid, err
		}
		if t.IsNumeric() && ex.Target.IsNumeric() {
			return ex.Target, nil
		}
		// Extension beyond the base numeric-to-numeric rule: the runtime
		// prelude (§6.4) only offers __tostring_int/__tostring_byte and
		// __fromstring_int, so string conversion is permitted for exactly
		// those two directions rather than every numeric type.
		if ex.Target == TypeString && (t == TypeInt || t == TypeByte) {
			return TypeString, nil
		}
		if ex.Target == TypeInt && t == TypeString {
			return TypeInt, nil
		}
		return TypeVoid, fmt.Errorf("%s: cast between %s and %s is not permitted", ex.Pos, t, ex.Target)
	case *FunctionCallExpr:
		return a.checkCall(ex)
	case *TernaryExpr:
		if err := a.checkBoolExpr(ex.Cond); err != nil {
			return TypeVoid, err
		}
		thenT, err := a.exprType(ex.Then)
		if err != nil {
			return TypeVoid, err
		}
		elseT, err := a.exprType(ex.Else)
		if err != nil {
			return TypeVoid, err
		}
		if thenT != elseT {
			return TypeVoid, fmt.Errorf("%s: ternary branches have mismatched types %s and %s", ex.Pos, thenT, elseT)
		}
		return thenT, nil
	case *boolExprAsExpr:
		if err := a.checkBoolExpr(ex.Bool); err != nil {
			return TypeVoid, err
		}
		return TypeBool, nil
	default:
		return TypeVoid, fmt.Errorf("unhandled expression type %T", e)
	}
}

//  Type rules for the BoolExpr family

func (a *Analyzer) checkBoolExpr(be BoolExpr) error {
	switch b := be.(type) {
	case *ComparisonExpr:
		lt, err := a.exprType(b.Left)
		if err != nil {
			return err
		}
		rt, err := a.exprType(b.Right)
		if err != nil {
			return err
		}
		if lt != rt {
			return fmt.Errorf("%s: comparison operand type mismatch: %s vs %s", b.Pos, lt, rt)
		}
		return nil
	case *BoolConnectiveExpr:
		if err := a.checkBoolExpr(b.Left); err != nil {
			return err
		}
		return a.checkBoolExpr(b.Right)
	case *BoolNotExpr:
		return a.checkBoolExpr(b.Term)
	case *comparisonLiteralAdapter:
		t, err := a.exprType(b.Expr)
		if err != nil {
			return err
		}
		if t != TypeBool {
			return fmt.Errorf("%s: expected a boolean value, got %s", b.Expr.ExprPos(), t)
		}
		return nil
	default:
		return fmt.Errorf("unhandled boolean expression type %T", be)
	}
}

//  Return-path checking (§4.2 "Return-path check")

// returnsOnAllPaths reports whether every control-flow path through stmts
// reaches a Return before falling off the end.
func returnsOnAllPaths(stmts []Stmt) bool {
	for _, s := range stmts {
		if stmtAlwaysReturns(s) {
			return true
		}
	}
	return false
}

func stmtAlwaysReturns(s Stmt) bool {
	switch st := s.(type) {
	case *ReturnStmt:
		return true
	case *IfStmt:
		if st.ElseBody == nil {
			return false
		}
		return returnsOnAllPaths(st.Body) && returnsOnAllPaths(st.ElseBody)
	case *IndefiniteLoopStmt:
		// 'loop' is assumed not to terminate without a break, per §4.2;
		// it does not itself guarantee a return on the path that follows
		// it, but a break-free loop diverges, which is treated as
		// satisfying the path (nothing after it is reachable).
		return !containsReachableBreak(st.Body)
	default:
		return false
	}
}

// containsReachableBreak scans stmts for a break statement that would
// belong to this loop, i.e. one not shadowed by a nested loop's own scope.
func containsReachableBreak(stmts []Stmt) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *BreakStmt:
			return true
		case *IfStmt:
			if containsReachableBreak(st.Body) || containsReachableBreak(st.ElseBody) {
				return true
			}
		}
	}
	return false
}
