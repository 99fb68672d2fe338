package mips

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DominicThorpe/iridescent-compiler/pkg/compiler"
)

// Emitter walks the flat stack IR of §3/§4.3 and produces MIPS assembly
// text through the template table in templates.go, following the
// stack-frame and calling convention of §4.4.
type Emitter struct {
	out          strings.Builder
	strLabels    map[string]string
	strOrder     []string
	nextStrLabel int
	nextTmp      int
}

// Emit lowers a complete instruction stream into MIPS assembly text. The
// text still needs the runtime prelude (Prelude()) appended by the caller
// (cmd/iridescentc does this), matching §6.4's "concatenated at the end of
// the emitted stream" rule.
func Emit(instrs []compiler.Instr) (string, error) {
	e := &Emitter{strLabels: make(map[string]string)}

	e.line(".text")
	for i := 0; i < len(instrs); i++ {
		if err := e.emitOne(instrs[i]); err != nil {
			return "", err
		}
	}

	if len(e.strOrder) == 0 {
		return e.out.String(), nil
	}

	var full strings.Builder
	full.WriteString(e.out.String())
	full.WriteString(".data\n")
	for _, label := range e.strOrder {
		full.WriteString(fmt.Sprintf("%s: .asciiz %q\n", label, e.strLiteralByLabel(label)))
	}
	return full.String(), nil
}

func (e *Emitter) strLiteralByLabel(label string) string {
	for lit, l := range e.strLabels {
		if l == label {
			return lit
		}
	}
	return ""
}

func (e *Emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

func (e *Emitter) emitLines(lines []string) {
	for _, l := range lines {
		e.out.WriteString(l)
		e.out.WriteByte('\n')
	}
}

func (e *Emitter) tmp() string {
	e.nextTmp++
	return fmt.Sprintf("L_tmp_%d", e.nextTmp)
}

// dataLabel interns a string literal, returning a stable label usable in
// "la $t0,label" at every use site of the same literal text.
func (e *Emitter) dataLabel(s string) string {
	if label, ok := e.strLabels[s]; ok {
		return label
	}
	e.nextStrLabel++
	label := fmt.Sprintf("L_str_%d", e.nextStrLabel)
	e.strLabels[s] = label
	e.strOrder = append(e.strOrder, label)
	return label
}

//  Binary/unary op name table (IR op -> §6.2 template key)

var binOpName = map[compiler.IROp]string{
	compiler.IRAdd:  "add",
	compiler.IRSub:  "sub",
	compiler.IRMul:  "mult",
	compiler.IRAnd:  "bitwise_and",
	compiler.IROr:   "bitwise_or",
	compiler.IRXor:  "bitwise_xor",
	compiler.IREq:   "test_equal",
	compiler.IRNe:   "test_unequal",
	compiler.IRGt:   "test_greater_than",
	compiler.IRGe:   "test_greater_equal",
	compiler.IRLt:   "test_less_than",
	compiler.IRLe:   "test_less_equal",
	compiler.IRLand: "logical_and",
	compiler.IRLor:  "logical_or",
	compiler.IRLxor: "logical_xor",
}

var unaryOpName = map[compiler.IROp]string{
	compiler.IRNeg:   "numerical_neg",
	compiler.IRNot:   "logical_neg",
	compiler.IRCompl: "complement",
}

func (e *Emitter) emitOne(in compiler.Instr) error {
	switch in.Op {
	case compiler.IRFuncStart:
		return e.emitFuncStart(in)
	case compiler.IRFuncEnd:
		// No trailing code: every reachable path already ended in RETURN
		// (invariant #3); FUNC_END is a structural marker only.
		return nil
	case compiler.IRPush:
		return e.emitPush(in)
	case compiler.IRLoad:
		return e.emitLoad(in)
	case compiler.IRStore:
		return e.emitStore(in)
	case compiler.IRLabel:
		e.emitLines(render(mustLookup("label"), in.Label))
		return nil
	case compiler.IRJump:
		e.emitLines(render(mustLookup("jump"), in.Label))
		return nil
	case compiler.IRJz:
		e.emitLines(render(mustLookup("jump_zero"), in.Label))
		return nil
	case compiler.IRReturn:
		return e.emitReturn(in)
	case compiler.IRCall:
		return e.emitCall(in)
	case compiler.IRPrint:
		e.emitLines(mustLookupType("print", slotLong))
		return nil
	case compiler.IRInput:
		e.emitLines(render(mustLookupType("input", slotInt), strconv.FormatInt(in.MaxLen, 10)))
		return nil
	case compiler.IRCast:
		return e.emitCast(in)
	default:
		if name, ok := binOpName[in.Op]; ok {
			return e.emitBinary(name, in)
		}
		if name, ok := unaryOpName[in.Op]; ok {
			return e.emitUnary(name, in)
		}
		if in.Op == compiler.IRSll || in.Op == compiler.IRSrl || in.Op == compiler.IRSra {
			return e.emitShift(in)
		}
		if in.Op == compiler.IRDiv {
			return e.emitDiv(in)
		}
		return fmt.Errorf("mips: no emission rule for IR op %s", in.Op)
	}
}

func mustLookup(op string) []string {
	lines, ok := lookup(op, slotInt)
	if !ok {
		panic("mips: missing template for " + op)
	}
	return lines
}

func mustLookupType(op string, st slotType) []string {
	byType, ok := templates[op]
	if !ok {
		panic("mips: missing template for " + op)
	}
	lines, ok := byType[st]
	if !ok {
		panic("mips: missing " + string(st) + " template for " + op)
	}
	return lines
}

//  FUNC_START / RETURN

func (e *Emitter) emitFuncStart(in compiler.Instr) error {
	e.emitLines(render(mustLookup("start_func"), in.Name, strconv.Itoa(in.FrameSize+4)))

	// OQ5: the caller pushed arguments left-to-right before CALL; copy
	// them out of the caller's portion of the stack (positive offsets
	// from $fp, the position $sp held right after the last push) into
	// this function's own local slots in declaration order.
	var running int
	srcOffset := make([]int, len(in.ParamTypes))
	for i := len(in.ParamTypes) - 1; i >= 0; i-- {
		srcOffset[i] = running
		running += in.ParamTypes[i].SlotSize()
	}
	for i, pt := range in.ParamTypes {
		dst := in.ParamOffsets[i]
		if pt.SlotSize() == 8 {
			e.line("lw $t0,%d($fp)", srcOffset[i]+4) // hi word
			e.line("lw $t1,%d($fp)", srcOffset[i])   // lo word
			e.line("sw $t0,%d($fp)", dst+4)
			e.line("sw $t1,%d($fp)", dst)
		} else {
			e.line("lw $t0,%d($fp)", srcOffset[i])
			e.line("sw $t0,%d($fp)", dst)
		}
	}
	return nil
}

func (e *Emitter) emitReturn(in compiler.Instr) error {
	switch {
	case in.Type == compiler.TypeVoid:
		e.emitLines(mustLookupType("return_void", slotInt))
	case in.Type.SlotSize() == 8:
		e.emitLines(mustLookupType("return", slotLong))
	default:
		e.emitLines(mustLookupType("return", slotInt))
	}
	return nil
}

//  PUSH / LOAD / STORE

func (e *Emitter) emitPush(in compiler.Instr) error {
	if in.Type == compiler.TypeString {
		label := e.dataLabel(in.Str)
		e.line("la $t0,%s", label)
		e.line("li $t1,%d", len(in.Str))
		e.emitLines(render(mustLookupType("push", slotLong), "$t0", "$t1"))
		return nil
	}
	if in.Type.SlotSize() == 8 {
		hi, lo := splitImm(in.Imm)
		e.line("li $t0,%d", hi)
		e.line("li $t1,%d", lo)
		e.emitLines(render(mustLookupType("push", slotLong), "$t0", "$t1"))
		return nil
	}
	e.line("li $t0,%d", int32FromImm(in))
	e.emitLines(render(mustLookupType("push", slotInt), "$t0"))
	return nil
}

// int32FromImm returns the 4-byte bit pattern to load for a PUSH of a
// numeric literal; float literals carry their bits via FImm but this
// back-end never emits FPU instructions (§1 Non-goals), so a float value's
// 4-byte slot simply carries the literal formatted as a plain decimal,
// reinterpreted as an integer by whatever arithmetic later touches it.
func int32FromImm(in compiler.Instr) int64 {
	if in.Type == compiler.TypeFloat || in.Type == compiler.TypeDouble {
		return int64(in.FImm)
	}
	return in.Imm
}

func splitImm(v int64) (hi, lo int32) {
	return int32(v >> 32), int32(v)
}

func (e *Emitter) emitLoad(in compiler.Instr) error {
	if in.Type.SlotSize() == 8 {
		e.emitLines(render(mustLookupType("load", slotLong), strconv.Itoa(in.Offset+4), strconv.Itoa(in.Offset)))
		return nil
	}
	e.emitLines(render(mustLookupType("load", slotInt), strconv.Itoa(in.Offset)))
	return nil
}

func (e *Emitter) emitStore(in compiler.Instr) error {
	if in.Type.SlotSize() == 8 {
		e.emitLines(render(mustLookupType("store", slotLong), strconv.Itoa(in.Offset+4), strconv.Itoa(in.Offset)))
		return nil
	}
	e.emitLines(render(mustLookupType("store", slotInt), strconv.Itoa(in.Offset)))
	return nil
}

//  CALL

func (e *Emitter) emitCall(in compiler.Instr) error {
	e.emitLines(render(mustLookup("call"), in.Name))

	// The callee's epilogue restores $sp to the position captured by its own
	// $fp, i.e. right after the caller pushed the arguments (see the frame
	// layout comment in templates.go) — not to the position before they
	// were pushed. Reclaim that space here so a sequence of calls doesn't
	// leak argument bytes down the caller's stack.
	var argBytes int
	for _, t := range in.ArgTypes {
		argBytes += t.SlotSize()
	}
	if argBytes > 0 {
		e.line("addiu $sp,$sp,%d", argBytes)
	}

	switch {
	case in.RetType == compiler.TypeVoid:
	case in.RetType.SlotSize() == 8:
		e.emitLines(render(mustLookupType("push", slotLong), "$a0", "$a1"))
	default:
		e.emitLines(render(mustLookupType("push", slotInt), "$a0"))
	}
	return nil
}

//  Unary / binary ops on 4-byte operands (table-driven)

func (e *Emitter) emitUnary(name string, in compiler.Instr) error {
	if in.Type.SlotSize() == 8 {
		return e.emitUnary64(in)
	}
	e.emitLines(mustLookupType(name, slotInt))
	return nil
}

func (e *Emitter) emitBinary(name string, in compiler.Instr) error {
	if in.Type.SlotSize() == 8 {
		return e.emitBinary64(name, in)
	}
	e.emitLines(mustLookupType(name, slotInt))
	return nil
}

//  64-bit (long/double) synthesis — §4.4 "64-bit operations are synthesised"

// pop64 emits the code to pop one 8-byte slot into hiReg/loReg, matching
// the "store"/slotLong addressing shape (§4.4 frame-layout comment in
// templates.go): the value on top of the stack sits at 4($sp)/0($sp).
func (e *Emitter) pop64(hiReg, loReg string) {
	e.line("lw %s,4($sp)", hiReg)
	e.line("lw %s,0($sp)", loReg)
	e.line("addiu $sp,$sp,8")
}

func (e *Emitter) push64(hiReg, loReg string) {
	e.line("addiu $sp,$sp,-8")
	e.line("sw %s,4($sp)", hiReg)
	e.line("sw %s,0($sp)", loReg)
}

func (e *Emitter) push32(reg string) {
	e.line("addiu $sp,$sp,-4")
	e.line("sw %s,0($sp)", reg)
}

func (e *Emitter) emitBinary64(name string, in compiler.Instr) error {
	// b was pushed last, so it is popped first (matches the int-width
	// convention documented in templates.go).
	e.pop64("$t1", "$t0") // b: hi=$t1, lo=$t0
	e.pop64("$t3", "$t2") // a: hi=$t3, lo=$t2

	switch name {
	case "add":
		// OQ2: propagate the carry out of the low-word add into the high word.
		e.line("add $t4,$t2,$t0")  // lo = a_lo + b_lo
		e.line("sltu $t5,$t4,$t2") // carry = (lo < a_lo)
		e.line("add $t6,$t3,$t1")  // hi = a_hi + b_hi
		e.line("add $t6,$t6,$t5")  // hi += carry
		e.push64("$t6", "$t4")
	case "sub":
		e.line("sltu $t5,$t2,$t0") // borrow = (a_lo < b_lo)
		e.line("sub $t4,$t2,$t0")  // lo = a_lo - b_lo
		e.line("sub $t6,$t3,$t1")  // hi = a_hi - b_hi
		e.line("sub $t6,$t6,$t5")  // hi -= borrow
		e.push64("$t6", "$t4")
	case "mult":
		// (hi_a*lo_b + lo_a*hi_b)*2^32 + lo_a*lo_b, upper word of the full
		// 128-bit product discarded (§4.4).
		e.line("multu $t2,$t0")   // lo_a * lo_b
		e.line("mflo $t4")        // low 32 of lo_a*lo_b -> result lo
		e.line("mfhi $t5")        // high 32 of lo_a*lo_b -> feeds result hi
		e.line("mul $t6,$t3,$t0") // hi_a * lo_b, low word only
		e.line("mul $t7,$t2,$t1") // lo_a * hi_b, low word only
		e.line("add $t5,$t5,$t6")
		e.line("add $t5,$t5,$t7")
		e.push64("$t5", "$t4")
	case "bitwise_and", "logical_and":
		e.line("and $t4,$t2,$t0")
		e.line("and $t6,$t3,$t1")
		e.push64("$t6", "$t4")
	case "bitwise_or", "logical_or":
		e.line("or $t4,$t2,$t0")
		e.line("or $t6,$t3,$t1")
		e.push64("$t6", "$t4")
	case "bitwise_xor", "logical_xor":
		e.line("xor $t4,$t2,$t0")
		e.line("xor $t6,$t3,$t1")
		e.push64("$t6", "$t4")
	case "test_equal", "test_unequal", "test_greater_than", "test_greater_equal",
		"test_less_than", "test_less_equal":
		e.emit64Compare(name)
	default:
		return fmt.Errorf("mips: no 64-bit synthesis for %s", name)
	}
	return nil
}

// emit64Compare realises a signed 64-bit comparison by comparing high
// words first and falling back to an unsigned low-word comparison when the
// high words are equal, leaving a single 4-byte boolean (1/0) on the
// stack — comparisons always yield a bool-sized slot regardless of
// operand width (§3).
func (e *Emitter) emit64Compare(name string) {
	trueLbl := e.tmp()
	falseLbl := e.tmp()
	endLbl := e.tmp()

	switch name {
	case "test_equal":
		e.line("bne $t3,$t1,%s", falseLbl)
		e.line("bne $t2,$t0,%s", falseLbl)
		e.line("j %s", trueLbl)
	case "test_unequal":
		e.line("bne $t3,$t1,%s", trueLbl)
		e.line("bne $t2,$t0,%s", trueLbl)
		e.line("j %s", falseLbl)
	default:
		hiOp, loOp := compare64Ops(name)
		eqLbl := e.tmp()
		e.line("beq $t3,$t1,%s", eqLbl)
		e.line("%s $t4,$t3,$t1", hiOp)
		e.line("beqz $t4,%s", falseLbl)
		e.line("j %s", trueLbl)
		e.line("%s:", eqLbl)
		e.line("%s $t4,$t2,$t0", loOp)
		e.line("beqz $t4,%s", falseLbl)
		e.line("j %s", trueLbl)
	}
	e.line("%s:", trueLbl)
	e.line("li $t4,1")
	e.line("j %s", endLbl)
	e.line("%s:", falseLbl)
	e.line("li $t4,0")
	e.line("%s:", endLbl)
	e.push32("$t4")
}

// compare64Ops returns the signed high-word and unsigned low-word
// set-on-condition mnemonics used to decide an ordering comparison once
// the high words are known to differ or match respectively.
func compare64Ops(name string) (hiOp, loOp string) {
	switch name {
	case "test_greater_than":
		return "sgt", "sgtu"
	case "test_greater_equal":
		return "sgt", "sgeu"
	case "test_less_than":
		return "slt", "sltu"
	case "test_less_equal":
		return "slt", "sleu"
	default:
		panic("mips: unhandled 64-bit comparison " + name)
	}
}

func (e *Emitter) emitUnary64(in compiler.Instr) error {
	e.pop64("$t1", "$t0") // hi=$t1, lo=$t0

	switch unaryOpName[in.Op] {
	case "numerical_neg":
		// two's complement: invert each word, then add 1 with carry.
		e.line("nor $t2,$t0,$zero")
		e.line("nor $t3,$t1,$zero")
		e.line("addiu $t2,$t2,1")
		e.line("sltiu $t4,$t2,1") // carry = (lo_result == 0)
		e.line("add $t3,$t3,$t4")
		e.push64("$t3", "$t2")
	case "complement":
		e.line("nor $t2,$t0,$zero")
		e.line("nor $t3,$t1,$zero")
		e.push64("$t3", "$t2")
	case "logical_neg":
		// OQ3: (hi|lo != 0) ? 0 : 1, a 4-byte boolean, high word dropped.
		e.line("or $t2,$t0,$t1")
		e.line("sltiu $t3,$t2,1")
		e.push32("$t3")
	default:
		return fmt.Errorf("mips: no 64-bit synthesis for unary op %s", in.Op)
	}
	return nil
}

// emitShift and emitDiv call the fixed runtime helpers named in §6.4 for
// 64-bit shifts and division; neither is synthesised inline. Both operands
// of a shift share the long type per the typed-operator invariant (§3),
// so the shift amount is popped and passed as a full 64-bit value even
// though only its low word is meaningful.
func (e *Emitter) emitShift(in compiler.Instr) error {
	if in.Type.SlotSize() != 8 {
		e.emitLines(mustLookupType(map[compiler.IROp]string{
			compiler.IRSll: "sll", compiler.IRSrl: "srl", compiler.IRSra: "sra",
		}[in.Op], slotInt))
		return nil
	}
	helper := map[compiler.IROp]string{
		compiler.IRSll: "__sllint64", compiler.IRSrl: "__srlint64", compiler.IRSra: "__sraint64",
	}[in.Op]
	e.pop64("$a2", "$a3") // shift amount: hi=$a2, lo=$a3
	e.pop64("$a0", "$a1") // value: hi=$a0, lo=$a1
	e.line("jal %s", helper)
	e.push64("$v0", "$v1")
	return nil
}

func (e *Emitter) emitDiv(in compiler.Instr) error {
	if in.Type.SlotSize() != 8 {
		e.emitLines(mustLookupType("div", slotInt))
		return nil
	}
	e.pop64("$a2", "$a3") // divisor
	e.pop64("$a0", "$a1") // dividend
	e.line("jal __divint64")
	e.push64("$v0", "$v1")
	return nil
}

//  CAST

func (e *Emitter) emitCast(in compiler.Instr) error {
	if in.ToType == compiler.TypeString {
		return e.emitCastToString(in)
	}
	if in.FromType == compiler.TypeString {
		return e.emitCastFromString(in)
	}

	fromSize := in.FromType.SlotSize()
	toSize := in.ToType.SlotSize()
	switch {
	case fromSize == toSize:
		if in.ToType == compiler.TypeByte {
			e.line("lw $t0,0($sp)")
			e.line("addiu $sp,$sp,4")
			e.line("andi $t0,$t0,0xFF")
			e.push32("$t0")
		}
		// Otherwise same-width numeric casts are a no-op: the bit
		// pattern already sits in the right-shaped slot.
		return nil
	case fromSize == 4 && toSize == 8:
		e.line("lw $t0,0($sp)")
		e.line("addiu $sp,$sp,4")
		e.line("sra $t1,$t0,31") // sign-extend into the high word
		e.push64("$t1", "$t0")
		return nil
	case fromSize == 8 && toSize == 4:
		e.pop64("$t1", "$t0")
		e.push32("$t0")
		return nil
	default:
		return fmt.Errorf("mips: unhandled cast %s -> %s", in.FromType, in.ToType)
	}
}

func (e *Emitter) emitCastToString(in compiler.Instr) error {
	switch in.FromType {
	case compiler.TypeInt:
		e.line("lw $a0,0($sp)")
		e.line("addiu $sp,$sp,4")
		e.line("jal __tostring_int")
	case compiler.TypeByte:
		e.line("lw $a0,0($sp)")
		e.line("addiu $sp,$sp,4")
		e.line("jal __tostring_byte")
	default:
		return fmt.Errorf("mips: no string conversion from %s", in.FromType)
	}
	e.push64("$v0", "$v1") // v0=address, v1=length, matching the string push convention
	return nil
}

func (e *Emitter) emitCastFromString(in compiler.Instr) error {
	if in.ToType != compiler.TypeInt {
		return fmt.Errorf("mips: no string conversion to %s", in.ToType)
	}
	e.pop64("$a0", "$a1") // hi=address, lo=length
	e.line("jal __fromstring_int")
	e.push32("$v0")
	return nil
}
