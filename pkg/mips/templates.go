// Package mips translates the compiler's stack IR into MIPS assembly text.
package mips

import "strings"

// slotType is the template table's "int"/"long" axis (§6.2). Every 4-byte
// tag (int, byte, char, bool) renders through the "int" templates; every
// 8-byte tag (long, double, string) renders through "long" templates.
type slotType string

const (
	slotInt  slotType = "int"
	slotLong slotType = "long"
)

// templates maps <op>/<type> to a list of assembly lines with positional
// "{}" placeholders, exactly the key-value tree described in §6.2.
// Frame layout (see emit.go for the full prologue/epilogue walk):
//
//	$fp            <- caller's $sp at the moment of jal
//	$fp-4.. -F      locals, allocated by the symbol table
//	$fp-F           saved $ra            ("start_func"'s {} is F = locals+4)
//	$fp-F-8         expression-stack baseline; push/pop move $sp from here
//
// $sp always points at the lowest address of the value currently on top of
// the expression stack (or at the baseline when the stack is empty): every
// push decrements $sp by its own width *before* writing, and every pop reads
// at the current $sp *before* incrementing it back. This is what keeps a
// narrower push immediately followed by a wider one (e.g. any call whose
// arguments mix widths, fully legal per the grammar) from having the wider
// value's high word land on the address the narrower value was just written
// to: each push's writes are confined to [$sp_after, $sp_before), strictly
// below where any earlier, still-live value sits.
//
// The 8-byte gap between the saved $ra word and the baseline is fixed
// headroom: wide enough that a single pushed return value (4 or 8 bytes)
// never reaches $ra's slot, so "return" restores $ra at a small constant
// offset from the current $sp (12 bytes after a 4-byte return push, 16
// after an 8-byte one) with no frame-size argument needed.
var templates = map[string]map[slotType][]string{
	"start_func": {
		slotInt: {
			"{}:",
			"move $fp,$sp",
			"addiu $sp,$sp,-{}",
			"sw $ra,0($sp)",
			"addiu $sp,$sp,-8",
		},
	},
	"push": {
		slotInt: {
			"addiu $sp,$sp,-4",
			"sw {},0($sp)",
		},
		slotLong: {
			"addiu $sp,$sp,-8",
			"sw {},4($sp)",
			"sw {},0($sp)",
		},
	},
	"load": {
		slotInt: {
			"lw $t0,{}($fp)",
			"addiu $sp,$sp,-4",
			"sw $t0,0($sp)",
		},
		slotLong: {
			"lw $t0,{}($fp)",
			"lw $t1,{}($fp)",
			"addiu $sp,$sp,-8",
			"sw $t0,4($sp)",
			"sw $t1,0($sp)",
		},
	},
	"store": {
		slotInt: {
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sw $t0,{}($fp)",
		},
		slotLong: {
			"lw $t0,4($sp)",
			"lw $t1,0($sp)",
			"addiu $sp,$sp,8",
			"sw $t0,{}($fp)",
			"sw $t1,{}($fp)",
		},
	},
	"return": {
		slotInt: {
			"lw $a0,0($sp)",
			"lw $ra,12($sp)",
			"move $sp,$fp",
			"jr $ra",
		},
		slotLong: {
			"lw $a0,4($sp)",
			"lw $a1,0($sp)",
			"lw $ra,16($sp)",
			"move $sp,$fp",
			"jr $ra",
		},
	},
	"return_void": {
		slotInt: {
			"lw $ra,8($sp)",
			"move $sp,$fp",
			"jr $ra",
		},
	},
	// Binary-op shape, shared by every int-width arithmetic/bitwise/compare
	// template below: pop the right operand (b, pushed last) into $t1, pop
	// the left operand (a, pushed first) into $t0, compute, push the
	// result back at the slot the pops just freed.
	"add": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"add $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"sub": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sub $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"mult": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"mul $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"div": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"div $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"bitwise_and": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"and $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"bitwise_or": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"or $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"bitwise_xor": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"xor $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"numerical_neg": {
		slotInt: {
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sub $t1,$zero,$t0",
			"addiu $sp,$sp,-4",
			"sw $t1,0($sp)",
		},
	},
	"logical_neg": {
		slotInt: {
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sltiu $t1,$t0,1",
			"addiu $sp,$sp,-4",
			"sw $t1,0($sp)",
		},
	},
	"complement": {
		slotInt: {
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"nor $t1,$t0,$zero",
			"addiu $sp,$sp,-4",
			"sw $t1,0($sp)",
		},
	},
	"sll": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sllv $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"srl": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"srlv $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"sra": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"srav $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_equal": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"seq $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_unequal": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sne $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_greater_than": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sgt $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_greater_equal": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sge $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_less_than": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"slt $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"test_less_equal": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"sle $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"logical_and": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"and $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"logical_or": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"or $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	"logical_xor": {
		slotInt: {
			"lw $t1,0($sp)",
			"addiu $sp,$sp,4",
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"xor $t2,$t0,$t1",
			"addiu $sp,$sp,-4",
			"sw $t2,0($sp)",
		},
	},
	// jump_zero: OQ1 resolves this to "branch when the popped value is
	// zero", realised with beqz rather than the source's documented bnez.
	"jump_zero": {
		slotInt: {
			"lw $t0,0($sp)",
			"addiu $sp,$sp,4",
			"beqz $t0,{}",
		},
	},
	"jump": {
		slotInt: {
			"j {}",
		},
	},
	"label": {
		slotInt: {
			"{}:",
		},
	},
	"call": {
		slotInt: {
			"jal {}",
		},
	},
	"print": {
		slotLong: {
			"lw $a0,4($sp)",
			"lw $a1,0($sp)",
			"addiu $sp,$sp,8",
			"jal __print_string",
		},
	},
	"input": {
		slotInt: {
			"li $a0,{}",
			"jal __read_line",
			"addiu $sp,$sp,-8",
			"sw $v0,4($sp)",
			"sw $v1,0($sp)",
		},
	},
}

// render fills a template's "{}" placeholders positionally from args.
func render(lines []string, args ...string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fillPlaceholders(line, &args)
	}
	return out
}

func fillPlaceholders(line string, args *[]string) string {
	for strings.Contains(line, "{}") {
		var val string
		if len(*args) > 0 {
			val = (*args)[0]
			*args = (*args)[1:]
		}
		line = strings.Replace(line, "{}", val, 1)
	}
	return line
}

func lookup(op string, st slotType) ([]string, bool) {
	byType, ok := templates[op]
	if !ok {
		return nil, false
	}
	lines, ok := byType[st]
	if !ok {
		// Most arithmetic/bitwise/comparison ops have only an int shape:
		// 8-byte operands never reach these templates, because emit.go
		// synthesises their arithmetic inline. Only push/load/store/
		// start_func/return/print truly branch on width, so falling back
		// to the int shape here is intentional, not a gap.
		lines, ok = byType[slotInt]
	}
	return lines, ok
}
