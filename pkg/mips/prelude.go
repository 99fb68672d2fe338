package mips

// Prelude returns the fixed runtime support routines named in §6.4: string
// primitives, numeric/string conversions, and the 64-bit division/shift
// helpers the emitter calls out to instead of synthesising inline. The
// text is concatenated onto the end of every emitted program exactly once,
// regardless of how many of the routines it actually calls (§6.4: "the
// compiler does not perform dead-code elimination on the prelude").
//
// Strings are passed and returned as an (address, length) pair in two
// registers, matching the stack representation the emitter uses
// everywhere else. The exception is __strlen, which takes only an address
// and counts bytes up to a terminating zero, as .asciiz literals placed in
// .data by Emit always have.
func Prelude() string {
	return preludeText
}

const preludeText = `
__print_string:
	move $t0,$a0
	move $t1,$a1
__print_string_loop:
	blez $t1,__print_string_done
	lb $a0,0($t0)
	li $v0,11
	syscall
	addiu $t0,$t0,1
	addiu $t1,$t1,-1
	j __print_string_loop
__print_string_done:
	jr $ra

__read_line:
	move $t5,$a0
	addiu $a0,$a0,1
	li $v0,9
	syscall
	move $t0,$v0
	move $a1,$t0
	li $v0,8
	syscall
	move $t1,$t0
	li $t2,0
__read_line_scan:
	lb $t3,0($t1)
	beqz $t3,__read_line_scanned
	li $t4,10
	beq $t3,$t4,__read_line_scanned
	addiu $t1,$t1,1
	addiu $t2,$t2,1
	bgt $t2,$t5,__read_line_scanned
	j __read_line_scan
__read_line_scanned:
	move $v0,$t0
	move $v1,$t2
	jr $ra

__strlen:
	move $t0,$a0
	li $t1,0
__strlen_loop:
	lb $t2,0($t0)
	beqz $t2,__strlen_done
	addiu $t0,$t0,1
	addiu $t1,$t1,1
	j __strlen_loop
__strlen_done:
	move $v0,$t1
	jr $ra

__strcopy:
	move $t0,$a0
	move $t1,$a1
	move $t2,$a2
__strcopy_loop:
	blez $t2,__strcopy_done
	lb $t3,0($t1)
	sb $t3,0($t0)
	addiu $t0,$t0,1
	addiu $t1,$t1,1
	addiu $t2,$t2,-1
	j __strcopy_loop
__strcopy_done:
	jr $ra

__strcat:
	add $t0,$a1,$a3
	addiu $a0,$t0,1
	li $v0,9
	syscall
	move $t1,$v0
	move $a0,$t1
	jal __strcopy
	add $a0,$t1,$a1
	jal __strcopy
	li $t2,0
	add $t3,$t1,$a1
	add $t3,$t3,$a3
	sb $t2,0($t3)
	move $v0,$t1
	move $v1,$t0
	jr $ra

__strcmp:
	move $t0,$a0
	move $t1,$a1
	move $t2,$a2
	move $t3,$a3
	slt $t4,$t1,$t3
	movn $t5,$t1,$t4
	movz $t5,$t3,$t4
__strcmp_loop:
	blez $t5,__strcmp_lencheck
	lb $t6,0($t0)
	lb $t7,0($t2)
	bne $t6,$t7,__strcmp_diff
	addiu $t0,$t0,1
	addiu $t2,$t2,1
	addiu $t5,$t5,-1
	j __strcmp_loop
__strcmp_diff:
	slt $v0,$t7,$t6
	bnez $v0,__strcmp_ret
	li $v0,-1
	jr $ra
__strcmp_ret:
	jr $ra
__strcmp_lencheck:
	sub $v0,$t1,$t3
	slt $t8,$zero,$v0
	slt $t9,$v0,$zero
	sub $v0,$t8,$t9
	jr $ra

__tostring_int:
	li $t0,10
	move $t1,$a0
	li $t2,0
	slt $t3,$a0,$zero
	beqz $t3,__tostring_int_nonneg
	sub $t1,$zero,$a0
	li $t2,1
__tostring_int_nonneg:
	addiu $sp,$sp,-48
	move $t4,$sp
	addiu $t4,$t4,47
	sb $zero,0($t4)
	addiu $t4,$t4,-1
	li $t5,0
	bnez $t1,__tostring_int_digits
	li $t6,48
	sb $t6,0($t4)
	addiu $t4,$t4,-1
	addiu $t5,$t5,1
	j __tostring_int_sign
__tostring_int_digits:
	blez $t1,__tostring_int_sign
	div $t1,$t0
	mflo $t6
	mfhi $t7
	addi $t7,$t7,48
	sb $t7,0($t4)
	addiu $t4,$t4,-1
	addiu $t5,$t5,1
	move $t1,$t6
	j __tostring_int_digits
__tostring_int_sign:
	beqz $t2,__tostring_int_copy
	li $t6,45
	sb $t6,0($t4)
	addiu $t4,$t4,-1
	addiu $t5,$t5,1
__tostring_int_copy:
	addiu $a0,$t5,1
	li $v0,9
	syscall
	move $a0,$v0
	addiu $t4,$t4,1
	move $a1,$t4
	move $a2,$t5
	jal __strcopy
	move $v1,$t5
	addiu $sp,$sp,48
	jr $ra

__tostring_byte:
	andi $a0,$a0,0xFF
	j __tostring_int

__fromstring_int:
	move $t0,$a0
	move $t1,$a1
	li $t2,0
	li $t3,0
	blez $t1,__fromstring_int_done
	lb $t4,0($t0)
	li $t5,45
	bne $t4,$t5,__fromstring_int_loop
	li $t3,1
	addiu $t0,$t0,1
	addiu $t1,$t1,-1
__fromstring_int_loop:
	blez $t1,__fromstring_int_done
	lb $t4,0($t0)
	addi $t4,$t4,-48
	li $t5,10
	mul $t2,$t2,$t5
	add $t2,$t2,$t4
	addiu $t0,$t0,1
	addiu $t1,$t1,-1
	j __fromstring_int_loop
__fromstring_int_done:
	beqz $t3,__fromstring_int_ret
	sub $t2,$zero,$t2
__fromstring_int_ret:
	move $v0,$t2
	jr $ra

# __divint64 divides the signed 64-bit dividend (a0:a1 = hi:lo) by the
# signed 64-bit divisor (a2:a3 = hi:lo), returning the quotient as
# v0:v1 = hi:lo. Magnitudes are computed with a 64-iteration bit-serial
# long division, then the sign of the quotient is restored at the end.
__divint64:
	addiu $sp,$sp,-8
	sw $ra,0($sp)

	xor $t8,$a0,$a2
	slt $t8,$t8,$zero

	slt $t0,$a0,$zero
	beqz $t0,__divint64_absdone_a
	sub $a1,$zero,$a1
	sltu $t1,$zero,$a1
	sub $a0,$zero,$a0
	sub $a0,$a0,$t1
__divint64_absdone_a:
	slt $t0,$a2,$zero
	beqz $t0,__divint64_absdone_b
	sub $a3,$zero,$a3
	sltu $t1,$zero,$a3
	sub $a2,$zero,$a2
	sub $a2,$a2,$t1
__divint64_absdone_b:

	move $s0,$a0
	move $s1,$a1
	move $s2,$a2
	move $s3,$a3
	li $s4,0
	li $s5,0
	li $s6,63

__divint64_bitloop:
	sllv $t0,$s0,1
	srl $t1,$s1,31
	or $t0,$t0,$t1
	sllv $s1,$s1,1
	srl $t2,$s0,31

	sllv $s4,$s4,1
	srl $t3,$s5,31
	or $s4,$s4,$t3
	sllv $s5,$s5,1
	or $s5,$s5,$t2

	move $s0,$t0

	subu $t4,$s5,$s3
	sltu $t5,$s5,$s3
	subu $t6,$s4,$s2
	subu $t6,$t6,$t5
	sltu $t7,$s4,$s2
	or $t5,$t5,$t7
	bnez $t5,__divint64_bitloop_next

	move $s4,$t6
	move $s5,$t4
	ori $s1,$s1,1

__divint64_bitloop_next:
	addiu $s6,$s6,-1
	bgez $s6,__divint64_bitloop

	move $v0,$s0
	move $v1,$s1

	beqz $t8,__divint64_ret
	sub $v1,$zero,$v1
	sltu $t1,$zero,$v1
	sub $v0,$zero,$v0
	sub $v0,$v0,$t1

__divint64_ret:
	lw $ra,0($sp)
	addiu $sp,$sp,8
	jr $ra

__sllint64:
	andi $t0,$a3,0x3F
	slti $t1,$t0,32
	beqz $t1,__sllint64_wide
	sllv $v0,$a0,$t0
	li $t2,32
	sub $t2,$t2,$t0
	srlv $t3,$a1,$t2
	or $v0,$v0,$t3
	sllv $v1,$a1,$t0
	jr $ra
__sllint64_wide:
	addiu $t0,$t0,-32
	sllv $v0,$a1,$t0
	li $v1,0
	jr $ra

__srlint64:
	andi $t0,$a3,0x3F
	slti $t1,$t0,32
	beqz $t1,__srlint64_wide
	srlv $v1,$a1,$t0
	li $t2,32
	sub $t2,$t2,$t0
	sllv $t3,$a0,$t2
	or $v1,$v1,$t3
	srlv $v0,$a0,$t0
	jr $ra
__srlint64_wide:
	addiu $t0,$t0,-32
	srlv $v1,$a0,$t0
	li $v0,0
	jr $ra

__sraint64:
	andi $t0,$a3,0x3F
	slti $t1,$t0,32
	beqz $t1,__sraint64_wide
	srlv $v1,$a1,$t0
	li $t2,32
	sub $t2,$t2,$t0
	sllv $t3,$a0,$t2
	or $v1,$v1,$t3
	srav $v0,$a0,$t0
	jr $ra
__sraint64_wide:
	addiu $t0,$t0,-32
	srav $v1,$a0,$t0
	srav $v0,$a0,31
	jr $ra
`
