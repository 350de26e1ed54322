package isa

import "fmt"

// Op is one of the sixteen 4-bit opcodes. Anything outside 0x0-0xF is
// not representable and decodes to an IllegalInstruction trap.
type Op uint8

const (
	OpAdd       Op = 0x0
	OpAddi      Op = 0x1
	OpDiv       Op = 0x2
	OpSub       Op = 0x3
	OpMul       Op = 0x4
	OpLd        Op = 0x5
	OpSt        Op = 0x6
	OpBr        Op = 0x7
	OpBrz       Op = 0x8
	OpJmp       Op = 0x9
	OpCall      Op = 0xA
	OpRet       Op = 0xB
	OpSyscall   Op = 0xC
	OpCapNull   Op = 0xD
	OpCapCopy   Op = 0xE
	OpCapOffset Op = 0xF
)

var opNames = map[Op]string{
	OpAdd: "add", OpAddi: "addi", OpDiv: "div", OpSub: "sub", OpMul: "mul",
	OpLd: "ld", OpSt: "st", OpBr: "br", OpBrz: "brz", OpJmp: "jmp",
	OpCall: "call", OpRet: "ret", OpSyscall: "syscall",
	OpCapNull: "cap.null", OpCapCopy: "cap.copy", OpCapOffset: "cap.offset",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("?op(%#x)?", uint8(o))
}

// Instruction is a fully decoded 16-bit word: opcode, destination
// register, first source register, and the low nibble reinterpreted
// per opcode either as a second source register or a sign-extended
// 4-bit immediate.
type Instruction struct {
	Op   Op
	Rd   uint8
	Rs1  uint8
	Low  uint8 // raw low nibble, 0-15
	Imm8 int8  // Low sign-extended from 4 to 8 bits
}

// Rs2 reinterprets the low nibble as a second source register index,
// for opcodes that use it that way (add, sub, mul, div). br does not:
// its second compared register sits in the Rd field.
func (i Instruction) Rs2() uint8 { return i.Low }

// signExtend4 sign-extends a 4-bit value (0-15) to an int8.
func signExtend4(nibble uint8) int8 {
	n := nibble & 0xF
	if n&0x8 != 0 {
		return int8(n) - 16
	}
	return int8(n)
}

// Encode packs an opcode and its three 4-bit fields into a 16-bit
// little-endian-on-disk word. Every field is masked to its low 4 bits;
// range-checking imm4 is the caller's job (asm/encoder.go does so first).
func Encode(op Op, rd, rs1, imm4 uint8) uint16 {
	return (uint16(op)&0xF)<<12 | (uint16(rd)&0xF)<<8 | (uint16(rs1)&0xF)<<4 | (uint16(imm4) & 0xF)
}

// Decode unpacks a 16-bit word into its four 4-bit fields.
// decode(encode(x)) == x for every legal (op, rd, rs1, low) tuple,
// with Imm8 always recomputed as the sign extension of Low.
func Decode(word uint16) Instruction {
	op := Op((word >> 12) & 0xF)
	rd := uint8((word >> 8) & 0xF)
	rs1 := uint8((word >> 4) & 0xF)
	low := uint8(word & 0xF)
	return Instruction{Op: op, Rd: rd, Rs1: rs1, Low: low, Imm8: signExtend4(low)}
}

// ValidOp reports whether op falls in the defined 0x0-0xF range.
func ValidOp(op Op) bool {
	_, ok := opNames[op]
	return ok
}
