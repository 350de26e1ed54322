package lang

import (
	"fmt"

	"github.com/kstephano-labs/oslmachine/asm"
	"github.com/kstephano-labs/oslmachine/isa"
)

const returnReg = 1

// Compile parses, lowers, allocates registers for, and encodes src into
// a straight-line sequence of 16-bit words compatible with §4.4. The
// toy language supports exactly one function; its body is a chain of
// `let` bindings and a closing `return`, with r0 assumed pre-zeroed by
// the caller exactly as the emulator's own example programs assume.
func Compile(src string) (asm.Program, error) {
	fn, err := Parse(src)
	if err != nil {
		return asm.Program{}, err
	}
	prog, err := lower(fn)
	if err != nil {
		return asm.Program{}, err
	}
	regs, err := allocateRegisters(prog)
	if err != nil {
		return asm.Program{}, err
	}

	var words []uint16
	for _, instr := range prog.instrs {
		word, err := encodeIR(instr, regs)
		if err != nil {
			return asm.Program{}, err
		}
		words = append(words, word)
	}

	resultReg := regs[prog.result]
	if resultReg != returnReg {
		words = append(words, isa.Encode(isa.OpAddi, returnReg, resultReg, 0))
	}
	words = append(words, isa.Encode(isa.OpSyscall, 0, 0, 0))

	return asm.Program{Words: words}, nil
}

func encodeIR(instr irInstr, regs map[string]uint8) (uint16, error) {
	dst := regs[instr.dst]

	switch instr.kind {
	case irConst:
		if instr.value < -8 || instr.value > 7 {
			return 0, fmt.Errorf("lang: constant %d is out of range for this toy compiler (must fit in [-8,7])", instr.value)
		}
		return isa.Encode(isa.OpAddi, dst, 0, uint8(instr.value)&0xF), nil
	case irBinOp:
		a, ok := regs[instr.a]
		if !ok {
			return 0, fmt.Errorf("lang: internal error: operand %q has no assigned register", instr.a)
		}
		b, ok := regs[instr.b]
		if !ok {
			return 0, fmt.Errorf("lang: internal error: operand %q has no assigned register", instr.b)
		}
		op, err := binOpcode(instr.op)
		if err != nil {
			return 0, err
		}
		return isa.Encode(op, dst, a, b), nil
	default:
		return 0, fmt.Errorf("lang: internal error: unknown IR instruction kind")
	}
}

func binOpcode(op byte) (isa.Op, error) {
	switch op {
	case '+':
		return isa.OpAdd, nil
	case '-':
		return isa.OpSub, nil
	case '*':
		return isa.OpMul, nil
	case '/':
		return isa.OpDiv, nil
	default:
		return 0, fmt.Errorf("lang: unknown operator %q", string(op))
	}
}
