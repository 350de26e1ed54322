package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kstephano-labs/oslmachine/isa"
)

var mnemonicToOp = map[string]isa.Op{
	"add": isa.OpAdd, "addi": isa.OpAddi, "div": isa.OpDiv, "sub": isa.OpSub,
	"mul": isa.OpMul, "ld": isa.OpLd, "st": isa.OpSt, "br": isa.OpBr,
	"brz": isa.OpBrz, "jmp": isa.OpJmp, "call": isa.OpCall, "ret": isa.OpRet,
	"syscall": isa.OpSyscall, "cap.null": isa.OpCapNull, "cap.copy": isa.OpCapCopy,
	"cap.offset": isa.OpCapOffset,
}

// Program is the result of a successful assembly: the encoded text
// words and, if requested, a map from byte-PC to the text of the
// instruction there: its mnemonic and comma-joined operands, without the
// line's label, comment or original spacing.
type Program struct {
	Words       []uint16
	DebugSymbol map[uint64]string
}

// Bytes returns the program's text section as little-endian bytes,
// ready to place in an isa.Binary's Text field.
func (p Program) Bytes() []byte {
	out := make([]byte, len(p.Words)*2)
	for i, w := range p.Words {
		out[2*i] = byte(w)
		out[2*i+1] = byte(w >> 8)
	}
	return out
}

// AssembleLines runs the two-pass assembler over raw source lines:
// comments and whitespace stripped, labels resolved to byte-PCs in pass
// 1, then instructions encoded in pass 2 (§4.5). debug requests that a
// symbol map from byte-PC to each instruction's normalized text be
// returned alongside the encoded words.
func AssembleLines(lines []string, debug bool) (Program, error) {
	items, err := preprocess(lines)
	if err != nil {
		return Program{}, err
	}
	if len(items) == 0 {
		return Program{}, fmt.Errorf("asm: no source lines given")
	}

	labels := make(map[string]uint64)
	ops := make([]item, 0, len(items))
	var pc uint64
	for _, it := range items {
		if it.label != "" {
			if _, dup := labels[it.label]; dup {
				return Program{}, fmt.Errorf("asm: line %d: duplicate label %q", it.line, it.label)
			}
			labels[it.label] = pc
		}
		if !it.hasOp() {
			continue
		}
		ops = append(ops, it)
		pc += 2
	}

	var debugSym map[uint64]string
	if debug {
		debugSym = make(map[uint64]string, len(ops))
	}

	words := make([]uint16, 0, len(ops))
	pc = 0
	for _, it := range ops {
		word, err := encodeOp(it, labels, pc)
		if err != nil {
			return Program{}, err
		}
		words = append(words, word)
		if debugSym != nil {
			debugSym[pc] = fmt.Sprintf("%s %s", it.mnemonic, strings.Join(it.args, ", "))
		}
		pc += 2
	}

	return Program{Words: words, DebugSymbol: debugSym}, nil
}

// encodeOp resolves one operation's arguments against the label map and
// encodes it, dispatching on the argument shapes laid out in §4.5.
func encodeOp(it item, labels map[string]uint64, pc uint64) (uint16, error) {
	op, ok := mnemonicToOp[it.mnemonic]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: unknown mnemonic %q", it.line, it.mnemonic)
	}

	switch op {
	case isa.OpRet:
		return requireArgs(it, 0, func([]string) (uint16, error) {
			return isa.Encode(op, 0, 0, 0), nil
		})
	case isa.OpSyscall:
		return requireArgs(it, 1, func(a []string) (uint16, error) {
			rs1, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, 0, rs1, 0), nil
		})
	case isa.OpCapNull:
		return requireArgs(it, 1, func(a []string) (uint16, error) {
			rd, err := parseCap(it, a[0])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rd, 0, 0), nil
		})
	case isa.OpCapCopy:
		return requireArgs(it, 2, func(a []string) (uint16, error) {
			rd, err := parseCap(it, a[0])
			if err != nil {
				return 0, err
			}
			rs1, err := parseCap(it, a[1])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rd, rs1, 0), nil
		})
	case isa.OpCapOffset:
		return requireArgs(it, 3, func(a []string) (uint16, error) {
			rd, err := parseCap(it, a[0])
			if err != nil {
				return 0, err
			}
			rs1, err := parseCap(it, a[1])
			if err != nil {
				return 0, err
			}
			imm, err := parseLiteralImm(it, a[2])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rd, rs1, imm), nil
		})
	case isa.OpBrz:
		return requireArgs(it, 2, func(a []string) (uint16, error) {
			rs1, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			imm, err := resolveImmOrLabel(it, a[1], labels, pc)
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, 0, rs1, imm), nil
		})
	case isa.OpBr:
		return requireArgs(it, 3, func(a []string) (uint16, error) {
			// §4.5: rs1 set in the rs1 field, rs2 in the rd field.
			rs1, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			rs2, err := parseReg(it, a[1])
			if err != nil {
				return 0, err
			}
			imm, err := resolveImmOrLabel(it, a[2], labels, pc)
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rs2, rs1, imm), nil
		})
	case isa.OpJmp, isa.OpCall:
		// the offset is optional: a bare `jmp r5`/`call r5` is the
		// register-indirect form with no additional displacement.
		if len(it.args) != 1 && len(it.args) != 2 {
			return 0, fmt.Errorf("asm: line %d: %s wants 1 or 2 argument(s), got %d", it.line, it.mnemonic, len(it.args))
		}
		rs1, err := parseReg(it, it.args[0])
		if err != nil {
			return 0, err
		}
		var imm uint8
		if len(it.args) == 2 {
			imm, err = resolveImmOrLabel(it, it.args[1], labels, pc)
			if err != nil {
				return 0, err
			}
		}
		return isa.Encode(op, 0, rs1, imm), nil
	case isa.OpSt:
		// value register goes in the rd slot, address register in rs1,
		// immediate in the low nibble.
		return requireArgs(it, 3, func(a []string) (uint16, error) {
			valueReg, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			addrReg, err := parseReg(it, a[1])
			if err != nil {
				return 0, err
			}
			imm, err := parseLiteralImm(it, a[2])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, valueReg, addrReg, imm), nil
		})
	case isa.OpLd, isa.OpAddi:
		return requireArgs(it, 3, func(a []string) (uint16, error) {
			rd, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			rs1, err := parseReg(it, a[1])
			if err != nil {
				return 0, err
			}
			imm, err := parseLiteralImm(it, a[2])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rd, rs1, imm), nil
		})
	default: // add, div, sub, mul: rd, rs1, rs2
		return requireArgs(it, 3, func(a []string) (uint16, error) {
			rd, err := parseReg(it, a[0])
			if err != nil {
				return 0, err
			}
			rs1, err := parseReg(it, a[1])
			if err != nil {
				return 0, err
			}
			rs2, err := parseReg(it, a[2])
			if err != nil {
				return 0, err
			}
			return isa.Encode(op, rd, rs1, rs2), nil
		})
	}
}

func requireArgs(it item, want int, fn func([]string) (uint16, error)) (uint16, error) {
	if len(it.args) != want {
		return 0, fmt.Errorf("asm: line %d: %s wants %d argument(s), got %d", it.line, it.mnemonic, want, len(it.args))
	}
	return fn(it.args)
}

func parseReg(it item, tok string) (uint8, error) {
	if len(tok) < 2 || tok[0] != 'r' {
		return 0, fmt.Errorf("asm: line %d: expected register token (rN), got %q", it.line, tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 15 {
		return 0, fmt.Errorf("asm: line %d: invalid register %q", it.line, tok)
	}
	return uint8(n), nil
}

func parseCap(it item, tok string) (uint8, error) {
	if len(tok) < 2 || tok[0] != 'c' {
		return 0, fmt.Errorf("asm: line %d: expected capability token (cN), got %q", it.line, tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 7 {
		return 0, fmt.Errorf("asm: line %d: invalid capability register %q", it.line, tok)
	}
	return uint8(n), nil
}

// parseLiteralImm parses tok as a decimal or 0x-prefixed hex integer
// literal and range-checks it against the 4-bit signed immediate window.
func parseLiteralImm(it item, tok string) (uint8, error) {
	base := 10
	s := tok
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "-0x") {
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		s = strings.TrimPrefix(s, "0x")
		base = 16
		if neg {
			s = "-" + s
		}
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("asm: line %d: invalid immediate %q", it.line, tok)
	}
	return packImm(it, n)
}

// resolveImmOrLabel resolves a branch/jump target token that may be
// either a plain signed integer immediate or a label name, which is
// converted to the instruction-relative offset (label_pc - (pc+2)) / 2.
func resolveImmOrLabel(it item, tok string, labels map[string]uint64, pc uint64) (uint8, error) {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return packImm(it, n)
	}
	target, ok := labels[tok]
	if !ok {
		return 0, fmt.Errorf("asm: line %d: undefined label %q", it.line, tok)
	}
	delta := int64(target) - int64(pc+2)
	if delta%2 != 0 {
		return 0, fmt.Errorf("asm: line %d: label %q is not instruction-aligned relative to this branch", it.line, tok)
	}
	return packImm(it, delta/2)
}

// packImm range-checks n against the 4-bit signed window [-8, 7] and
// packs it into the low nibble the encoder expects.
func packImm(it item, n int64) (uint8, error) {
	if n < -8 || n > 7 {
		return 0, fmt.Errorf("asm: line %d: target too far (offset %d, must fit in [-8,7])", it.line, n)
	}
	return uint8(n) & 0xF, nil
}
