package isa

// dispatch executes the semantics of one decoded instruction. PC has
// already been advanced past the instruction word (§4.3 rule 3), so
// every PC-relative computation below is relative to PC+2 as the
// caller already added.
func (c *CPU) dispatch(i Instruction) {
	switch i.Op {
	case OpAdd:
		c.R[i.Rd] = c.R[i.Rs1] + c.R[i.Rs2()]
	case OpAddi:
		c.R[i.Rd] = c.R[i.Rs1] + uint64(i.Imm8)
	case OpDiv:
		if c.R[i.Rs2()] == 0 {
			c.Pending = divideByZero()
			return
		}
		c.R[i.Rd] = c.R[i.Rs1] / c.R[i.Rs2()]
	case OpSub:
		c.R[i.Rd] = c.R[i.Rs1] - c.R[i.Rs2()]
	case OpMul:
		c.R[i.Rd] = c.R[i.Rs1] * c.R[i.Rs2()]
	case OpLd:
		addr := c.R[i.Rs1] + uint64(i.Imm8)
		val, trap := c.Mem.Load64(addr, c.C[DataCapReg])
		if trap.Kind != TrapNone {
			c.Pending = trap
			return
		}
		c.R[i.Rd] = val
	case OpSt:
		// Value register is the middle (Rd) slot, address base is Rs1,
		// immediate is the low nibble. Encoder and decoder must agree
		// on this layout; see asm/encoder.go.
		addr := c.R[i.Rs1] + uint64(i.Imm8)
		trap := c.Mem.Store64(addr, c.R[i.Rd], c.C[DataCapReg])
		if trap.Kind != TrapNone {
			c.Pending = trap
			return
		}
	case OpBr:
		if c.R[i.Rs1] == c.R[i.Rd] {
			c.PC = uint64(int64(c.PC) + int64(i.Imm8)*2)
		}
	case OpBrz:
		if c.R[i.Rs1] == 0 {
			c.PC = uint64(int64(c.PC) + int64(i.Imm8)*2)
		}
	case OpJmp:
		c.PC = c.branchTarget(i)
	case OpCall:
		c.R[LinkRegister] = c.PC
		c.PC = c.branchTarget(i)
	case OpRet:
		c.PC = c.R[LinkRegister]
	case OpSyscall:
		c.Pending = syscallTrap(c.R[i.Rs1])
	case OpCapNull:
		c.C[i.Rd] = NullCapability()
	case OpCapCopy:
		c.C[i.Rd] = c.C[i.Rs1]
	case OpCapOffset:
		src := c.C[i.Rs1]
		if !src.Usable() {
			c.Pending = capViolation()
			return
		}
		newOffset := uint64(int64(src.Offset) + int64(i.Imm8))
		if !src.InBounds(newOffset, 0) {
			c.Pending = outOfBounds()
			return
		}
		c.C[i.Rd] = src.WithOffset(newOffset)
	default:
		c.Pending = illegalInstruction()
	}
}

// branchTarget implements the jmp/call target rule shared by both
// opcodes: rs1==0 means PC-relative (PC has already advanced by 2),
// otherwise register-indirect plus the immediate. call sets R[15] to
// the return address first, then resolves its target the same way.
func (c *CPU) branchTarget(i Instruction) uint64 {
	if i.Rs1 == 0 {
		return uint64(int64(c.PC) + int64(i.Imm8)*2)
	}
	return uint64(int64(c.R[i.Rs1]) + int64(i.Imm8))
}
