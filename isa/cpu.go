package isa

import (
	"github.com/sirupsen/logrus"
)

const (
	numGeneralRegisters    = 16
	numCapabilityRegisters = 8

	// LinkRegister is r15, written by call and read by ret by
	// convention only; there is no hardware enforcement.
	LinkRegister = 15
	// PCCapReg is c1, consulted by every instruction fetch.
	PCCapReg = 1
	// DataCapReg is c2, consulted by every load/store.
	DataCapReg = 2
)

// CPU holds all architectural state: the register file, the capability
// file, the program counter, and at most one pending trap.
type CPU struct {
	R  [numGeneralRegisters]uint64
	C  [numCapabilityRegisters]Capability
	PC uint64

	Pending Trap

	Mem *Memory
	Log logrus.FieldLogger

	// Host is consulted by Run when draining a Syscall trap. See
	// isa/syscall.go for the default implementation.
	Host SyscallHandler
}

// NewCPU creates a CPU over the given memory with all registers and
// capabilities zeroed (the null capability). Callers typically follow
// this with Load (isa/binary.go) to populate memory and boot
// capabilities before calling Run.
func NewCPU(mem *Memory, log logrus.FieldLogger) *CPU {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cpu := &CPU{Mem: mem, Log: log}
	cpu.Host = NewHostSyscalls(cpu)
	return cpu
}

// Step executes at most one instruction. If a trap is already pending
// it returns immediately without fetching or dispatching (§4.3 step
// rule 1). Otherwise it fetches through C[PCCapReg], advances PC by 2
// before dispatch (so branch targets are relative to PC+2), decodes,
// and dispatches to the opcode handler in isa/exec.go.
func (c *CPU) Step() {
	if c.Pending.Kind != TrapNone {
		return
	}

	word, trap := c.Mem.Fetch16(c.PC, c.C[PCCapReg])
	if trap.Kind != TrapNone {
		c.Pending = trap
		return
	}

	c.PC += 2
	instr := Decode(word)
	if !ValidOp(instr.Op) {
		c.Pending = illegalInstruction()
		return
	}

	c.dispatch(instr)
}

// Run drives the CPU to completion: while no terminal trap is pending,
// drain the pending trap (if Syscall, invoke the host handler and
// continue; anything terminal stops the loop and is returned). Step is
// called once per iteration when nothing is pending.
func (c *CPU) Run() Trap {
	for {
		if c.Pending.Kind == TrapSyscall {
			n := c.Pending.Number
			c.Pending = Trap{}
			if err := c.Host.Handle(n); err != nil {
				c.Log.WithError(err).WithField("syscall", n).Error("syscall handler failed")
				return illegalInstruction()
			}
			continue
		}
		if c.Pending.Terminal() {
			return c.Pending
		}

		c.Step()
	}
}
