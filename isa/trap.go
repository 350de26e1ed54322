package isa

import "fmt"

// TrapKind enumerates the synchronous faults and the syscall signal a
// CPU step can raise. There is at most one pending trap on a CPU at a
// time (see CPU.Pending in cpu.go); it must be observed before the next
// step runs.
type TrapKind int

const (
	// TrapNone means there is no pending trap.
	TrapNone TrapKind = iota
	// TrapIllegalInstruction is raised for an opcode outside 0x0-0xF,
	// and returned by Run when the host syscall handler fails. The exit
	// syscall installs TrapExit, not this kind.
	TrapIllegalInstruction
	// TrapCapViolation is raised when a memory access fails the
	// usability or permission check.
	TrapCapViolation
	// TrapOutOfBounds is raised when a memory access fails the bounds
	// or host-bounds check.
	TrapOutOfBounds
	// TrapDivideByZero is raised by div when the divisor is zero.
	TrapDivideByZero
	// TrapSyscall carries a syscall number and is the only resumable
	// trap: the outer Run loop drains it, invokes the host syscall
	// handler, and continues.
	TrapSyscall
	// TrapExit is the sentinel the exit syscall installs to break the
	// Run loop. It is terminal but not an error: the CLI driver
	// checks for it specifically to choose exit code 0 and suppress
	// the "Trap: <name>" diagnostic (§4.3, §6).
	TrapExit
)

func (k TrapKind) String() string {
	switch k {
	case TrapNone:
		return "None"
	case TrapIllegalInstruction:
		return "Illegal Instruction"
	case TrapCapViolation:
		return "Capability Violation"
	case TrapOutOfBounds:
		return "Out Of Bounds"
	case TrapDivideByZero:
		return "Divide By Zero"
	case TrapSyscall:
		return "Syscall"
	case TrapExit:
		return "Exit"
	default:
		return "Unknown Trap"
	}
}

// Trap is the pending-fault value held by a CPU. A zero Trap (Kind ==
// TrapNone) means nothing is pending.
type Trap struct {
	Kind   TrapKind
	Number uint64 // meaningful only when Kind == TrapSyscall
}

// Terminal reports whether this trap ends the run loop outright
// (anything other than a syscall request).
func (t Trap) Terminal() bool {
	return t.Kind != TrapNone && t.Kind != TrapSyscall
}

func (t Trap) String() string {
	if t.Kind == TrapSyscall {
		return fmt.Sprintf("Syscall(%d)", t.Number)
	}
	return t.Kind.String()
}

func illegalInstruction() Trap { return Trap{Kind: TrapIllegalInstruction} }
func capViolation() Trap       { return Trap{Kind: TrapCapViolation} }
func outOfBounds() Trap        { return Trap{Kind: TrapOutOfBounds} }
func divideByZero() Trap       { return Trap{Kind: TrapDivideByZero} }
func syscallTrap(n uint64) Trap {
	return Trap{Kind: TrapSyscall, Number: n}
}

func exitTrap() Trap { return Trap{Kind: TrapExit} }
