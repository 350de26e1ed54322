package isa

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const (
	// SyscallExit prints the exit message and installs TrapExit.
	SyscallExit = 0
	// SyscallPrintInt prints R[1] in decimal followed by a newline.
	SyscallPrintInt = 1
	// SyscallPrintCString reads a NUL-terminated string starting at
	// R[1] through C[DataCapReg] and prints it.
	SyscallPrintCString = 2
)

// SyscallHandler services a Syscall trap once the CPU's Run loop has
// drained it. n is the syscall number, already read from R[rs1] during
// execution (§4.7).
type SyscallHandler interface {
	Handle(n uint64) error
}

// hostSyscalls is the default SyscallHandler: the three syscalls in
// §4.7 plus a logged-and-ignored default for anything else.
type hostSyscalls struct {
	cpu *CPU
	out *bufio.Writer
}

// NewHostSyscalls builds the default host syscall layer, writing to
// stdout (the caller passes its own CPU so the handler can read
// registers and raise the exit trap).
func NewHostSyscalls(cpu *CPU) SyscallHandler {
	return &hostSyscalls{cpu: cpu, out: bufio.NewWriter(os.Stdout)}
}

// NewHostSyscallsTo builds a host syscall layer writing to an
// arbitrary io.Writer, used by tests to capture output.
func NewHostSyscallsTo(cpu *CPU, w io.Writer) SyscallHandler {
	return &hostSyscalls{cpu: cpu, out: bufio.NewWriter(w)}
}

func (h *hostSyscalls) Handle(n uint64) error {
	defer h.out.Flush()

	switch n {
	case SyscallExit:
		fmt.Fprintf(h.out, "Program exited with code %d\n", h.cpu.R[1])
		h.cpu.Pending = exitTrap()
	case SyscallPrintInt:
		fmt.Fprintf(h.out, "%d\n", h.cpu.R[1])
	case SyscallPrintCString:
		s, trap := h.readCString(h.cpu.R[1])
		if trap.Kind != TrapNone {
			h.cpu.Pending = trap
			return nil
		}
		fmt.Fprint(h.out, s)
	default:
		h.cpu.Log.WithField("syscall", n).Warnf("Unknown syscall %d", n)
	}
	return nil
}

// readCString reads bytes one at a time through C[DataCapReg] starting
// at addr until a NUL, per §4.7. Capability failures propagate as a
// returned trap rather than an error so the caller can install them as
// the CPU's pending trap exactly like any other memory fault.
func (h *hostSyscalls) readCString(addr uint64) (string, Trap) {
	var out []byte
	for {
		b, trap := h.cpu.Mem.Load8(addr, h.cpu.C[DataCapReg])
		if trap.Kind != TrapNone {
			return "", trap
		}
		if b == 0 {
			break
		}
		out = append(out, b)
		addr++
	}
	return string(out), Trap{}
}
