package isa

import (
	"bytes"
	"testing"
)

// newTestCPU builds a CPU whose text is placed at address 0 with an
// exec-only capability over exactly those bytes, a read/write data
// capability over [128, 256), and a syscall handler writing to buf
// instead of stdout, so dispatch tests don't touch the real process stdout.
func newTestCPU(t *testing.T, text []uint16) (*CPU, *bytes.Buffer) {
	t.Helper()
	mem := NewMemory(256)
	raw := make([]byte, len(text)*2)
	for i, w := range text {
		raw[2*i] = byte(w)
		raw[2*i+1] = byte(w >> 8)
	}
	mem.StoreBytesUnchecked(0, raw)

	cpu := NewCPU(mem, nil)
	cpu.C[PCCapReg] = Capability{Base: 0, Length: uint64(len(raw)), Perms: PermExec, Valid: true}
	cpu.C[DataCapReg] = Capability{Base: 128, Length: 128, Perms: PermRead | PermWrite, Valid: true}

	var buf bytes.Buffer
	cpu.Host = NewHostSyscallsTo(cpu, &buf)
	return cpu, &buf
}

// S1: a program that immediately exits with a constant code.
func TestScenarioConstantExit(t *testing.T) {
	text := []uint16{
		Encode(OpAddi, 1, 0, 7), // r1 = r0 + 7 = 7
		Encode(OpSyscall, 0, 0, 0), // syscall number comes from r0 (=0, exit)
	}
	cpu, out := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit, got %v", trap)
	assert(t, cpu.R[1] == 7, "r1 should hold the exit code: got %d", cpu.R[1])
	assert(t, out.String() == "Program exited with code 7\n", "unexpected output: %q", out.String())
}

// S2: basic arithmetic chained through several registers.
func TestScenarioArithmetic(t *testing.T) {
	text := []uint16{
		Encode(OpAddi, 1, 0, 3),       // r1 = 3
		Encode(OpAddi, 2, 0, 4),       // r2 = 4
		Encode(OpAdd, 3, 1, 2),        // r3 = r1 + r2 = 7
		Encode(OpMul, 4, 3, 2),        // r4 = r3 * r2 = 28
		Encode(OpSub, 5, 4, 1),        // r5 = r4 - r1 = 25
		Encode(OpSyscall, 0, 0, 0),    // exit with r1 (still 3)
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit, got %v", trap)
	assert(t, cpu.R[3] == 7, "r3 = %d, want 7", cpu.R[3])
	assert(t, cpu.R[4] == 28, "r4 = %d, want 28", cpu.R[4])
	assert(t, cpu.R[5] == 25, "r5 = %d, want 25", cpu.R[5])
}

// S3: a brz-driven countdown loop.
func TestScenarioLoopViaBrz(t *testing.T) {
	// r1 = 3 (counter), r2 accumulates decrements.
	// loop: brz r1, done(+3)
	//       addi r1, r1, -1
	//       addi r2, r2, 1
	//       jmp loop(-4)
	// done: syscall exit
	text := []uint16{
		Encode(OpAddi, 1, 0, 3),
		Encode(OpBrz, 0, 1, 3),
		Encode(OpAddi, 1, 1, 0xF), // imm nibble 0xF sign-extends to -1
		Encode(OpAddi, 2, 2, 1),
		Encode(OpJmp, 0, 0, 0xC), // -4 as a 4-bit signed immediate, back to the brz check
		Encode(OpSyscall, 0, 0, 0),
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit, got %v", trap)
	assert(t, cpu.R[1] == 0, "loop should count r1 down to 0, got %d", cpu.R[1])
	assert(t, cpu.R[2] == 3, "loop should increment r2 three times, got %d", cpu.R[2])
}

// S4: a load through a capability with no read permission traps.
func TestScenarioCapabilityViolation(t *testing.T) {
	text := []uint16{
		Encode(OpLd, 1, 0, 0),
	}
	cpu, _ := newTestCPU(t, text)
	cpu.C[DataCapReg] = Capability{Base: 128, Length: 128, Perms: PermWrite, Valid: true}
	trap := cpu.Run()
	assert(t, trap.Kind == TrapCapViolation, "want CapViolation, got %v", trap)
}

// divide by zero traps and halts the run loop.
func TestDivideByZeroTraps(t *testing.T) {
	text := []uint16{
		Encode(OpAddi, 1, 0, 5),
		Encode(OpAddi, 2, 0, 0),
		Encode(OpDiv, 3, 1, 2),
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapDivideByZero, "want DivideByZero, got %v", trap)
}

// Step must neither fetch nor advance PC while a trap is already
// pending, and must leave that trap in place.
func TestStepNoOpWhenTrapAlreadyPending(t *testing.T) {
	text := []uint16{Encode(OpAddi, 1, 0, 1)}
	cpu, _ := newTestCPU(t, text)
	cpu.Pending = divideByZero()
	before := cpu.PC
	cpu.Step()
	assert(t, cpu.PC == before, "Step must not fetch or advance PC while a trap is pending")
	assert(t, cpu.Pending.Kind == TrapDivideByZero, "pending trap must be left untouched")
}

// S6: an unrecognized syscall number is logged and execution continues.
func TestScenarioUnknownSyscallContinues(t *testing.T) {
	text := []uint16{
		Encode(OpAddi, 1, 0, 9), // syscall number 9, undefined
		Encode(OpSyscall, 0, 1, 0),
		Encode(OpAddi, 2, 0, 1), // should still execute
		Encode(OpAddi, 1, 0, 0),
		Encode(OpSyscall, 0, 1, 0), // exit 0
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit after resuming past the unknown syscall, got %v", trap)
	assert(t, cpu.R[2] == 1, "execution should continue past an unknown syscall, r2 = %d", cpu.R[2])
}

func TestCallAndRet(t *testing.T) {
	// call sub(+2); after return, addi r1,r1,1; exit
	// sub: addi r2,r0,5; ret
	text := []uint16{
		Encode(OpCall, 0, 0, 2), // call PC-relative +2 instructions
		Encode(OpAddi, 1, 1, 1),
		Encode(OpSyscall, 0, 0, 0),
		Encode(OpAddi, 2, 0, 5),
		Encode(OpRet, 0, 0, 0),
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit, got %v", trap)
	assert(t, cpu.R[2] == 5, "subroutine should have run, r2 = %d", cpu.R[2])
	assert(t, cpu.R[1] == 1, "caller should resume after call, r1 = %d", cpu.R[1])
}

func TestLoadStoreRoundTripThroughCPU(t *testing.T) {
	text := []uint16{
		Encode(OpAddi, 1, 0, 9), // r1 = 9, value to store
		Encode(OpAddi, 3, 0, 1), // r3 = 1, then doubled up to the data cap's base (128)
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3),
		Encode(OpAdd, 3, 3, 3), // r3 = 128
		Encode(OpSt, 1, 3, 0),  // mem[r3+0] = r1
		Encode(OpLd, 2, 3, 0),  // r2 = mem[r3+0]
		Encode(OpSyscall, 0, 0, 0),
	}
	cpu, _ := newTestCPU(t, text)
	trap := cpu.Run()
	assert(t, trap.Kind == TrapExit, "want TrapExit, got %v", trap)
	assert(t, cpu.R[2] == 9, "load should read back the stored value, got %d", cpu.R[2])
}

func TestCapOffsetViolations(t *testing.T) {
	text := []uint16{
		Encode(OpCapOffset, 3, 2, 1), // c3 = c2 + 1
	}
	cpu, _ := newTestCPU(t, text)
	cpu.C[2] = Capability{Base: 0, Length: 4, Valid: false}
	trap := cpu.Run()
	assert(t, trap.Kind == TrapCapViolation, "offsetting an unusable capability must trap, got %v", trap)
}

func TestCapOffsetOutOfBounds(t *testing.T) {
	text := []uint16{
		Encode(OpCapOffset, 3, 2, 5), // c3 = c2 + 5, beyond length 4
	}
	cpu, _ := newTestCPU(t, text)
	cpu.C[2] = Capability{Base: 0, Length: 4, Valid: true}
	trap := cpu.Run()
	assert(t, trap.Kind == TrapOutOfBounds, "offsetting past length must trap out of bounds, got %v", trap)
}
