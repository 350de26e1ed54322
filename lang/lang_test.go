package lang

import (
	"testing"

	"github.com/kstephano-labs/oslmachine/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestCompileSimpleReturn(t *testing.T) {
	prog, err := Compile("fn main() -> int { return 7 }")
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(prog.Words) == 3, "want 3 words, got %d", len(prog.Words))

	i0 := isa.Decode(prog.Words[0])
	assert(t, i0.Op == isa.OpAddi && i0.Rd == 2 && i0.Rs1 == 0 && i0.Imm8 == 7, "unexpected const load: %+v", i0)

	i1 := isa.Decode(prog.Words[1])
	assert(t, i1.Op == isa.OpAddi && i1.Rd == 1 && i1.Rs1 == 2 && i1.Imm8 == 0, "unexpected move into r1: %+v", i1)

	i2 := isa.Decode(prog.Words[2])
	assert(t, i2.Op == isa.OpSyscall && i2.Rs1 == 0, "unexpected exit syscall: %+v", i2)
}

func TestCompileAlwaysMovesIntoR1(t *testing.T) {
	// The naive allocator starts at r2, so even a bare literal return
	// needs the trailing move into r1 before the exit syscall.
	prog, err := Compile("fn f() -> int { return 1 }")
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(prog.Words) == 3, "want 3 words (const, move to r1, exit), got %d", len(prog.Words))
}

func TestCompileLetAndArithmetic(t *testing.T) {
	src := `
		fn main() -> int {
			let a = 3 + 4
			return a
		}
	`
	prog, err := Compile(src)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(prog.Words) == 5, "want 5 words, got %d", len(prog.Words))

	add := isa.Decode(prog.Words[2])
	assert(t, add.Op == isa.OpAdd && add.Rd == 4 && add.Rs1 == 2 && add.Rs2() == 3, "unexpected add: %+v", add)

	move := isa.Decode(prog.Words[3])
	assert(t, move.Op == isa.OpAddi && move.Rd == 1 && move.Rs1 == 4 && move.Imm8 == 0, "unexpected move into r1: %+v", move)
}

func TestCompileLeftToRightNoPrecedence(t *testing.T) {
	// 2 + 3 * 4 must evaluate strictly left to right: (2+3)*4 = 20,
	// not the conventional-precedence 14.
	src := `fn main() -> int { return 2 + 3 * 4 }`
	prog, err := Compile(src)
	assert(t, err == nil, "unexpected error: %v", err)

	add := isa.Decode(prog.Words[2])
	assert(t, add.Op == isa.OpAdd, "expected the first fold to be +, got %+v", add)
	mul := isa.Decode(prog.Words[4])
	assert(t, mul.Op == isa.OpMul, "expected the second fold to be *, got %+v", mul)
}

func TestCompileVariableReferenceDoesNotAllocateNewRegister(t *testing.T) {
	src := `
		fn main() -> int {
			let a = 5
			let b = a
			return b
		}
	`
	prog, err := Compile(src)
	assert(t, err == nil, "unexpected error: %v", err)
	// const 5 into r2, then move r2->r1, then exit: `let b = a` should
	// not materialize a second register since it is a pure alias.
	assert(t, len(prog.Words) == 3, "want 3 words (alias should not cost a register), got %d", len(prog.Words))
}

func TestCompileUndefinedVariableRejected(t *testing.T) {
	_, err := Compile("fn main() -> int { return missing }")
	assert(t, err != nil, "referencing an undefined variable must be rejected")
}

func TestCompileMissingReturnRejected(t *testing.T) {
	_, err := Compile("fn main() -> int { let a = 1 }")
	assert(t, err != nil, "a function body with no return statement must be rejected")
}

func TestCompileOutOfRangeConstantRejected(t *testing.T) {
	_, err := Compile("fn main() -> int { return 100 }")
	assert(t, err != nil, "a constant outside the 4-bit immediate window must be rejected")
}

func TestCompileTooManyTemporariesRejected(t *testing.T) {
	src := "fn main() -> int {\n"
	for i := 0; i < 20; i++ {
		src += "let a = 1\n"
	}
	src += "return a\n}\n"
	// each `let a = 1` redefines the same source name but still lowers
	// to a fresh temp, so this should eventually exhaust r2..r14.
	_, err := Compile(src)
	assert(t, err != nil, "exceeding the naive allocator's register window must be rejected")
}

func TestParseRejectsMultipleFunctions(t *testing.T) {
	src := `
		fn a() -> int { return 1 }
		fn b() -> int { return 2 }
	`
	_, err := Parse(src)
	assert(t, err != nil, "the toy compiler supports only a single function per compilation unit")
}
