package lang

import "fmt"

// firstTempReg and lastTempReg bound the naive allocator's register
// window: r0 is left pre-zeroed by convention, r1 is reserved for the
// return value (§4.8).
const (
	firstTempReg = 2
	lastTempReg  = 14
)

// allocateRegisters assigns each distinct temp name in prog a physical
// register in r2..r14, in order of first definition, never reusing a
// register once assigned. This limits straight-line programs to at
// most 13 live temporaries, which is an accepted limitation of this
// toy compiler and not a defect to fix.
func allocateRegisters(prog *irProgram) (map[string]uint8, error) {
	regs := make(map[string]uint8)
	next := firstTempReg

	assign := func(name string) error {
		if _, ok := regs[name]; ok {
			return nil
		}
		if next > lastTempReg {
			return fmt.Errorf("lang: too many live temporaries (limit is %d)", lastTempReg-firstTempReg+1)
		}
		regs[name] = uint8(next)
		next++
		return nil
	}

	for _, instr := range prog.instrs {
		if err := assign(instr.dst); err != nil {
			return nil, err
		}
	}
	return regs, nil
}
