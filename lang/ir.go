package lang

import "fmt"

type irKind int

const (
	irConst irKind = iota
	irBinOp
)

// irInstr is one three-address IR operation: a destination temp plus
// either a constant to materialize or a binary operation over two
// already-defined temps.
type irInstr struct {
	kind  irKind
	dst   string
	op    byte // '+', '-', '*', '/' for irBinOp
	a, b  string
	value int64 // for irConst
}

// irProgram is the flat sequence of IR instructions lowered from a
// function body, plus the name of the temp holding its return value.
type irProgram struct {
	instrs []irInstr
	result string
}

// lower walks a parsed Function's straight-line body (lets and a final
// return) and produces three-address IR. Variables are aliased to
// whichever temp already holds their value rather than copied, so a
// `let` never forces a fresh register beyond what its expression needed.
func lower(fn *Function) (*irProgram, error) {
	vars := make(map[string]string)
	var instrs []irInstr
	fresh := newTempNamer()

	var result string
	haveReturn := false
	for _, stmt := range fn.Body {
		name, emitted, err := lowerExpr(stmt.Expr, vars, fresh)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, emitted...)

		if stmt.IsReturn {
			result = name
			haveReturn = true
			break // a return ends the straight-line body
		}
		vars[stmt.Name] = name
	}
	if !haveReturn {
		return nil, fmt.Errorf("lang: function %q has no return statement", fn.Name)
	}

	return &irProgram{instrs: instrs, result: result}, nil
}

func newTempNamer() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%%t%d", n)
	}
}

// lowerExpr lowers one expression chain (a term followed by zero or
// more `op term` links, left to right, no precedence) into IR
// instructions, returning the name of the temp holding the result.
func lowerExpr(e *Expr, vars map[string]string, fresh func() string) (string, []irInstr, error) {
	var instrs []irInstr

	cur, err := lowerTerm(e, vars, fresh, &instrs)
	if err != nil {
		return "", nil, err
	}

	for e.Next != nil {
		rhs, err := lowerTerm(e.Next, vars, fresh, &instrs)
		if err != nil {
			return "", nil, err
		}
		dst := fresh()
		instrs = append(instrs, irInstr{kind: irBinOp, dst: dst, op: e.Op, a: cur, b: rhs})
		cur = dst
		e = e.Next
	}

	return cur, instrs, nil
}

func lowerTerm(e *Expr, vars map[string]string, fresh func() string, instrs *[]irInstr) (string, error) {
	if e.IsNumber {
		dst := fresh()
		*instrs = append(*instrs, irInstr{kind: irConst, dst: dst, value: e.Value})
		return dst, nil
	}
	temp, ok := vars[e.Name]
	if !ok {
		return "", fmt.Errorf("lang: undefined variable %q", e.Name)
	}
	return temp, nil
}
