package asm

// item is one preprocessed line of source. A line may define a label,
// an operation, or both at once (a label immediately followed by the
// instruction it names, as in `loop: add r1, r1, r2`).
type item struct {
	line     int
	label    string   // non-empty if this line defines a label
	mnemonic string   // non-empty if this line also carries an operation
	args     []string // raw operand tokens, not yet resolved to registers/immediates
}

func (it item) hasOp() bool {
	return it.mnemonic != ""
}
