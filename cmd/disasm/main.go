// Command disasm decodes an OSL binary's text section back into
// mnemonic form: a header summary line, then one instruction per line
// prefixed by its address (text_base plus its byte offset).
//
// Usage: disasm <program.oslbin>
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/kstephano-labs/oslmachine/isa"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: disasm <program.oslbin>")
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	bin, err := isa.ReadFile(fs, os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("entry=%#x text_base=%#x text_size=%d data_base=%#x data_size=%d\n",
		bin.Header.Entry, bin.Header.TextBase, bin.Header.TextSize, bin.Header.DataBase, bin.Header.DataSize)

	for off := 0; off+2 <= len(bin.Text); off += 2 {
		word := binary.LittleEndian.Uint16(bin.Text[off:])
		instr := isa.Decode(word)
		fmt.Printf("%#06x: %s\n", bin.Header.TextBase+uint64(off), formatInstruction(instr))
	}
}

// formatInstruction renders a decoded instruction as assembly text.
// It mirrors the raw field layout rather than re-deriving mnemonic
// argument order, since the decoder has already lost which encoder
// convention (e.g. st's value-in-rd placement) produced the word.
func formatInstruction(i isa.Instruction) string {
	return fmt.Sprintf("%-6s rd=%d rs1=%d low=%d imm=%d", i.Op, i.Rd, i.Rs1, i.Low, i.Imm8)
}
