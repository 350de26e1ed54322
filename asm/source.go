package asm

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/spf13/afero"
)

// AssembleFile reads path from fs and assembles it, mirroring the
// teacher's file-reading CompileSource but against an afero.Fs so
// callers (and tests) can substitute an in-memory filesystem.
func AssembleFile(fs afero.Fs, path string, debug bool) (Program, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Program{}, fmt.Errorf("asm: reading %s: %w", path, err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Program{}, fmt.Errorf("asm: reading %s: %w", path, err)
	}

	return AssembleLines(lines, debug)
}
