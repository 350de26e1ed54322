package asm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// comments matches a `;` to end of line.
var comments = regexp.MustCompile(`;.*`)

func isLabelToken(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsSpace)
}

// preprocessLine strips comments and whitespace from one line of source
// and classifies it: a bare label (`loop:`), a label immediately
// followed by an operation on the same line (`loop: add r1, r1, r2`),
// a bare operation, or blank. Blank lines return a zero item that the
// caller should skip.
func preprocessLine(lineNum int, raw string) (item, error) {
	line := comments.ReplaceAllString(raw, "")
	line = strings.TrimSpace(line)
	if line == "" {
		return item{}, nil
	}

	var label string
	if idx := strings.Index(line, ":"); idx >= 0 {
		candidate := line[:idx]
		if !isLabelToken(candidate) {
			return item{}, fmt.Errorf("line %d: invalid label %q", lineNum, raw)
		}
		label = candidate
		line = strings.TrimSpace(line[idx+1:])
	}

	if line == "" {
		return item{line: lineNum, label: label}, nil
	}

	fields := strings.SplitN(line, " ", 2)
	mnemonic := strings.ToLower(strings.TrimSpace(fields[0]))
	var args []string
	if len(fields) == 2 {
		for _, a := range strings.Split(fields[1], ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				args = append(args, a)
			}
		}
	}
	return item{line: lineNum, label: label, mnemonic: mnemonic, args: args}, nil
}

// preprocess runs preprocessLine over every source line, dropping blank
// lines and surfacing the first error encountered.
func preprocess(lines []string) ([]item, error) {
	items := make([]item, 0, len(lines))
	for i, raw := range lines {
		it, err := preprocessLine(i+1, raw)
		if err != nil {
			return nil, err
		}
		if it.label == "" && it.mnemonic == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
