package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kstephano-labs/oslmachine/internal/rawterm"
	"github.com/kstephano-labs/oslmachine/isa"
)

// runDebugREPL drives the CPU one step at a time, printing register
// and capability state between steps and honoring a small set of
// commands. It prefers raw single-keystroke input on a real terminal
// and falls back to line-buffered input otherwise (piped stdin, tests).
func runDebugREPL(cpu *isa.CPU, log logrus.FieldLogger) isa.Trap {
	fmt.Println("Commands: n/next, r/run, b <pc>: toggle breakpoint, p/program state, q/quit")

	restore, rawErr := rawterm.Enable(int(os.Stdin.Fd()))
	if rawErr == nil {
		defer restore()
	}

	reader := bufio.NewReader(os.Stdin)
	breakpoints := make(map[uint64]struct{})
	running := false

	printState(cpu)
	for {
		if !running {
			cmd := readCommand(reader, rawErr == nil)
			switch {
			case cmd == "n" || cmd == "next" || cmd == "":
				// fallthrough to single step below
			case cmd == "r" || cmd == "run":
				running = true
			case cmd == "p" || cmd == "program":
				printState(cpu)
				continue
			case cmd == "q" || cmd == "quit":
				return isa.Trap{}
			case strings.HasPrefix(cmd, "b"):
				toggleBreakpoint(cmd, breakpoints)
				continue
			default:
				fmt.Println("unknown command:", cmd)
				continue
			}
		} else if _, hit := breakpoints[cpu.PC]; hit {
			running = false
			fmt.Println("breakpoint hit")
			printState(cpu)
			continue
		}

		cpu.Step()
		if cpu.Pending.Kind == isa.TrapSyscall {
			n := cpu.Pending.Number
			cpu.Pending = isa.Trap{}
			if err := cpu.Host.Handle(n); err != nil {
				log.WithError(err).Error("syscall handler failed")
				return isa.Trap{Kind: isa.TrapIllegalInstruction}
			}
		}
		if !running {
			printState(cpu)
		}

		if cpu.Pending.Terminal() {
			return cpu.Pending
		}
	}
}

func readCommand(reader *bufio.Reader, raw bool) string {
	fmt.Print("-> ")
	if raw {
		b, err := reader.ReadByte()
		if err != nil {
			return "q"
		}
		cmd := string(b)
		if cmd == "b" || cmd == "B" {
			// a breakpoint command carries an address: read to end of line
			for {
				c, err := reader.ReadByte()
				if err != nil || c == '\r' || c == '\n' {
					break
				}
				cmd += string(c)
			}
		}
		return strings.ToLower(cmd)
	}
	line, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(line))
}

func toggleBreakpoint(cmd string, breakpoints map[uint64]struct{}) {
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(cmd, "break"), "b"))
	pc, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		fmt.Println("invalid breakpoint address:", arg)
		return
	}
	if _, ok := breakpoints[pc]; ok {
		delete(breakpoints, pc)
		fmt.Printf("breakpoint at %#x removed\n", pc)
	} else {
		breakpoints[pc] = struct{}{}
		fmt.Printf("breakpoint at %#x set\n", pc)
	}
}

func printState(cpu *isa.CPU) {
	fmt.Printf("pc=%#x pending=%s\n", cpu.PC, cpu.Pending)
	fmt.Println("registers>", cpu.R)
	fmt.Printf("capabilities> %+v\n", cpu.C)
}
