// Command emulator loads and runs an OSL binary.
//
// Usage: emulator [-config file.toml] [-debug] <program.oslbin>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kstephano-labs/oslmachine/config"
	"github.com/kstephano-labs/oslmachine/isa"
)

var (
	configPath = flag.String("config", "", "optional TOML configuration file")
	debugMode  = flag.Bool("debug", false, "enter single-step debug mode instead of running to completion")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: emulator [-config file.toml] [-debug] <program.oslbin>")
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(fs, *configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	bin, err := isa.ReadFile(fs, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	mem := isa.NewMemory(cfg.MemorySizeBytes)
	cpu := isa.NewCPU(mem, log)
	if err := isa.Load(cpu, bin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var trap isa.Trap
	if *debugMode {
		trap = runDebugREPL(cpu, log)
	} else {
		trap = cpu.Run()
	}

	if trap.Kind == isa.TrapExit {
		os.Exit(0)
	}
	fmt.Printf("Trap: %s\n", trap)
	os.Exit(1)
}
