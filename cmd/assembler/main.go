// Command assembler turns a .asm source file into an OSL binary.
//
// Usage: assembler [-config file.toml] [-debug] <input.asm> <output.oslbin>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kstephano-labs/oslmachine/asm"
	"github.com/kstephano-labs/oslmachine/config"
	"github.com/kstephano-labs/oslmachine/isa"
)

var (
	configPath = flag.String("config", "", "optional TOML configuration file")
	debugSym   = flag.Bool("debug", false, "record source-line debug symbols alongside the encoded program")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: assembler [-config file.toml] [-debug] <input.asm> <output.oslbin>")
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

	inputPath, outputPath := args[0], args[1]
	prog, err := asm.AssembleFile(fs, inputPath, *debugSym)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bin := isa.Binary{
		Header: isa.Header{
			Entry:    cfg.TextBase,
			TextBase: cfg.TextBase,
			TextSize: uint64(len(prog.Words) * 2),
			DataBase: cfg.DataBase,
			DataSize: 0,
		},
		Text: prog.Bytes(),
	}

	if err := isa.WriteFile(fs, outputPath, bin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{"output": outputPath, "instructions": len(prog.Words)}).Debug("assembly complete")
	fmt.Printf("Assembled %d instructions\n", len(prog.Words))
}
