// Command compiler compiles a toy source file (see lang package) into
// an OSL binary, bypassing the assembler's text syntax entirely.
//
// Usage: compiler [-config file.toml] <input.src> <output.oslbin>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/kstephano-labs/oslmachine/config"
	"github.com/kstephano-labs/oslmachine/isa"
	"github.com/kstephano-labs/oslmachine/lang"
)

var configPath = flag.String("config", "", "optional TOML configuration file")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: compiler [-config file.toml] <input.src> <output.oslbin>")
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
	src, err := afero.ReadFile(fs, inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	prog, err := lang.Compile(string(src))
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

	log.WithFields(logrus.Fields{"output": outputPath, "instructions": len(prog.Words)}).Debug("compilation complete")
	fmt.Printf("Compiled %d instructions\n", len(prog.Words))
}
