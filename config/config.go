// Package config loads the optional TOML configuration file accepted
// by the assembler, compiler and emulator (-config flag): memory size,
// default section bases for the emitted header, and log verbosity.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Config is the top-level shape of the optional TOML file. Without a
// config file the tools use Default(); a file only overrides the fields
// it sets (see Load).
type Config struct {
	MemorySizeBytes int    `toml:"memory_size_bytes"`
	TextBase        uint64 `toml:"text_base"`
	DataBase        uint64 `toml:"data_base"`
	LogLevel        string `toml:"log_level"`
}

// Default returns the configuration used when no -config flag is given.
func Default() Config {
	return Config{
		MemorySizeBytes: 4 * 1024 * 1024,
		TextBase:        0x1000,
		DataBase:        0x2000,
		LogLevel:        "info",
	}
}

// Load reads and decodes path on fs, starting from Default() so a
// config file only needs to set the fields it wants to override.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
