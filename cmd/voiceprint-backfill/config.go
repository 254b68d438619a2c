package main

import (
	"flag"
	"os"
	"path/filepath"
)

type Config struct {
	ConfigPath string
}

func (c Config) Validate() error {
	return nil
}

func defaultConfig() Config {
	return Config{}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to YAML pipeline config (default: built-in defaults + env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
	}
	return cfg, nil
}
