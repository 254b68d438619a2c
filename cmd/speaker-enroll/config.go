package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
)

type Config struct {
	ConfigPath string
	Name       string
	Position   string
	AudioPath  string
}

func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("missing -name")
	}
	if c.AudioPath == "" {
		return errors.New("missing -audio")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Position: "member",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to YAML pipeline config (default: built-in defaults + env)")
	fs.StringVar(&cfg.Name, "name", "", "Participant's full name")
	fs.StringVar(&cfg.Position, "position", cfg.Position, "Participant's role on the board")
	fs.StringVar(&cfg.AudioPath, "audio", "", "Reference recording of the participant's voice")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
	}
	if cfg.AudioPath != "" {
		cfg.AudioPath = filepath.Clean(cfg.AudioPath)
	}
	return cfg, nil
}
