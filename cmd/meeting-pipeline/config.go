package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
)

type Config struct {
	ConfigPath string
	AudioPath  string
	Title      string
	Pending    bool
	ReportDir  string
}

func (c Config) Validate() error {
	if c.AudioPath == "" && !c.Pending {
		return errors.New("nothing to do: pass -audio or -pending")
	}
	if c.Title != "" && c.AudioPath == "" {
		return errors.New("-title requires -audio")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Pending: false,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to YAML pipeline config (default: built-in defaults + env)")
	fs.StringVar(&cfg.AudioPath, "audio", "", "Register a new meeting from this recording and process it")
	fs.StringVar(&cfg.Title, "title", "", "Title for the meeting registered via -audio")
	fs.BoolVar(&cfg.Pending, "pending", cfg.Pending, "Process every meeting currently in the pending state")
	fs.StringVar(&cfg.ReportDir, "report-dir", "", "Also export each processed meeting's report as markdown into this directory")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
	}
	if cfg.AudioPath != "" {
		cfg.AudioPath = filepath.Clean(cfg.AudioPath)
	}
	if cfg.ReportDir != "" {
		cfg.ReportDir = filepath.Clean(cfg.ReportDir)
	}
	return cfg, nil
}
