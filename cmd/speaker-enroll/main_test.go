package main

import (
	"flag"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-name", "Ahmed Khalil", "-audio", "samples/ahmed.wav"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Name != "Ahmed Khalil" || cfg.AudioPath != "samples/ahmed.wav" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Position != "member" {
		t.Errorf("default position %q", cfg.Position)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{AudioPath: "a.wav"}).Validate(); err == nil {
		t.Error("missing name accepted")
	}
	if err := (Config{Name: "Ahmed"}).Validate(); err == nil {
		t.Error("missing audio accepted")
	}
}
