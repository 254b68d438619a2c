// Command voiceprint-backfill extracts voice-prints for identities that
// have reference audio but no stored vector, typically after the print
// store was rebuilt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/boardstream/minuted/config"
	"github.com/boardstream/minuted/pipeline"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	root, err := config.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := pipeline.Build(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer rt.Close()
	defer rt.Log.Sync()

	if rt.VoicePrint == nil {
		fmt.Fprintln(os.Stderr, "backfill needs an embedding service (set services.embedding)")
		os.Exit(2)
	}

	n, err := pipeline.Backfill(ctx, rt.DB, rt.VoicePrint, rt.Extractor, rt.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "voiceprints_backfilled=%d\n", n)
}
