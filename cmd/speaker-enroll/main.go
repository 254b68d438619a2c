// Command speaker-enroll registers a meeting participant with a
// reference voice recording so later meetings can attribute their turns.
package main

import (
	"context"
	"errors"
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
		fmt.Fprintln(os.Stderr, "enrollment needs an embedding service (set services.embedding)")
		os.Exit(2)
	}

	enroller := pipeline.NewEnroller(rt.DB, rt.VoicePrint, rt.Extractor, rt.Thresholds.Registration, rt.Log)
	identity, err := enroller.Enroll(ctx, cfg.Name, cfg.Position, cfg.AudioPath)
	if errors.Is(err, pipeline.ErrDuplicateVoice) {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(3)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "identity=%s name=%q position=%q\n", identity.ID, identity.Name, identity.Position)
}
