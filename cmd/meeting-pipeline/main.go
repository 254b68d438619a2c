// Command meeting-pipeline registers and processes board-meeting
// recordings: transcription, diarization, speaker attribution, and
// report generation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/config"
	"github.com/boardstream/minuted/pipeline"
	"github.com/boardstream/minuted/store"
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

	var meetingIDs []uuid.UUID
	if cfg.AudioPath != "" {
		m, err := rt.DB.CreateMeeting(ctx, cfg.Title, cfg.AudioPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		meetingIDs = append(meetingIDs, m.ID)
	}
	if cfg.Pending {
		pending, err := rt.DB.ListMeetingsByStatus(ctx, store.StatusPending)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		for _, m := range pending {
			if cfg.AudioPath != "" && m.ID == meetingIDs[0] {
				continue
			}
			meetingIDs = append(meetingIDs, m.ID)
		}
	}
	if len(meetingIDs) == 0 {
		fmt.Fprintln(os.Stderr, "no meetings to process")
		os.Exit(0)
	}

	jobs := make([]*pipeline.Job, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		jobs = append(jobs, rt.Queue.Enqueue(ctx, id))
	}
	rt.Queue.Wait()

	var processed, failed int
	for _, job := range jobs {
		if job.Status() != pipeline.JobSucceeded {
			failed++
			fmt.Fprintf(os.Stderr, "meeting %s failed: %v\n", job.MeetingID, job.Err())
			continue
		}
		processed++
		if cfg.ReportDir != "" {
			path, err := pipeline.ExportReportMarkdown(ctx, rt.DB, job.MeetingID, cfg.ReportDir)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				continue
			}
			fmt.Fprintf(os.Stdout, "report=%s\n", path)
		}
	}

	fmt.Fprintf(os.Stdout, "meetings_processed=%d meetings_failed=%d db=%s\n", processed, failed, root.DBPath)
	if failed > 0 {
		os.Exit(1)
	}
}
