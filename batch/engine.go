// Package batch runs a complete conversion pass: discovery, bounded
// parallel conversion and reporting.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"heic2jpg/codec"
	"heic2jpg/convert"
	"heic2jpg/report"
	"heic2jpg/task"
)

// ErrNoFiles is returned when discovery finds nothing to convert.
var ErrNoFiles = errors.New("no HEIC files found")

// Options describes one run. InputRoot and OutputRoot must already be
// resolved absolute paths.
type Options struct {
	InputRoot  string
	OutputRoot string
	Quality    int
	Jobs       int

	// OnDiscovered, when set, receives the number of files found before
	// any conversion starts.
	OnDiscovered func(n int)
}

// Engine holds the collaborators shared by every run.
type Engine struct {
	Decoder  codec.Decoder
	Encoder  codec.Encoder
	Throttle *codec.Throttle
	Log      *slog.Logger
}

// Run scans opts.InputRoot, converts every match with at most opts.Jobs
// conversions in flight, and reports through agg. Per-file failures are
// counted in the summary and never returned as an error. A discovery
// failure or an empty scan ends the run before anything is written.
func (e *Engine) Run(ctx context.Context, opts Options, agg *report.Aggregator) (report.Summary, error) {
	runID := shortuuid.New()
	log := e.logger().With("run", runID)

	agg.Statusf("Scanning %s for HEIC files...", opts.InputRoot)
	files, err := convert.Discover(opts.InputRoot)
	if err != nil {
		log.Error("discovery failed", "input", opts.InputRoot, "error", err)
		return report.Summary{RunID: runID, OutputRoot: opts.OutputRoot}, err
	}
	if opts.OnDiscovered != nil {
		opts.OnDiscovered(len(files))
	}
	if len(files) == 0 {
		agg.Statusf("No HEIC files found")
		return report.Summary{RunID: runID, OutputRoot: opts.OutputRoot}, ErrNoFiles
	}

	conv := &convert.Converter{
		InputRoot:  opts.InputRoot,
		OutputRoot: opts.OutputRoot,
		Quality:    opts.Quality,
		Decoder:    e.Decoder,
		Encoder:    e.Encoder,
		Throttle:   e.Throttle,
	}
	pool, err := task.NewPool(opts.Jobs, conv, log)
	if err != nil {
		return report.Summary{RunID: runID, OutputRoot: opts.OutputRoot}, err
	}

	agg.Statusf("Found %d HEIC files", len(files))
	agg.Statusf("Starting conversion with %d workers...", pool.Limit())
	log.Info("batch started", "files", len(files), "jobs", pool.Limit(), "quality", opts.Quality)

	start := time.Now()
	summary := agg.Consume(pool.Run(ctx, files), report.RunInfo{
		ID:         runID,
		OutputRoot: opts.OutputRoot,
		Started:    start,
	})

	log.Info("batch finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}
