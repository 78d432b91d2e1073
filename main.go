// heic2jpg/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"heic2jpg/batch"
	"heic2jpg/codec"
	"heic2jpg/config"
	"heic2jpg/logging"
	"heic2jpg/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "heic2jpg:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "heic2jpg -i <input> -o <output>",
		Short:         "Bulk HEIC to JPG converter",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, configFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("decode-cmd", codec.DefaultDecodeCommand, "Command that writes the decoded image to stdout")
	rootCmd.PersistentFlags().Int("max-dimension", 0, "Downscale so the longest edge is at most this many pixels (0 keeps size)")

	flags := rootCmd.Flags()
	flags.StringP("input", "i", "", "Input directory containing HEIC files")
	flags.StringP("output", "o", "", "Output directory for JPG files")
	flags.IntP("quality", "q", 90, "JPEG quality (1-100)")
	flags.IntP("jobs", "j", 4, "Number of parallel workers")

	rootCmd.AddCommand(newServeCommand(&configFile))
	return rootCmd
}

func runConvert(cmd *cobra.Command, configFile string) error {
	cfg, log, err := setup(cmd, configFile)
	if err != nil {
		return err
	}

	input, output, err := config.ResolveRoots(cfg.Input, cfg.Output)
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	_, err = engine.Run(ctx, batch.Options{
		InputRoot:  input,
		OutputRoot: output,
		Quality:    cfg.Quality,
		Jobs:       cfg.Jobs,
	}, newAggregator(cmd))
	return err
}

// setup loads and validates configuration and builds the diagnostic logger.
func setup(cmd *cobra.Command, configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, nil, err
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	return cfg, log, nil
}

func newEngine(cfg *config.Config, log *slog.Logger) (*batch.Engine, error) {
	decoder, err := codec.NewExecDecoder(cfg.DecodeCmd, cfg.MaxInputSize)
	if err != nil {
		return nil, err
	}
	return &batch.Engine{
		Decoder: decoder,
		Encoder: codec.JPEGEncoder{MaxDimension: cfg.MaxDimension},
		Throttle: &codec.Throttle{
			MinFreeMem:  cfg.ThrottleFreeMem,
			MinFreeDisk: cfg.ThrottleFreeDisk,
			Log:         log,
		},
		Log: log,
	}, nil
}

func newAggregator(cmd *cobra.Command) *report.Aggregator {
	return report.NewAggregator(cmd.OutOrStdout())
}
