package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"heic2jpg/api"
	"heic2jpg/batch"
)

func newServeCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the batch conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configFile)
		},
	}
	cmd.Flags().String("port", "8080", "Port to listen on")
	cmd.Flags().IntP("quality", "q", 90, "Default JPEG quality for submitted batches")
	cmd.Flags().IntP("jobs", "j", 4, "Default number of parallel workers per batch")
	return cmd
}

func runServe(cmd *cobra.Command, configFile string) error {
	cfg, log, err := setup(cmd, configFile)
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	manager, err := batch.NewManager(engine, cfg.MaxBatches, log)
	if err != nil {
		return err
	}

	router := api.SetupRouter(manager, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx := cmd.Context()
	manager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")

	// The server has 5 seconds to finish the requests it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server exiting")
	return nil
}
