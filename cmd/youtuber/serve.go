package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xingyangJP/youtuberGCP/internal/httpapi"
	"github.com/xingyangJP/youtuberGCP/pkg/trigger"
)

const shutdownGrace = 15 * time.Second

func newServeCmd() *cobra.Command {
	var noTriggers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the built-in maintenance triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}

			server := httpapi.NewServer(a.store, a.manager, a.sched, a.metas, a.sora)
			server.SetLogger(a.logger)

			httpServer := &http.Server{
				Addr:    a.cfg.ListenAddr,
				Handler: server.Router(),
			}

			if !noTriggers {
				runner := trigger.NewRunner()
				runner.SetLogger(a.logger)
				runner.Add("run-schedule", trigger.Every(a.cfg.ScheduleInterval), func(ctx context.Context) error {
					_, err := a.sched.Run(ctx)
					return err
				})
				runner.Add("dispatch", trigger.Every(a.cfg.DispatchInterval), func(ctx context.Context) error {
					_, err := a.manager.Dispatch(ctx)
					return err
				})
				runner.Add("poll", trigger.Every(a.cfg.PollInterval), func(ctx context.Context) error {
					_, err := a.manager.Poll(ctx)
					return err
				})
				runner.Add("retry-uploads", trigger.Every(a.cfg.RetryInterval), func(ctx context.Context) error {
					_, err := a.manager.RetryUploads(ctx)
					return err
				})
				go runner.Run(ctx)
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "addr", a.cfg.ListenAddr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&noTriggers, "no-triggers", false, "serve HTTP only, without the built-in maintenance triggers")
	return cmd
}
