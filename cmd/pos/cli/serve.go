package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *runtime) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := rt.logger
	container, err := app.Build(ctx, rt.cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	var inspector *asynq.Inspector
	if opts, ok := container.RedisOpts(); ok {
		inspector = asynq.NewInspector(opts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		if err := container.AuditCache.ListenForInvalidation(ctx, ""); err != nil {
			logger.Warn("audit cache invalidation listener", slog.Any("error", err))
		}
	}

	server := &http.Server{
		Addr:         rt.cfg.AppAddr,
		Handler:      app.NewRouter(app.RouterParams{Container: container, Inspector: inspector}),
		ReadTimeout:  rt.cfg.AppReadTimeout,
		WriteTimeout: rt.cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			slog.String("addr", rt.cfg.AppAddr),
			slog.String("store", rt.cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
