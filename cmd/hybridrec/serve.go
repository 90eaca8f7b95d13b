package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/api"
)

func newServeCmd(c *cli) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP recommendation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c, rebuild)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "rebuild models and catalog before serving (always done for in-memory backends)")
	return cmd
}

func runServe(ctx context.Context, c *cli, rebuild bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c.settings, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.warmup(ctx, rebuild); err != nil {
		return err
	}

	ss := c.settings.Server
	opts := api.Options{
		Recommender:   a.recommender,
		Collaborative: a.collaborative,
		Content:       a.content,
		AdminToken:    ss.AdminToken,
		Gatherer:      a.registry,
		Logger:        c.logger,
		MaxTopN:       ss.MaxTopN,
		RateLimit:     ss.RateLimit,
		RateWindow:    ss.RateWindow,
		TrustProxy:    ss.TrustProxy,
	}
	if a.rebuilder != nil {
		opts.Rebuilder = a.rebuilder
	}
	srv := &http.Server{
		Addr:         ss.Addr,
		Handler:      api.NewRouter(opts),
		ReadTimeout:  ss.ReadTimeout,
		WriteTimeout: ss.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info().Str("addr", ss.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ss.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
