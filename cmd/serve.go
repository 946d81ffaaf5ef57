package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/server"
	"github.com/abhisek/quizgen/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides QUIZGEN_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		GenerateLimit:      server.RateLimit{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow},
		OptionsPerQuestion: cfg.OptionsPerQuestion,
		CORSOrigins:        cfg.CORSOrigins,
		Logger:             logger,
	}

	var events store.EventRepo
	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
		opts.Quizzes = s.QuizRepo()
		opts.Results = s.ResultRepo()
		events = s.EventRepo()
	} else {
		logger.Info("no database configured, persistence disabled")
	}

	p, err := buildPipeline(ctx, cfg, logger, events)
	if err != nil {
		return err
	}
	defer p.Close()
	opts.Generator = p.generator
	opts.Limiter = p.limiter

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(opts).Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
