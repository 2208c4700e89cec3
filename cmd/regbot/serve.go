package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/regbot/api"
	"github.com/use-agent/regbot/batch"
	"github.com/use-agent/regbot/browser"
	"github.com/use-agent/regbot/evidence"
	"github.com/use-agent/regbot/form"
	"github.com/use-agent/regbot/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run queue over HTTP",
	Long: `Start the HTTP API. Runs submitted to POST /api/v1/runs are queued and
executed one after another on a single browser session; poll
GET /api/v1/runs/:id or pass a webhook_url to be notified.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	slog.Info("regbot starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"headless", cfg.Browser.Headless,
	)

	// ── 1. Browser session ──────────────────────────────────────────
	sess, err := browser.Launch(cfg.Browser, slog.Default())
	if err != nil {
		slog.Error("failed to start browser", "error", err)
		return err
	}
	defer sess.Close()

	// ── 2. Run queue ────────────────────────────────────────────────
	proc := form.NewProcessor(sess.Page(), cfg.Form,
		form.WithEvidence(evidence.Store{Dir: cfg.Output.ScreenshotDir, Transcripts: cfg.Output.DumpPages}),
		form.WithLogger(slog.Default()),
	)
	svc := batch.NewService(
		batch.NewRunner(proc, cfg.Form.RecordPause),
		batch.ServiceConfig{ReportDir: cfg.Output.ReportDir},
		webhook.NewSender(cfg.Webhook.Secret, slog.Default()),
		slog.Default(),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc.Start(ctx)

	// ── 3. HTTP server ──────────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(svc, cfg, time.Now(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 4. Graceful shutdown ────────────────────────────────────────
	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-errCh:
		slog.Error("HTTP server error", "error", serveErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// The worker finishes its current record and flushes queued runs.
	svc.Wait()
	slog.Info("regbot stopped")
	return serveErr
}
