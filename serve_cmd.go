package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/voidlabs/narrator/internal/config"
	"github.com/voidlabs/narrator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the narrator API server",
	Long: paragraph(
		"\nServes the narration API: chat completion via OpenRouter and speech synthesis via Kokoro.",
	),
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "narrator",
		})
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(lvl)
		}

		llm := server.NewOpenRouterClient(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.Model, cfg.MaxTokens, cfg.LLMTimeout)
		tts := server.NewKokoroClient(cfg.KokoroURL, cfg.HFAPIKey, cfg.Voice, cfg.Speed, cfg.TTSTimeout)
		metrics := server.NewMetrics("narrator")
		api := server.New(cfg, llm, tts, metrics, logger)

		httpServer := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.ListenAddr, "tts_configured", cfg.TTSConfigured())
			errCh <- httpServer.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	},
}
