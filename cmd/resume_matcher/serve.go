package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server exposing /v1/scan, /v1/scan/stream, /v1/keywords, /health and /metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	h := a.cfg.HTTP
	if servePort > 0 {
		h.Port = servePort
	}
	cfg := server.Config{
		Port:            h.Port,
		ReadTimeout:     time.Duration(h.ReadTimeoutSec) * time.Second,
		WriteTimeout:    time.Duration(h.WriteTimeoutSec) * time.Second,
		ShutdownTimeout: time.Duration(h.ShutdownSec) * time.Second,
		MaxBodyBytes:    int64(h.MaxBodyBytes),
		RateLimit:       a.cfg.RateLimitConfig(),
	}
	return server.New(cfg, a.scanner, a.metrics, a.health, a.logger).Run(ctx)
}
