package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/resume-screener/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the analysis, history, account and profile operations as REST endpoints.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireProvider(); err != nil {
		return err
	}

	sc := a.cfg.Server
	addr := sc.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	weights := a.cfg.Weights

	srv, err := server.New(server.Config{
		Addr:           addr,
		RateLimit:      sc.RateLimit,
		Burst:          sc.Burst,
		CORSOrigins:    sc.CORSOrigins,
		MaxUploadBytes: int64(sc.MaxUploadMB) << 20,
		Weights:        &weights,
	}, a.serverDeps())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	a.logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("provider", string(a.provider.Name())),
		zap.Bool("accounts", a.sessions.Enabled()),
		zap.Bool("signed_in", a.sessions.Token() != ""))

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
