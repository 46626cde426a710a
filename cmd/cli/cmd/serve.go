package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/threaddump-analysis/internal/service"
	"github.com/threaddump-analysis/internal/webui"
)

const shutdownTimeout = 10 * time.Second

var (
	// Serve command flags
	host string
	port int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the thread dump analysis HTTP API",
	Long: `Start an HTTP server that analyzes uploaded thread dumps.

Endpoints:
  POST /api/analyze?filename=<name>  analyze the request body (gzip accepted)
  GET  /api/analyses?limit=<n>       list recent analyses
  GET  /api/analyses/{id}            fetch one analysis with its summary
  GET  /healthz                      database, storage and cache health

Analyses are stored in the database from the config file, or kept in
memory when the database is disabled.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start server with default settings
  ` + binName + ` serve

  # Use a config file and a custom port
  ` + binName + ` serve -c ./configs/config.yaml -p 9090`

	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (default: server.host from config)")
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: server.port from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	conf := GetConfig()
	if host != "" {
		conf.Server.Host = host
	}
	if port > 0 {
		conf.Server.Port = port
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(conf, log)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			log.Warn("Failed to stop service: %v", err)
		}
	}()

	server := webui.NewServer(svc, conf.Server, conf.Analysis.MaxDumpBytes, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
