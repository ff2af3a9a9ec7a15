// Command api runs the solution HTTP service; it is what `routeframe serve`
// runs, packaged for containers.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"routeframe/internal/cli"
	"routeframe/internal/config"
	"routeframe/internal/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		logging.LogError(logger, "failed to listen", err, slog.String("addr", cfg.Server.Addr))
		os.Exit(1)
	}
	if err := cli.Serve(ctx, cfg, logger, ln); err != nil {
		logging.LogError(logger, "server error", err)
		os.Exit(1)
	}
}
