// Command workflowd runs the agent workflow orchestration daemon: it boots
// the storage layer, the engine, and the HTTP API, then serves until killed.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"reach/workflowd/internal/api"
	"reach/workflowd/internal/config"
	"reach/workflowd/internal/engine"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/telemetry"
	"reach/workflowd/internal/workspace"

	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	ws := workspace.NewManager(cfg.DataRoot)

	eng := engine.New(store, ws, log)

	ctx := context.Background()
	if err := eng.EnsureDefaultTools(ctx); err != nil {
		return fmt.Errorf("seeding default tools: %w", err)
	}
	if cfg.Reload {
		log.Info("reload requested, default tool registry re-checked")
	}

	server := api.NewServer(eng, log)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	log.Info("workflowd listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, server.Handler())
}
