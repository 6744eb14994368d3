// Command bridge runs the public HTTP/SSE front door onto the game server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ClaytonMcArthur/not-kahoot/internal/bridge"
	"github.com/ClaytonMcArthur/not-kahoot/internal/config"
	"github.com/ClaytonMcArthur/not-kahoot/internal/database"
	"github.com/ClaytonMcArthur/not-kahoot/internal/user"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	tokens := user.NewTokenSigner(cfg.JWTSecret)
	users, err := user.NewSQLiteStore(ctx, db, tokens)
	if err != nil {
		return fmt.Errorf("preparing user store: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	gameServerAddr := fmt.Sprintf("%s:%d", cfg.TCPHost, cfg.TCPPort)
	srv := bridge.New(cfg.HTTPAddr, gameServerAddr, logger, users, tokens)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting bridge http server", "addr", cfg.HTTPAddr, "game_server", gameServerAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down bridge http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
