// Command intervals-mcp-server serves Intervals.icu training data over
// the Model Context Protocol, fronted by an embedded OAuth 2.1
// authorization server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/intervalsmcp/intervals-mcp-server/internal/auth"
	"github.com/intervalsmcp/intervals-mcp-server/internal/config"
	"github.com/intervalsmcp/intervals-mcp-server/internal/intervals"
	"github.com/intervalsmcp/intervals-mcp-server/internal/logging"
	"github.com/intervalsmcp/intervals-mcp-server/internal/mcpserver"
	"github.com/intervalsmcp/intervals-mcp-server/internal/server"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info("intervals-mcp-server starting",
		slog.String("version", Version),
		slog.String("base_url", cfg.BaseURL),
		slog.String("jwt_algorithm", cfg.JWTAlgorithm),
	)

	if cfg.MCPAPIKey == "" {
		logger.Warn("MCP_API_KEY is not set, unauthenticated requests will be allowed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	issuer, err := auth.NewTokenIssuer(cfg.JWTAlgorithm, cfg.JWTSecretKey, cfg.BaseURL, cfg.Audience)
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	store := auth.NewStore(cfg.ClientsFile, logger)
	defer store.Stop()

	client := intervals.NewClient(cfg.IntervalsAPIBaseURL, cfg.AthleteID, cfg.IntervalsAPIKey, logger)

	mcpServer := mcp.NewServer(
		&mcp.Implementation{Name: "intervals-mcp-server", Version: Version},
		nil,
	)
	mcpserver.RegisterTools(mcpServer, client)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	mux := server.NewMux(server.MuxConfig{
		Config:     cfg,
		Store:      store,
		Issuer:     issuer,
		MCPHandler: mcpHandler,
		Logger:     logger,
		Version:    Version,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("listen", cfg.Addr()),
			slog.String("base_url", cfg.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
