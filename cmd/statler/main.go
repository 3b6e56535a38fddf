// Statler MCP server: a nitpicky systems architect backed by a local
// Ollama server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/statler-mcp/statler/internal/config"
	"github.com/statler-mcp/statler/internal/llm/ollama"
	"github.com/statler-mcp/statler/internal/mcpserver"
	"github.com/statler-mcp/statler/internal/metrics"
	"github.com/statler-mcp/statler/internal/review"
)

const personality = `Meet Statler, Your Nitpicky Systems Architect:

Statler is a highly experienced systems architect with decades of experience.
He's known for:

✓ Being extremely detail-oriented
✓ Having strong opinions about code quality
✓ Catching issues others miss
✓ Being grumpy but ultimately helpful
✓ Focusing on security, performance, and maintainability

His reviews are thorough and sometimes harsh, but always constructive.
He wants your code to be the best it can be!

"That's the worst code I've seen today... but I've seen worse." - Statler`

func main() {
	logger, err := config.NewLogger(config.LoadLog())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadOllama(logger)
	if err != nil {
		logger.Fatal("configuration failed", zap.Error(err))
	}

	architect := review.NewArchitect(ollama.New(cfg, logger), logger, metrics.New())
	defer architect.Close()

	srv := mcpserver.New(mcpserver.Persona{
		ServerName:  "Statler MCP",
		DisplayName: "Statler",
		ToolName:    "statler_architect",
		Scheme:      "statler",
		ToolDescription: "Get a critical review from Statler, the nitpicky systems architect. " +
			"Statler reviews code or architectural plans with a critical eye, identifying " +
			"security vulnerabilities, performance issues, design flaws, and suggesting " +
			"improvements. He's grumpy but helpful!",
		Personality: personality,
	}, architect, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting Statler MCP server",
		zap.String("api_base", cfg.BaseURL),
		zap.String("model", cfg.Model),
	)

	if err := run(ctx, srv, logger); err != nil {
		logger.Fatal("server terminated", zap.Error(err))
	}
	logger.Info("shutting down Statler MCP server")
}

func run(ctx context.Context, srv *mcpserver.Server, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })

	if addr := config.MetricsAddr(); addr != "" {
		ms := &http.Server{Addr: addr, Handler: metrics.Handler()}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", addr))
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
