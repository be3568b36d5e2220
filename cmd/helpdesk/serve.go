package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/arpel/helpdesk/internal/api"
	"github.com/arpel/helpdesk/internal/config"
	"github.com/arpel/helpdesk/internal/engine"
	"github.com/arpel/helpdesk/internal/ingest"
	"github.com/arpel/helpdesk/internal/recordlog"
	"github.com/arpel/helpdesk/internal/retrieval"
	"github.com/arpel/helpdesk/internal/storage"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the management HTTP server (and optionally the MCP server)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also expose the MCP server on stdio")
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.NewOllama(cfg.Ollama.BaseURL)
	if err := engine.EnsureReady(ctx, eng, cfg.Ollama.ChatModel, cfg.Ollama.EmbedModel, os.Stderr); err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()

	records, err := recordlog.Open(filepath.Join(cfg.Storage.DataDir, "records"))
	if err != nil {
		return fmt.Errorf("opening record logs: %w", err)
	}

	embedder := retrieval.NewEmbedder(eng, cfg.Ollama.EmbedModel)
	vectors := retrieval.NewSQLiteStore(store.DB())
	kb := retrieval.NewRetriever(embedder, vectors)
	ingestor := ingest.New(embedder, vectors, nil)

	handler := api.NewHandler(api.Deps{
		KB:       kb,
		Records:  records,
		Ingestor: ingestor,
		Vectors:  vectors,
		TopK:     cfg.Retrieval.TopK,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if serveMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			KB:       kb,
			Records:  records,
			Ingestor: ingestor,
			TopK:     cfg.Retrieval.TopK,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "helpdesk listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
