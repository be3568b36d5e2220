package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arpel/helpdesk/internal/config"
	"github.com/arpel/helpdesk/internal/document"
	"github.com/arpel/helpdesk/internal/engine"
	"github.com/arpel/helpdesk/internal/generate"
	"github.com/arpel/helpdesk/internal/recordlog"
	"github.com/arpel/helpdesk/internal/retrieval"
	"github.com/arpel/helpdesk/internal/session"
	"github.com/arpel/helpdesk/internal/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive support session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
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

	deps := session.Deps{
		KB: kb,
		OpenDoc: func(ctx context.Context, path string) (retrieval.Index, error) {
			return document.BuildIndex(ctx, embedder, path)
		},
		Generator: generate.New(eng, cfg.Ollama.ChatModel),
		Records:   records,
		TopK:      cfg.Retrieval.TopK,
		MergeTopK: cfg.Retrieval.MergeTopK,
	}

	orch := session.NewOrchestrator(deps, session.NewPrompter(os.Stdin, os.Stdout), slog.Default())
	return orch.Run(ctx)
}
