package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arpel/helpdesk/internal/config"
	"github.com/arpel/helpdesk/internal/engine"
	"github.com/arpel/helpdesk/internal/ingest"
	"github.com/arpel/helpdesk/internal/recordlog"
	"github.com/arpel/helpdesk/internal/retrieval"
	"github.com/arpel/helpdesk/internal/storage"
)

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index content into the knowledge base",
	Long: `Index content into the knowledge base.

Examples:
  helpdesk ingest --file ./it-handbook.pdf
  helpdesk ingest --url https://wiki.example.com/leave-policy
  helpdesk ingest --text "VPN issues: restart the client first" --source vpn-notes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		source, _ := cmd.Flags().GetString("source")

		if text == "" && file == "" && url == "" {
			return fmt.Errorf("one of --text, --file, or --url is required")
		}
		if text != "" && source == "" {
			return fmt.Errorf("--source is required with --text")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)
		ctx := cmd.Context()

		eng := engine.NewOllama(cfg.Ollama.BaseURL)
		if !eng.IsRunning(ctx) {
			return fmt.Errorf("ollama is not reachable at %s", cfg.Ollama.BaseURL)
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		embedder := retrieval.NewEmbedder(eng, cfg.Ollama.EmbedModel)
		ingestor := ingest.New(embedder, retrieval.NewSQLiteStore(store.DB()), nil)

		var n int
		switch {
		case file != "":
			n, err = ingestor.IngestFile(ctx, file)
		case url != "":
			n, err = ingestor.IngestURL(ctx, url)
		default:
			n, err = ingestor.IngestText(ctx, source, text)
		}
		if err != nil {
			return err
		}

		printSuccess("Indexed %d chunks", n)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("text", "", "text content to index")
	ingestCmd.Flags().String("file", "", "text or PDF file to index")
	ingestCmd.Flags().String("url", "", "URL to fetch and index")
	ingestCmd.Flags().String("source", "", "source name for --text content")
}

// --- records ---

var recordsCmd = &cobra.Command{
	Use:   "records [collection]",
	Short: "Inspect session record logs",
	Long: `Inspect session record logs.

Without arguments, prints record counts per collection. With a collection
name (faq_sessions, ticket_ai, or ticket_escalations), prints its records
as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		records, err := recordlog.Open(filepath.Join(cfg.Storage.DataDir, "records"))
		if err != nil {
			return err
		}

		if len(args) == 0 {
			for _, c := range recordlog.Collections {
				printStatus(c, "%d records", records.Count(c))
			}
			return nil
		}

		collection := args[0]
		found := false
		for _, c := range recordlog.Collections {
			if c == collection {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown collection %q (valid: %v)", collection, recordlog.Collections)
		}

		entries := records.Read(collection)
		if entries == nil {
			entries = []json.RawMessage{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		eng := engine.NewOllama(cfg.Ollama.BaseURL)
		if eng.IsRunning(ctx) {
			printSuccess("ollama reachable at %s", cfg.Ollama.BaseURL)
			for _, model := range []string{cfg.Ollama.ChatModel, cfg.Ollama.EmbedModel} {
				if eng.HasModel(ctx, model) {
					printStatus(model, "available")
				} else {
					printWarning("model %s not pulled", model)
				}
			}
		} else {
			printError("ollama not reachable at %s", cfg.Ollama.BaseURL)
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			printError("storage: %v", err)
			return nil
		}
		defer store.Close()

		chunks, err := retrieval.NewSQLiteStore(store.DB()).Count()
		if err != nil {
			printError("knowledge base: %v", err)
		} else {
			printStatus("knowledge base", "%d chunks", chunks)
		}

		records, err := recordlog.Open(filepath.Join(cfg.Storage.DataDir, "records"))
		if err != nil {
			printError("record logs: %v", err)
			return nil
		}
		for _, c := range recordlog.Collections {
			printStatus(c, "%d records", records.Count(c))
		}
		return nil
	},
}
