package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Storage   StorageConfig
	Retrieval RetrievalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

type StorageConfig struct {
	DataDir string
}

type RetrievalConfig struct {
	// TopK is the passage count for single-source retrieval.
	TopK int
	// MergeTopK is the per-source passage count when knowledge base and
	// document results are merged.
	MergeTopK int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4500,
		},
		Ollama: OllamaConfig{
			BaseURL:    "http://localhost:11434",
			ChatModel:  "llama3.1",
			EmbedModel: "nomic-embed-text",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Retrieval: RetrievalConfig{
			TopK:      5,
			MergeTopK: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "helpdesk-data"
		}
	}
	return filepath.Join(dir, "helpdesk")
}

// Load reads configuration from the JSON config file and applies
// HELPDESK_* environment variable overrides on top.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
