package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/internal/config"
	"github.com/dshills/docassist/internal/mcpserver"
	"github.com/dshills/docassist/internal/rag"
	"github.com/dshills/docassist/internal/vecindex"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("DocAssist MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vecindex.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vecindex.DriverName)
		os.Exit(0)
	}

	// Log startup info to stderr (stdout reserved for MCP protocol)
	log.SetOutput(os.Stderr)
	log.Printf("DocAssist MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", vecindex.BuildMode, vecindex.DriverName)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	embedder, generator, err := buildCapability(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize capability provider: %v", err)
	}

	svc, err := rag.New(cfg, embedder, generator)
	if err != nil {
		log.Fatalf("Failed to assemble service: %v", err)
	}

	srv := mcpserver.NewServer(svc)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// loadConfig resolves the config path from the environment and fills
// the data directory default under the user's home.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("DOCASSIST_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".docassist", "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.DataDir == "" || cfg.DataDir == "./data" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".docassist", "data")
	}
	return cfg, nil
}

// buildCapability creates the embedding and generation provider. Without
// an API key the server still runs: ingestion and retrieval use a
// deterministic offline embedder, and answer generation reports a
// capability error.
func buildCapability(cfg *config.Config) (capability.Embedder, capability.Generator, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		log.Printf("No API key in %s; running with the offline embedder, answer generation disabled",
			cfg.Capability.APIKeyEnv)
		return capability.NewMock(capability.OpenAIDimension), nil, nil
	}

	provider, err := capability.NewOpenAIProvider(capability.OpenAIConfig{
		BaseURL:        cfg.Capability.BaseURL,
		APIKey:         apiKey,
		EmbeddingModel: cfg.Capability.EmbeddingModel,
		ChatModel:      cfg.Capability.ChatModel,
		Timeout:        time.Duration(cfg.Capability.TimeoutSecs) * time.Second,
	}, capability.NewCache(4096))
	if err != nil {
		return nil, nil, err
	}
	return provider, provider, nil
}
