package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/temblorlabs/temblor/internal/api"
	"github.com/temblorlabs/temblor/internal/config"
	"github.com/temblorlabs/temblor/internal/embedding"
	"github.com/temblorlabs/temblor/internal/llm"
	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/pipeline"
)

var (
	apiPort    int
	configPath string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the decision support server",
	Long: `Start the HTTP server exposing case ingestion, decision support
reasoning, and memory retrieval endpoints.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 0, "Port the API server listens on (overrides config)")
	serverCmd.Flags().StringVar(&configPath, "config", "", "Path to an optional YAML config file")
}

func runServer(cmd *cobra.Command, args []string) {
	HandleError(setupLog(logLevelFlags), "Failed to initialize logging")
	logger := logging.GetLogger("main")

	cfg, err := config.Load(configPath)
	HandleError(err, "Failed to load configuration")
	if apiPort > 0 {
		cfg.Port = apiPort
	}

	narrative, experience, cleanup, err := buildPipelines(cfg)
	HandleError(err, "Failed to initialize pipelines")
	defer cleanup()

	server := api.NewServer(cfg.Port, narrative, experience)
	HandleError(server.Start(cmd.Context()), "Failed to start API server")
	logger.Info("temblor server ready on port %d", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

// buildPipelines assembles providers, store, and the two pipelines from
// configuration. The returned cleanup closes the store when it owns one.
func buildPipelines(cfg *config.Config) (*pipeline.NarrativePipeline, *pipeline.ExperiencePipeline, func(), error) {
	textClient, err := llm.New(llm.Config{
		Provider:     cfg.TextProvider,
		Model:        cfg.LLMModel,
		GroqKey:      cfg.GroqKey,
		OpenAIKey:    cfg.OpenAIKey,
		AnthropicKey: cfg.AnthropicKey,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("text provider: %w", err)
	}

	embedder, err := embedding.New(embedding.Config{
		Provider:  cfg.EmbeddingProvider,
		HFToken:   cfg.HFToken,
		OpenAIKey: cfg.OpenAIKey,
		GeminiKey: cfg.GeminiKey,
		CacheSize: cfg.EmbeddingCacheSize,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("embedding provider: %w", err)
	}

	var (
		store   memory.Store
		cleanup = func() {}
	)
	switch {
	case cfg.MockMode:
		store = memory.NewInProcessStore()
	case cfg.QdrantEndpoint() != "":
		store = memory.NewQdrantStore(cfg.QdrantEndpoint(), cfg.VectorStore.APIKey)
	default:
		sqliteStore, err := memory.NewSQLiteStore(cfg.VectorStore.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("vector store: %w", err)
		}
		store = sqliteStore
		cleanup = func() { _ = sqliteStore.Close() }
	}

	narrative := pipeline.NewNarrativePipeline(textClient, embedder, store)
	experience := pipeline.NewExperiencePipeline(embedder, store)
	return narrative, experience, cleanup, nil
}
