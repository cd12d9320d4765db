package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/temblorlabs/temblor/internal/api"
	"github.com/temblorlabs/temblor/internal/config"
	"github.com/temblorlabs/temblor/internal/logging"
)

var mockPort int

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start the server with mock providers",
	Long: `Start the server with the deterministic mock LLM and embedder and an
in-process vector store. No API keys or external services required;
useful for demos and frontend development.`,
	Run: runMock,
}

func init() {
	mockCmd.Flags().IntVar(&mockPort, "api-port", config.DefaultPort, "Port the API server listens on")
}

func runMock(cmd *cobra.Command, args []string) {
	HandleError(setupLog(logLevelFlags), "Failed to initialize logging")
	logger := logging.GetLogger("main")

	cfg := &config.Config{
		Port:              mockPort,
		MockMode:          true,
		TextProvider:      "mock",
		EmbeddingProvider: "mock",
	}

	narrative, experience, cleanup, err := buildPipelines(cfg)
	HandleError(err, "Failed to initialize pipelines")
	defer cleanup()

	server := api.NewServer(cfg.Port, narrative, experience)
	HandleError(server.Start(cmd.Context()), "Failed to start API server")
	logger.Info("temblor mock server ready on port %d", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}
