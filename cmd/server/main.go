// Legal Assistant chat server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/running-machin/legal-advice-bot/internal/assistant"
	"github.com/running-machin/legal-advice-bot/internal/classifier"
	"github.com/running-machin/legal-advice-bot/internal/config"
	"github.com/running-machin/legal-advice-bot/internal/generator"
	"github.com/running-machin/legal-advice-bot/internal/llm"
	"github.com/running-machin/legal-advice-bot/internal/observability"
	"github.com/running-machin/legal-advice-bot/internal/search"
	"github.com/running-machin/legal-advice-bot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "legal-assistant",
	Short:         "Legal information chat assistant",
	Long:          `Answers legal questions using an OpenAI-compatible completion API and Tavily web search.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil {
			slog.Info("No .env file found, using environment variables")
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		})))
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askStream, "stream", false, "Print progress and answer chunks as they are produced.")
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// newPipeline wires the upstream clients around the given history store.
func newPipeline(cfg *config.Config, history store.HistoryStore, metrics *observability.Metrics) *assistant.Pipeline {
	completer := llm.NewOpenAI(cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.Model, cfg.UpstreamTimeout)
	tavily := search.NewTavily(cfg.Tavily.APIKey, cfg.Tavily.BaseURL, cfg.UpstreamTimeout)

	return assistant.New(
		classifier.New(completer),
		search.NewRetriever(tavily),
		generator.New(completer),
		history,
		metrics,
	)
}
