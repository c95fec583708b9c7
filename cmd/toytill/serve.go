package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmallory/toytill/internal/moderation"
	"github.com/hmallory/toytill/internal/ratelimit"
	"github.com/hmallory/toytill/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the backend API service",
		Long: `Run the HTTP service the scanner talks to: moderated vision
classification, moderated sprite generation with a persistent cache, and a
text-moderation route. Upstream API keys are read here and never leave.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8787", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	openaiKey := viper.GetString("openai.api_key")
	if openaiKey == "" {
		return fmt.Errorf("openai.api_key is required (set it in the config file or TOYTILL_OPENAI_API_KEY)")
	}
	geminiKey := viper.GetString("gemini.api_key")
	if geminiKey == "" {
		return fmt.Errorf("gemini.api_key is required (set it in the config file or TOYTILL_GEMINI_API_KEY)")
	}
	appToken := viper.GetString("server.app_token")
	if appToken == "" {
		return fmt.Errorf("server.app_token is required (set it in the config file or TOYTILL_SERVER_APP_TOKEN)")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	moderator, err := moderation.NewOpenAIModerator(openaiKey)
	if err != nil {
		return fmt.Errorf("failed to create moderator: %w", err)
	}

	classifier, err := server.NewGeminiClassifier(ctx, geminiKey, viper.GetString("gemini.model"))
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	generator, err := server.NewOpenAIImageClient(openaiKey)
	if err != nil {
		return fmt.Errorf("failed to create image generator: %w", err)
	}

	srv, err := server.New(
		server.Config{
			Addr:     viper.GetString("server.addr"),
			AppToken: appToken,
		},
		classifier,
		generator,
		moderation.NewGate(moderator),
		store,
		ratelimit.NewGovernor(store),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Sweep expired rate buckets for the lifetime of the server.
	go ratelimit.RunPruner(ctx, store, ratelimit.DefaultPruneInterval)

	slog.Info("Starting toytill backend", "addr", viper.GetString("server.addr"))
	return srv.Run(ctx)
}
