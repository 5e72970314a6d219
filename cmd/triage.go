package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpmorgenthal/gmail-mcp-server/internal/classify"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/gmail"
	"github.com/jpmorgenthal/gmail-mcp-server/internal/triage"
)

func newTriageCmd() *cobra.Command {
	var (
		account       string
		debugMode     bool
		ollamaURL     string
		ollamaModel   string
		ollamaTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Triage unread inbox emails with the local model",
		Long: `Run one triage pass over the unread inbox: fetch each unread message,
decode it, mark it as read, classify it through the local Ollama model and
apply the resulting label. Prints one outcome record per processed email
as JSON on stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logLevel := slog.LevelInfo
			if debugMode {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

			client, err := gmail.NewClientForAccount(ctx, account)
			if err != nil {
				return fmt.Errorf("failed to create Gmail client for account %s: %w", account, err)
			}

			classifier := classify.NewOllamaClassifier(
				stringFromEnv(ollamaURL, "OLLAMA_URL"),
				stringFromEnv(ollamaModel, "OLLAMA_MODEL"),
				ollamaTimeout,
			)

			pipeline := triage.NewPipeline(client, classifier, logger)
			outcomes, err := pipeline.Run(ctx)
			if err != nil {
				return fmt.Errorf("triage run failed: %w", err)
			}

			data, err := json.MarshalIndent(outcomes, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode outcomes: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use (default: 'default')")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&ollamaURL, "ollama-url", "", "Ollama API endpoint. Can also use OLLAMA_URL env var. Default: "+classify.DefaultEndpoint)
	cmd.Flags().StringVar(&ollamaModel, "ollama-model", "", "Ollama model. Can also use OLLAMA_MODEL env var. Default: "+classify.DefaultModel)
	cmd.Flags().DurationVar(&ollamaTimeout, "ollama-timeout", classify.DefaultTimeout, "Timeout for a single classification request")

	return cmd
}
