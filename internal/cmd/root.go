package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pretend1111/Claude-clone-sub000/internal/config"
	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cchat",
	Short: "💬 cchat - streaming assistant chat client",
	Long: `cchat is a terminal client for a streaming conversational assistant.

It reconstructs the conversation timeline from the server's incremental
event stream, supports cancelling a reply mid-stream, and can edit or
resend earlier messages, replaying the conversation from that point.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		if model != "" {
			cfg.Model = model
		}
		logger.Configure(cfg.LogLevel, cfg.Dev)
		return nil
	},
}

var (
	serverURL string
	model     string
)

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Chat backend base URL")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model for new conversations")
}
