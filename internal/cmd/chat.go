package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pretend1111/Claude-clone-sub000/internal/tui"
)

var conversationID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "🖥️  Open the interactive chat TUI",
	Long: `Open the interactive chat TUI.

Without --conversation a new conversation is created by the first send.
Unsent input is kept as a draft and restored on the next visit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(cfg, conversationID)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Resume an existing conversation by id")
}
