package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "📋 List conversations",
	Long: `List conversations on the server, newest first. Pass an id to
"chat --conversation" to resume one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
		convs, err := client.ListConversations(cmd.Context())
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tMODEL\tCREATED")
		for _, c := range convs {
			title := c.Title
			if title == "" {
				title = "(untitled)"
			}
			created := ""
			if c.CreatedAt != nil {
				created = c.CreatedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, title, c.Model, created)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
