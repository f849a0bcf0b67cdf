package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
	"github.com/pretend1111/Claude-clone-sub000/internal/chat"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/session"
	"github.com/pretend1111/Claude-clone-sub000/internal/timeline"
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "📤 Send one message and stream the reply to stdout",
	Long: `Send one message on a fresh conversation and stream the assistant's
reply to stdout. Status and thinking updates go to stderr when attached
to a terminal. Ctrl+C cancels the stream; whatever has arrived stays.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	showProgress := term.IsTerminal(int(os.Stderr.Fd()))

	client := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	store := timeline.NewStore()
	registry := session.NewRegistry()
	controller := chat.NewController(client, store, registry, cfg.Model,
		chat.WithSessionOptions(session.WithIdleTimeout(cfg.StreamIdleTimeout)),
		chat.WithTitleDelays(cfg.TitleDelays()),
	)

	// Print deltas incrementally: assistant content grows monotonically
	// while no error has superseded it, so printing the new suffix is safe.
	// An error event rewrites the content wholesale and is reported at the
	// end instead.
	var printed string
	var lastStatus string
	store.SetChangeHandler(func() {
		msg, ok := store.Last()
		if !ok || msg.Role != models.RoleAssistant {
			return
		}
		if showProgress && msg.SearchStatus != "" && msg.SearchStatus != lastStatus {
			lastStatus = msg.SearchStatus
			fmt.Fprintf(os.Stderr, "· %s\n", msg.SearchStatus)
		}
		if len(msg.Content) > len(printed) && strings.HasPrefix(msg.Content, printed) {
			fmt.Print(msg.Content[len(printed):])
			printed = msg.Content
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		controller.CancelStream()
	}()

	sess, err := controller.Send(ctx, text, nil)
	if err != nil {
		return err
	}

	state := sess.Wait()
	fmt.Println()

	switch state {
	case session.StateFailed:
		if msg, ok := store.Last(); ok {
			return fmt.Errorf("%s", strings.TrimPrefix(msg.Content, "Error: "))
		}
		return fmt.Errorf("stream failed")
	case session.StateCancelled:
		if showProgress {
			fmt.Fprintln(os.Stderr, "cancelled")
		}
	}
	return nil
}
