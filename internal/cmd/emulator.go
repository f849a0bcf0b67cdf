package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pretend1111/Claude-clone-sub000/internal/emulator"
	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
)

var emulatorAddr string

var emulatorCmd = &cobra.Command{
	Use:   "emulator",
	Short: "🧪 Run a local chat server emulator",
	Long: `Run a local server that speaks the chat streaming protocol with
canned echo responses. Useful for trying the client without a real
backend:

  cchat emulator &
  cchat --server http://localhost:8089 chat`,
	RunE: runEmulator,
}

func init() {
	emulatorCmd.Flags().StringVar(&emulatorAddr, "addr", ":8089", "listen address")
	rootCmd.AddCommand(emulatorCmd)
}

func runEmulator(cmd *cobra.Command, args []string) error {
	srv := emulator.NewServer(
		emulator.WithFrameDelay(30 * time.Millisecond),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("emulator listening on %s", emulatorAddr)
		errCh <- srv.Listen(emulatorAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Infof("emulator shutting down")
		return srv.Shutdown()
	}
}
