package commands

import (
	"os"
	"os/signal"
	"syscall"

	"testviewer/internal/cli"
	"testviewer/internal/relay"

	"github.com/spf13/cobra"
)

// RelayCommand handles the relay command
type RelayCommand struct {
	env   *cli.Env
	flags *cli.Flags
}

// NewRelayCommand creates a new RelayCommand
func NewRelayCommand(env *cli.Env, flags *cli.Flags) *RelayCommand {
	return &RelayCommand{env: env, flags: flags}
}

// Execute runs the command
func (rc *RelayCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.env.Config
	if _, _, err := cfg.ClientCredentials(); err != nil {
		return err
	}

	addr := cfg.RelayAddr
	if rc.flags.Addr != "" {
		addr = rc.flags.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return relay.NewServer(cfg, rc.env.Logger).ListenAndServe(ctx, addr)
}
