package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"testviewer/internal/cli"
	"testviewer/internal/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// LoginCommand handles the login command
type LoginCommand struct {
	env   *cli.Env
	flags *cli.Flags
}

// NewLoginCommand creates a new LoginCommand
func NewLoginCommand(env *cli.Env, flags *cli.Flags) *LoginCommand {
	return &LoginCommand{env: env, flags: flags}
}

// Execute runs the command
func (lc *LoginCommand) Execute(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(lc.flags.Token)
	if token == "" {
		fmt.Fprint(os.Stderr, "GitHub token: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("no token given")
	}

	store, err := lc.env.Store()
	if err != nil {
		return err
	}
	if err := store.Set(storage.TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	color.Green("✓ Token stored")
	return nil
}

// LogoutCommand handles the logout command
type LogoutCommand struct {
	env *cli.Env
}

// NewLogoutCommand creates a new LogoutCommand
func NewLogoutCommand(env *cli.Env) *LogoutCommand {
	return &LogoutCommand{env: env}
}

// Execute runs the command
func (lc *LogoutCommand) Execute(cmd *cobra.Command, args []string) error {
	store, err := lc.env.Store()
	if err != nil {
		return err
	}
	if err := store.Remove(storage.TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	color.Green("✓ Token removed")
	return nil
}
