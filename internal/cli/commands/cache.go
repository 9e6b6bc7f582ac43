package commands

import (
	"testviewer/internal/cli"
	"testviewer/internal/ui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CacheCommand handles the cache command
type CacheCommand struct {
	env       *cli.Env
	flags     *cli.Flags
	formatter *ui.Formatter
}

// NewCacheCommand creates a new CacheCommand
func NewCacheCommand(env *cli.Env, flags *cli.Flags) *CacheCommand {
	return &CacheCommand{env: env, flags: flags, formatter: ui.NewFormatter()}
}

// Execute runs the command
func (cc *CacheCommand) Execute(cmd *cobra.Command, args []string) error {
	archives, err := cc.env.Cache()
	if err != nil {
		return err
	}

	if cc.flags.Clear {
		n, err := archives.Clear()
		if err != nil {
			return err
		}
		color.Green("✓ Removed %d cached archive(s)", n)
		return nil
	}

	usage, err := archives.Usage()
	if err != nil {
		return err
	}
	cc.formatter.PrintCacheUsage(usage)
	return nil
}
