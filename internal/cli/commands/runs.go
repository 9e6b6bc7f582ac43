package commands

import (
	"testviewer/internal/cli"
	"testviewer/internal/github"
	"testviewer/internal/ui"

	"github.com/spf13/cobra"
)

// RunsCommand handles the runs command
type RunsCommand struct {
	env       *cli.Env
	formatter *ui.Formatter
}

// NewRunsCommand creates a new RunsCommand
func NewRunsCommand(env *cli.Env) *RunsCommand {
	return &RunsCommand{env: env, formatter: ui.NewFormatter()}
}

// Execute runs the command
func (rc *RunsCommand) Execute(cmd *cobra.Command, args []string) error {
	client, err := rc.env.Client()
	if err != nil {
		return err
	}

	runs, err := client.ListRuns(cmd.Context())
	if err != nil {
		return rc.env.APIFailure(err, github.SubjectRuns)
	}

	rc.formatter.PrintRuns(runs)
	return nil
}
