package commands

import (
	"context"
	"fmt"
	"strconv"

	"testviewer/internal/cli"
	"testviewer/internal/domain"
	"testviewer/internal/github"
	"testviewer/internal/ingest"
	"testviewer/internal/session"
	"testviewer/internal/ui"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ViewCommand handles the view command
type ViewCommand struct {
	env       *cli.Env
	flags     *cli.Flags
	formatter *ui.Formatter
	viewer    *ui.ResultsViewer
}

// NewViewCommand creates a new ViewCommand
func NewViewCommand(env *cli.Env, flags *cli.Flags) *ViewCommand {
	return &ViewCommand{
		env:       env,
		flags:     flags,
		formatter: ui.NewFormatter(),
		viewer:    ui.NewResultsViewer(),
	}
}

// Execute runs the command
func (vc *ViewCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := vc.env.Client()
	if err != nil {
		return err
	}

	run, err := vc.resolveRun(ctx, client, args)
	if err != nil {
		return err
	}

	store, err := vc.env.Store()
	if err != nil {
		return err
	}
	archives, err := vc.env.Cache()
	if err != nil {
		return err
	}
	sess := session.New(nil)
	orch := ingest.NewOrchestrator(vc.env.Config, client, archives, store, sess, vc.env.Logger)

	color.Cyan("Run %d #%d %s (%s)", run.ID, run.RunNumber, run.Name, run.HeadBranch)

	if vc.flags.Interactive {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := orch.SelectRun(ctx, run); err != nil {
				vc.env.Logger.Debug().Err(err).Msg("Ingestion ended with error")
			}
		}()
		if err := vc.viewer.Watch(sess); err != nil {
			return err
		}
		return vc.exportCoverage(sess.Snapshot())
	}

	orch.SetProgress(func(total int) ingest.Progress {
		return ui.NewProgressBar(total)
	})
	if err := orch.SelectRun(ctx, run); err != nil {
		return vc.env.APIFailure(err, github.SubjectArtifacts)
	}

	st := sess.Snapshot()
	vc.formatter.PrintResults(st)
	return vc.exportCoverage(st)
}

// resolveRun returns the run named by args, or the most recent run
func (vc *ViewCommand) resolveRun(ctx context.Context, client *github.Client, args []string) (domain.WorkflowRun, error) {
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return domain.WorkflowRun{}, fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := client.GetRun(ctx, id)
		if err != nil {
			return domain.WorkflowRun{}, vc.env.APIFailure(err, github.SubjectRun)
		}
		return run, nil
	}

	runs, err := client.ListRuns(ctx)
	if err != nil {
		return domain.WorkflowRun{}, vc.env.APIFailure(err, github.SubjectRuns)
	}
	if len(runs) == 0 {
		return domain.WorkflowRun{}, fmt.Errorf("no workflow runs found for %s/%s", vc.env.Config.Owner, vc.env.Config.Repo)
	}
	return runs[0], nil
}

func (vc *ViewCommand) exportCoverage(st session.State) error {
	if vc.flags.CoverageDir == "" || len(st.Coverage) == 0 {
		return nil
	}
	_, err := vc.formatter.WriteCoverage(vc.flags.CoverageDir, st.Coverage)
	return err
}
