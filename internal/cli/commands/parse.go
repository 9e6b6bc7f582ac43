package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"testviewer/internal/cli"
	"testviewer/internal/domain"
	"testviewer/internal/ingest"
	"testviewer/internal/session"
	"testviewer/internal/storage"
	"testviewer/internal/ui"

	"github.com/spf13/cobra"
)

// ParseCommand handles the parse command
type ParseCommand struct {
	env       *cli.Env
	flags     *cli.Flags
	formatter *ui.Formatter
	viewer    *ui.ResultsViewer
}

// NewParseCommand creates a new ParseCommand
func NewParseCommand(env *cli.Env, flags *cli.Flags) *ParseCommand {
	return &ParseCommand{
		env:       env,
		flags:     flags,
		formatter: ui.NewFormatter(),
		viewer:    ui.NewResultsViewer(),
	}
}

// Execute runs the command
func (pc *ParseCommand) Execute(cmd *cobra.Command, args []string) error {
	sess := session.New(nil)
	// Local archives never touch the network or the persistent store.
	store := storage.NewMemoryStore()
	orch := ingest.NewOrchestrator(pc.env.Config, nil, nil, store, sess, pc.env.Logger)

	token := sess.Select(0)
	sess.ExpectArtifacts(token, len(args))

	var ingested int
	for i, path := range args {
		blob, err := os.ReadFile(path)
		if err != nil {
			sess.ArtifactDone(token)
			return fmt.Errorf("failed to read archive: %w", err)
		}
		artifact := domain.Artifact{
			ID:        int64(i + 1),
			Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			SizeBytes: int64(len(blob)),
		}
		if err := orch.IngestArchive(token, artifact, blob); err == nil {
			ingested++
		}
		sess.ArtifactDone(token)
	}
	if ingested == 0 {
		return fmt.Errorf("none of the %d archive(s) could be read", len(args))
	}

	st := sess.Snapshot()
	if pc.flags.Interactive {
		if err := pc.viewer.View(st); err != nil {
			return err
		}
	} else {
		pc.formatter.PrintResults(st)
	}

	if pc.flags.CoverageDir != "" && len(st.Coverage) > 0 {
		if _, err := pc.formatter.WriteCoverage(pc.flags.CoverageDir, st.Coverage); err != nil {
			return err
		}
	}
	return nil
}
