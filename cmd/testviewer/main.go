package main

import (
	"fmt"
	"os"
	"time"

	"testviewer/internal/cli"
	"testviewer/internal/cli/commands"
	"testviewer/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	// Create initial config with defaults
	cfg := config.New()
	env := cli.NewEnv(cfg, logger)

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "testviewer",
		Short:         "Test results viewer for GitHub Actions",
		Long:          `Download the artifacts of GitHub Actions workflow runs, merge the JUnit reports and coverage trees inside them, and browse the results in the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			loaded, err := config.Load(flags.ToConfigFlags())
			if err != nil {
				return err
			}
			if flags.Repo != "" {
				if err := loaded.SetRepository(flags.Repo); err != nil {
					return err
				}
			}
			// Commands hold cfg, so the loaded settings replace it in place.
			*cfg = *loaded
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to the config file (default "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&flags.Repo, "repo", "r", "", "Repository as owner/name")
	rootCmd.PersistentFlags().BoolVar(&flags.NoCache, "no-cache", false, "Keep tokens, artifact lists and archives in memory only")

	// Create commands with dependencies and register them
	cmds := commands.NewCommands(env, &flags)
	cmds.Register(rootCmd, &flags)

	// Execute root command
	err := rootCmd.Execute()
	if cerr := env.Close(); cerr != nil {
		logger.Warn().Err(cerr).Msg("Failed to close store")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
