package commands

import (
	"testviewer/internal/cli"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	Runs   *RunsCommand
	View   *ViewCommand
	Parse  *ParseCommand
	Cache  *CacheCommand
	Login  *LoginCommand
	Logout *LogoutCommand
	Relay  *RelayCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(env *cli.Env, flags *cli.Flags) *Commands {
	return &Commands{
		Runs:   NewRunsCommand(env),
		View:   NewViewCommand(env, flags),
		Parse:  NewParseCommand(env, flags),
		Cache:  NewCacheCommand(env, flags),
		Login:  NewLoginCommand(env, flags),
		Logout: NewLogoutCommand(env),
		Relay:  NewRelayCommand(env, flags),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	// Runs command
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List workflow runs",
		Long:  "List the most recent GitHub Actions workflow runs of the repository",
		Args:  cobra.NoArgs,
		RunE:  c.Runs.Execute,
	}
	rootCmd.AddCommand(runsCmd)

	// View command
	viewCmd := &cobra.Command{
		Use:   "view [run-id]",
		Short: "Show the test results of a workflow run",
		Long:  "Download the test artifacts of a workflow run (the most recent one by default), merge their JUnit reports and show the results",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.View.Execute,
	}
	viewCmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "Number of artifacts ingested in parallel")
	viewCmd.Flags().BoolVarP(&flags.Interactive, "interactive", "i", false, "Browse results in an interactive viewer")
	viewCmd.Flags().StringVar(&flags.CoverageDir, "coverage-dir", "", "Write coverage reports found in the artifacts to this directory")
	rootCmd.AddCommand(viewCmd)

	// Parse command
	parseCmd := &cobra.Command{
		Use:   "parse <archive.zip>...",
		Short: "Show the test results of local artifact archives",
		Long:  "Read downloaded artifact zip files and show their test results without contacting GitHub",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.Parse.Execute,
	}
	parseCmd.Flags().BoolVarP(&flags.Interactive, "interactive", "i", false, "Browse results in an interactive viewer")
	parseCmd.Flags().StringVar(&flags.CoverageDir, "coverage-dir", "", "Write coverage reports found in the archives to this directory")
	rootCmd.AddCommand(parseCmd)

	// Cache command
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the archive cache",
		Args:  cobra.NoArgs,
		RunE:  c.Cache.Execute,
	}
	cacheCmd.Flags().BoolVar(&flags.Clear, "clear", false, "Remove every cached archive")
	rootCmd.AddCommand(cacheCmd)

	// Login command
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub token",
		Long:  "Store a GitHub token for later commands. Reads the token from standard input when --token is not given.",
		Args:  cobra.NoArgs,
		RunE:  c.Login.Execute,
	}
	loginCmd.Flags().StringVar(&flags.Token, "token", "", "GitHub token with actions:read access")
	rootCmd.AddCommand(loginCmd)

	// Logout command
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE:  c.Logout.Execute,
	}
	rootCmd.AddCommand(logoutCmd)

	// Relay command
	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve the OAuth code exchange relay",
		Long:  "Serve POST /api/github-auth, exchanging OAuth authorization codes for tokens with the client secret from TEST_VIEWER_KEY",
		Args:  cobra.NoArgs,
		RunE:  c.Relay.Execute,
	}
	relayCmd.Flags().StringVar(&flags.Addr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(relayCmd)
}
