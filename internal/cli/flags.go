package cli

import (
	"strings"

	"testviewer/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ConfigPath  string
	Repo        string
	Workers     int
	NoCache     bool
	Interactive bool
	CoverageDir string
	Verbose     bool
	Token       string
	Clear       bool
	Addr        string
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	owner, repo, _ := strings.Cut(f.Repo, "/")
	return config.Flags{
		ConfigPath:  f.ConfigPath,
		Owner:       owner,
		Repo:        repo,
		Workers:     f.Workers,
		NoCache:     f.NoCache,
		Interactive: f.Interactive,
		CoverageDir: f.CoverageDir,
		Verbose:     f.Verbose,
	}
}
