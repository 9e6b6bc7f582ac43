package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// GitHub settings
	APIBase   string `yaml:"api_base"`
	OAuthBase string `yaml:"oauth_base"`
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
	Token     string `yaml:"-"`

	// Ingestion settings
	Workers          int      `yaml:"workers"`
	MaxArtifactSize  int64    `yaml:"max_artifact_size"`
	MaxEntrySize     int64    `yaml:"max_entry_size"`
	MaxInflateSize   int64    `yaml:"max_inflate_size"`
	ArtifactKeywords []string `yaml:"artifact_keywords"`

	// Persistent store settings
	StorePath    string `yaml:"store_path"`
	StoreDSN     string `yaml:"store_dsn"`
	CacheCeiling int    `yaml:"cache_ceiling"`

	// OAuth relay settings
	RelayAddr    string   `yaml:"relay_addr"`
	RedirectURIs []string `yaml:"redirect_uris"`
	ClientKey    string   `yaml:"-"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigPath  string
	Owner       string
	Repo        string
	Workers     int
	NoCache     bool
	Interactive bool
	CoverageDir string
	Verbose     bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		APIBase:         DefaultAPIBase,
		OAuthBase:       DefaultOAuthBase,
		Workers:         DefaultWorkers,
		MaxArtifactSize: DefaultMaxArtifactSize,
		MaxEntrySize:    DefaultMaxEntrySize,
		MaxInflateSize:  DefaultMaxArchiveInflate,
		StorePath:       DefaultStorePath,
		CacheCeiling:    DefaultCacheCeiling,
		RelayAddr:       DefaultRelayAddr,
		Flags:           Flags{Workers: DefaultWorkers},
	}
	cfg.ArtifactKeywords = make([]string, len(DefaultArtifactKeywords))
	copy(cfg.ArtifactKeywords, DefaultArtifactKeywords)
	cfg.RedirectURIs = make([]string, len(DefaultRedirectURIs))
	copy(cfg.RedirectURIs, DefaultRedirectURIs)
	return cfg
}

// Load creates a config from defaults, the config file, the environment and flags, in that order
func Load(flags Flags) (*Config, error) {
	cfg := New()

	path := flags.ConfigPath
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.LoadEnv(".env")
	cfg.ApplyFlags(flags)
	return cfg, nil
}

// ApplyFlags overrides settings with the non-zero command flags
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Owner != "" {
		c.Owner = flags.Owner
	}
	if flags.Repo != "" {
		c.Repo = flags.Repo
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
}

// Validate checks the settings needed to talk to a repository
func (c *Config) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("repository is not set: use --repo owner/name or set owner and repo in %s", DefaultConfigFile)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// SetRepository accepts "owner/name"
func (c *Config) SetRepository(slug string) error {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid repository %q: expected owner/name", slug)
	}
	c.Owner = owner
	c.Repo = repo
	return nil
}

// GetStorePath returns the absolute path of the JSON store file
func (c *Config) GetStorePath() string {
	if abs, err := filepath.Abs(c.StorePath); err == nil {
		return abs
	}
	return c.StorePath
}

// IsCandidateArtifact reports whether an artifact name looks like it carries test results
func (c *Config) IsCandidateArtifact(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range c.ArtifactKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
