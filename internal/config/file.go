package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadFile merges a YAML config file into c. Keys absent from the file keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnv reads an optional .env file, then applies environment overrides
func (c *Config) LoadEnv(envPath string) {
	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(envPath)

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("TEST_VIEWER_API_BASE"); v != "" {
		c.APIBase = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("TEST_VIEWER_STORE"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("TEST_VIEWER_STORE_DSN"); v != "" {
		c.StoreDSN = v
	}
	if v := os.Getenv("TEST_VIEWER_KEY"); v != "" {
		c.ClientKey = v
	}
	if v := os.Getenv("TEST_VIEWER_REDIRECT_URIS"); v != "" {
		c.RedirectURIs = strings.Split(v, ",")
	}
}

// ClientCredentials splits the relay key "CLIENT_ID:CLIENT_SECRET"
func (c *Config) ClientCredentials() (id, secret string, err error) {
	if c.ClientKey == "" {
		return "", "", fmt.Errorf("TEST_VIEWER_KEY not set")
	}
	id, secret, _ = strings.Cut(c.ClientKey, ":")
	if id == "" || secret == "" {
		return "", "", fmt.Errorf("invalid TEST_VIEWER_KEY format, expected CLIENT_ID:CLIENT_SECRET")
	}
	return id, secret, nil
}
