package storage

import "testviewer/internal/config"

// Store is a persistent string key-value area shared by the token, run list and archive caches.
// Callers namespace their keys so they never touch each other's entries.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	// Keys returns every key with the given prefix, sorted
	Keys(prefix string) ([]string, error)
	Close() error
}

// TokenKey holds the GitHub token; it lives outside every cache namespace
const TokenKey = "github_token"

// Open returns the backend selected by the config: MySQL when a DSN is set, the JSON file otherwise
func Open(cfg *config.Config) (Store, error) {
	if cfg.Flags.NoCache {
		return NewMemoryStore(), nil
	}
	if cfg.StoreDSN != "" {
		return OpenMySQLStore(cfg.StoreDSN, DefaultTable)
	}
	return OpenFileStore(cfg.GetStorePath())
}
