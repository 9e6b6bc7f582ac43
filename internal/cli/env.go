package cli

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"testviewer/internal/cache"
	"testviewer/internal/config"
	"testviewer/internal/github"
	"testviewer/internal/storage"
)

// Env carries the loaded configuration and the lazily opened resources shared by commands
type Env struct {
	Config *config.Config
	Logger zerolog.Logger

	once  sync.Once
	store storage.Store
	err   error
}

// NewEnv creates an Env around cfg
func NewEnv(cfg *config.Config, logger zerolog.Logger) *Env {
	return &Env{Config: cfg, Logger: logger}
}

// Store opens the persistent store on first use
func (e *Env) Store() (storage.Store, error) {
	e.once.Do(func() {
		e.store, e.err = storage.Open(e.Config)
		if e.err != nil {
			e.err = fmt.Errorf("failed to open store: %w", e.err)
		}
	})
	return e.store, e.err
}

// Close releases the store when it was opened
func (e *Env) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Cache returns the archive cache over the persistent store
func (e *Env) Cache() (*cache.ArchiveCache, error) {
	store, err := e.Store()
	if err != nil {
		return nil, err
	}
	return cache.New(store, e.Config.CacheCeiling, e.Logger), nil
}

// Client returns a GitHub client. The environment token wins over the stored one.
func (e *Env) Client() (*github.Client, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}
	if e.Config.Token == "" {
		store, err := e.Store()
		if err != nil {
			return nil, err
		}
		token, _, err := store.Get(storage.TokenKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		e.Config.Token = token
	}
	if e.Config.Token == "" {
		e.Logger.Warn().Msg("No GitHub token: run 'testviewer login' or set GITHUB_TOKEN; artifact downloads need one")
	}
	return github.NewClient(e.Config, e.Logger), nil
}

// APIFailure converts a GitHub failure into the message shown to the user,
// dropping the stored token when it was rejected.
func (e *Env) APIFailure(err error, subject github.Subject) error {
	if errors.Is(err, github.ErrAuthExpired) {
		if store, serr := e.Store(); serr == nil {
			_ = store.Remove(storage.TokenKey)
		}
	}
	e.Logger.Debug().Err(err).Msg("GitHub request failed")
	return &UserError{Message: github.UserMessage(err, subject), Err: err}
}

// UserError is an error whose message is meant for the user; the cause stays reachable through Unwrap
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}
