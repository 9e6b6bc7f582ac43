package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"testviewer/internal/archive"
	"testviewer/internal/cache"
	"testviewer/internal/config"
	"testviewer/internal/coverage"
	"testviewer/internal/discovery"
	"testviewer/internal/domain"
	"testviewer/internal/github"
	"testviewer/internal/parser"
	"testviewer/internal/session"
	"testviewer/internal/storage"
)

// RunArtifactsPrefix namespaces persisted artifact lists of concluded runs
const RunArtifactsPrefix = "run_artifacts_"

// Source lists and downloads the artifacts of a run
type Source interface {
	ListArtifacts(ctx context.Context, runID int64) ([]domain.Artifact, error)
	DownloadArtifact(ctx context.Context, artifactID int64) ([]byte, error)
}

// Orchestrator drives one run selection from artifact listing to merged results
type Orchestrator struct {
	config    *config.Config
	source    Source
	cache     *cache.ArchiveCache
	store     storage.Store
	resolver  *discovery.Resolver
	collector *coverage.Collector
	parser    parser.Parser
	session   *session.Session
	pool      *WorkerPool
	logger    zerolog.Logger
}

// NewOrchestrator creates a new Orchestrator. store holds the token and persisted artifact lists; archives go through archives.
func NewOrchestrator(
	cfg *config.Config,
	source Source,
	archives *cache.ArchiveCache,
	store storage.Store,
	sess *session.Session,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:    cfg,
		source:    source,
		cache:     archives,
		store:     store,
		resolver:  discovery.NewResolver(logger),
		collector: coverage.NewCollector(logger),
		parser:    parser.NewJUnitParser(),
		session:   sess,
		pool:      NewWorkerPool(cfg.Workers),
		logger:    logger,
	}
}

// SetProgress reports per-artifact progress of SelectRun
func (o *Orchestrator) SetProgress(factory ProgressFactory) {
	o.pool.SetProgress(factory)
}

// SelectRun makes run the live run and ingests its test artifacts, returning once every artifact has settled.
// Failures of single artifacts are logged and skipped. A failure to list artifacts is recorded on the
// session and returned; an expired token additionally clears the stored token.
func (o *Orchestrator) SelectRun(ctx context.Context, run domain.WorkflowRun) error {
	token := o.session.Select(run.ID)
	log := o.logger.With().Int64("run", run.ID).Logger()

	o.session.BeginArtifactsFetch(token)
	artifacts, err := o.artifacts(ctx, run)
	if err != nil {
		o.handleAuth(err)
		o.session.Fail(token, err)
		return fmt.Errorf("list artifacts of run %d: %w", run.ID, err)
	}

	sort.SliceStable(artifacts, func(i, j int) bool {
		return artifacts[i].Name < artifacts[j].Name
	})
	o.session.SetArtifacts(token, artifacts)

	var candidates []domain.Artifact
	for _, a := range artifacts {
		if o.config.IsCandidateArtifact(a.Name) {
			candidates = append(candidates, a)
		}
	}
	log.Debug().Int("artifacts", len(artifacts)).Int("candidates", len(candidates)).Msg("Listed artifacts")
	o.session.ExpectArtifacts(token, len(candidates))

	outcomes, elapsed := o.pool.Run(ctx, candidates, func(ctx context.Context, workerID int, a domain.Artifact) error {
		defer o.session.ArtifactDone(token)
		return o.ingestArtifact(ctx, token, a)
	})

	var authErr error
	for _, out := range outcomes {
		if out.Err == nil {
			continue
		}
		if errors.Is(out.Err, github.ErrAuthExpired) && authErr == nil {
			authErr = out.Err
		}
	}
	log.Debug().Dur("elapsed", elapsed).Int("processed", len(outcomes)).Msg("Ingestion settled")

	if authErr != nil {
		o.handleAuth(authErr)
		o.session.Fail(token, authErr)
		return authErr
	}
	if err := ctx.Err(); err != nil {
		o.session.Fail(token, err)
		return err
	}
	return nil
}

// IngestArchive parses an already downloaded archive into the live session.
// It returns an error only when the blob is not a readable archive.
func (o *Orchestrator) IngestArchive(token session.Token, a domain.Artifact, blob []byte) error {
	r, err := o.openArchive(blob)
	if err != nil {
		o.logger.Warn().Int64("run", token.RunID).Str("artifact", a.Name).Err(err).Msg("Skipping unreadable archive")
		return err
	}
	o.ingestReader(token, a, r)
	return nil
}

func (o *Orchestrator) openArchive(blob []byte) (*archive.Reader, error) {
	return archive.Open(blob, archive.Limits{
		MaxEntrySize: o.config.MaxEntrySize,
		MaxTotalSize: o.config.MaxInflateSize,
	})
}

func (o *Orchestrator) ingestReader(token session.Token, a domain.Artifact, r *archive.Reader) {
	log := o.logger.With().Int64("run", token.RunID).Str("artifact", a.Name).Logger()

	rules := o.resolver.Resolve(a.Name, r)
	entries := r.Entries()

	for _, e := range rules.ReportEntries(entries) {
		text, err := e.Text()
		if err != nil {
			log.Warn().Err(err).Str("entry", e.Name()).Msg("Skipping unreadable report")
			continue
		}
		records, err := o.parser.Parse(a.Name, strings.NewReader(text))
		if err != nil {
			log.Warn().Err(err).Str("entry", e.Name()).Msg("Skipping malformed report")
			continue
		}
		o.session.Append(token, session.Batch{
			RunID:      token.RunID,
			ArtifactID: a.ID,
			Entry:      e.Name(),
			Records:    records,
		})
	}

	if tree := o.collector.Collect(a.Name, entries, rules); coverage.Publishable(tree) {
		o.session.AddCoverageTree(token, tree)
	}
}

func (o *Orchestrator) ingestArtifact(ctx context.Context, token session.Token, a domain.Artifact) error {
	log := o.logger.With().Int64("run", token.RunID).Str("artifact", a.Name).Logger()

	if !o.session.IsCurrent(token) {
		return nil
	}
	if o.config.MaxArtifactSize > 0 && a.SizeBytes > o.config.MaxArtifactSize {
		log.Info().Int64("bytes", a.SizeBytes).Msg("Skipping artifact above size limit")
		return nil
	}

	if blob, ok := o.cache.Get(a.ID); ok {
		r, err := o.openArchive(blob)
		if err == nil {
			log.Debug().Msg("Using cached archive")
			o.ingestReader(token, a, r)
			return nil
		}
		log.Warn().Err(err).Msg("Dropping unreadable cached archive")
		if err := o.cache.Remove(a.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to drop cached archive")
		}
	}

	blob, err := o.source.DownloadArtifact(ctx, a.ID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to download artifact")
		return err
	}
	// Unreadable blobs are never cached.
	r, err := o.openArchive(blob)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping unreadable archive")
		return err
	}
	if err := o.cache.Put(a.ID, blob); err != nil {
		log.Warn().Err(err).Msg("Archive not cached")
	}

	o.ingestReader(token, a, r)
	return nil
}

// artifacts returns the run's artifact list, reusing the persisted copy for concluded runs
func (o *Orchestrator) artifacts(ctx context.Context, run domain.WorkflowRun) ([]domain.Artifact, error) {
	key := RunArtifactsKey(run.ID)
	if run.Concluded() {
		if value, ok, err := o.store.Get(key); err == nil && ok {
			var cached []domain.Artifact
			if err := json.Unmarshal([]byte(value), &cached); err == nil {
				o.logger.Debug().Int64("run", run.ID).Msg("Using persisted artifact list")
				return cached, nil
			}
			_ = o.store.Remove(key)
		}
	}

	artifacts, err := o.source.ListArtifacts(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	if run.Concluded() {
		data, err := json.Marshal(artifacts)
		if err == nil {
			err = o.store.Set(key, string(data))
		}
		if err != nil {
			o.logger.Warn().Err(err).Int64("run", run.ID).Msg("Failed to persist artifact list")
		}
	}
	return artifacts, nil
}

func (o *Orchestrator) handleAuth(err error) {
	if !errors.Is(err, github.ErrAuthExpired) {
		return
	}
	if rmErr := o.store.Remove(storage.TokenKey); rmErr != nil {
		o.logger.Warn().Err(rmErr).Msg("Failed to clear stored token")
		return
	}
	o.logger.Debug().Msg("Cleared stored token")
}

// RunArtifactsKey returns the store key of a run's persisted artifact list
func RunArtifactsKey(runID int64) string {
	return fmt.Sprintf("%s%d", RunArtifactsPrefix, runID)
}
