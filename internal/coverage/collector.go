package coverage

import (
	"strings"

	"github.com/rs/zerolog"

	"testviewer/internal/archive"
	"testviewer/internal/discovery"
	"testviewer/internal/domain"
)

// Collector gathers the files of a coverage report out of an archive
type Collector struct {
	logger zerolog.Logger
}

// NewCollector creates a new Collector
func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Collect reads every entry under the resolved coverage directory.
// Without a resolved index it returns an empty, unpublishable tree.
func (c *Collector) Collect(artifactName string, entries []archive.Entry, rules discovery.Rules) domain.CoverageTree {
	tree := domain.CoverageTree{
		Name:      artifactName,
		IndexPath: rules.CoverageIndex,
		Files:     make(map[string]string),
	}
	if !rules.HasCoverage() {
		return tree
	}

	prefix := rules.CoveragePrefix()
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		text, err := e.Text()
		if err != nil {
			c.logger.Warn().Err(err).Str("artifact", artifactName).Str("entry", e.Name()).Msg("Skipping unreadable coverage file")
			continue
		}
		tree.Files[e.Name()] = text
	}

	c.logger.Debug().Str("artifact", artifactName).Int("files", len(tree.Files)).Str("index", tree.IndexPath).Msg("Collected coverage tree")
	return tree
}

// Publishable reports whether a tree may be shown; half-populated trees without an index never are
func Publishable(tree domain.CoverageTree) bool {
	return tree.IndexPath != ""
}
