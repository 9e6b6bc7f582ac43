package discovery

import (
	"path"
	"strings"

	"github.com/rs/zerolog"

	"testviewer/internal/archive"
)

// ConventionalCoverageIndex is the llvm-cov HTML output path, used when no manifest names one
const ConventionalCoverageIndex = "llvm-cov/html/index.html"

var defaultReports = MustCompileGlobs(DefaultReportPattern)

// Rules tell the pipeline which entries of one archive are reports and which form the coverage tree
type Rules struct {
	Manifest      ManifestResult
	Reports       *Matcher
	CoverageIndex string // empty when the archive has no coverage report
	CoverageDir   string // directory of CoverageIndex, empty for the archive root
}

// HasCoverage reports whether a coverage index was resolved
func (r Rules) HasCoverage() bool {
	return r.CoverageIndex != ""
}

// CoveragePrefix is the entry-name prefix of coverage files
func (r Rules) CoveragePrefix() string {
	if r.CoverageDir == "" {
		return ""
	}
	return r.CoverageDir + "/"
}

// ReportEntries returns the entries matched by the report globs, in archive order
func (r Rules) ReportEntries(entries []archive.Entry) []archive.Entry {
	var matched []archive.Entry
	for _, e := range entries {
		if r.Reports.Match(e.Name()) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Resolver derives Rules from an archive's manifest, falling back to defaults
type Resolver struct {
	logger zerolog.Logger
}

// NewResolver creates a new Resolver
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve inspects the archive for a manifest. It never fails: a broken manifest is logged and ignored.
func (rv *Resolver) Resolve(artifactName string, r *archive.Reader) Rules {
	rules := Rules{Reports: defaultReports}

	if _, ok := r.Find(ConventionalCoverageIndex); ok {
		rules.CoverageIndex = ConventionalCoverageIndex
		rules.CoverageDir = path.Dir(ConventionalCoverageIndex)
	}

	entry, ok := r.Find(ManifestName)
	if !ok {
		return rules
	}

	content, err := entry.Text()
	if err != nil {
		rules.Manifest = ManifestResult{State: ManifestInvalid, Err: &ManifestParseError{Err: err}}
	} else {
		rules.Manifest = ParseManifest(content)
	}
	if rules.Manifest.State == ManifestInvalid {
		rv.logger.Warn().Err(rules.Manifest.Err).Str("artifact", artifactName).Msg("Ignoring manifest, using default patterns")
		return rules
	}

	m := rules.Manifest.Manifest
	if m.JUnit != nil {
		matcher, err := CompileGlobs(m.JUnit)
		if err != nil {
			rv.logger.Warn().Err(err).Str("artifact", artifactName).Msg("Ignoring manifest report patterns")
		} else {
			rules.Reports = matcher
		}
	}
	if m.HTMLCoverage != "" {
		rules.CoverageIndex = m.HTMLCoverage
		rules.CoverageDir = ""
		if i := strings.LastIndex(m.HTMLCoverage, "/"); i >= 0 {
			rules.CoverageDir = m.HTMLCoverage[:i]
		}
	}

	rv.logger.Debug().
		Str("artifact", artifactName).
		Strs("junit", rules.Reports.Patterns()).
		Str("coverage", rules.CoverageIndex).
		Msg("Resolved manifest")
	return rules
}
