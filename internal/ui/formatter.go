package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"testviewer/internal/cache"
	"testviewer/internal/domain"
	"testviewer/internal/session"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)
)

// Formatter formats and displays output
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a Formatter writing to stdout
func NewFormatter() *Formatter {
	return &Formatter{out: os.Stdout}
}

// NewFormatterTo creates a Formatter writing to w
func NewFormatterTo(w io.Writer) *Formatter {
	return &Formatter{out: w}
}

// PrintRuns prints workflow runs, newest first
func (f *Formatter) PrintRuns(runs []domain.WorkflowRun) {
	if len(runs) == 0 {
		yellow.Fprintln(f.out, "No workflow runs found")
		return
	}

	green.Fprintf(f.out, "Found %d workflow run(s):\n\n", len(runs))
	for i, run := range runs {
		connector := "├──"
		if i == len(runs)-1 {
			connector = "└──"
		}
		fmt.Fprintf(f.out, "%s %s %s #%d %s %s\n",
			connector,
			runGlyph(run),
			cyan.Sprintf("%d", run.ID),
			run.RunNumber,
			run.Name,
			gray.Sprintf("(%s, %s, %s)", run.HeadBranch, run.Actor, run.CreatedAt),
		)
	}
}

func runGlyph(run domain.WorkflowRun) string {
	switch {
	case !run.Concluded():
		return yellow.Sprint("●")
	case run.Conclusion == "success":
		return green.Sprint("✓")
	case run.Conclusion == "skipped" || run.Conclusion == "cancelled" || run.Conclusion == "neutral":
		return gray.Sprint("○")
	default:
		return red.Sprint("✗")
	}
}

// PrintResults prints the live result set grouped by suite, followed by a summary
func (f *Formatter) PrintResults(st session.State) {
	if st.Err != nil {
		red.Fprintf(f.out, "✗ %v\n", st.Err)
	}
	if len(st.Records) == 0 {
		yellow.Fprintln(f.out, "No test results found")
		f.printCoverage(st.Coverage)
		return
	}

	suites, order := groupBySuite(st.Records)
	for i, suite := range order {
		isLastSuite := i == len(order)-1
		name := suite
		if name == "" {
			name = "(no suite)"
		}
		if isLastSuite {
			cyan.Fprintf(f.out, "└── %s\n", name)
		} else {
			cyan.Fprintf(f.out, "├── %s\n", name)
		}

		records := suites[suite]
		for j, r := range records {
			isLastCase := j == len(records)-1
			var prefix string
			switch {
			case isLastSuite && isLastCase:
				prefix = "    └── "
			case isLastSuite:
				prefix = "    ├── "
			case isLastCase:
				prefix = "│   └── "
			default:
				prefix = "│   ├── "
			}
			fmt.Fprintf(f.out, "%s%s %s %s\n", prefix, statusGlyph(r.Status), r.Name, gray.Sprint(FormatDuration(r.DurationSeconds)))
			if r.Status == domain.StatusFailed && r.ErrorMessage != "" {
				indent := "│       "
				if isLastSuite {
					indent = "        "
				}
				red.Fprintf(f.out, "%s%s\n", indent, firstLine(r.ErrorMessage))
			}
		}
	}

	fmt.Fprintln(f.out)
	f.printSummary(domain.Count(st.Records))
	f.printCoverage(st.Coverage)
}

// groupBySuite keeps the canonical record order inside each suite; suites appear in first-seen order
func groupBySuite(records []domain.TestRecord) (map[string][]domain.TestRecord, []string) {
	suites := make(map[string][]domain.TestRecord)
	var order []string
	for _, r := range records {
		if _, ok := suites[r.Suite]; !ok {
			order = append(order, r.Suite)
		}
		suites[r.Suite] = append(suites[r.Suite], r)
	}
	return suites, order
}

func (f *Formatter) printSummary(c domain.ResultCounts) {
	fmt.Fprintf(f.out, "%s %s, %s, %s\n",
		bold.Sprintf("Tests: %d", c.Total),
		red.Sprintf("%d failed", c.Failed),
		yellow.Sprintf("%d skipped", c.Skipped),
		green.Sprintf("%d passed", c.Passed),
	)
	if c.Failed == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
	} else {
		red.Fprintf(f.out, "✗ %d test case(s) failed\n", c.Failed)
	}
}

func (f *Formatter) printCoverage(trees map[string]domain.CoverageTree) {
	if len(trees) == 0 {
		return
	}
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "Coverage reports:")
	for _, name := range names {
		tree := trees[name]
		fmt.Fprintf(f.out, "  %s %s %s\n", name, gray.Sprint(tree.IndexPath), gray.Sprintf("(%d files)", len(tree.Files)))
	}
}

// PrintCacheUsage prints the archive cache occupancy
func (f *Formatter) PrintCacheUsage(u cache.Usage) {
	pct := 0.0
	if u.Ceiling > 0 {
		pct = float64(u.Bytes) / float64(u.Ceiling) * 100
	}
	fmt.Fprintf(f.out, "%s %d archive(s), %s of %s (%.1f%%)\n",
		cyan.Sprint("Cache:"), u.Entries, FormatBytes(int64(u.Bytes)), FormatBytes(int64(u.Ceiling)), pct)
}

// WriteCoverage exports each coverage tree to dir/<artifact>/ and returns the written index files
func (f *Formatter) WriteCoverage(dir string, trees map[string]domain.CoverageTree) ([]string, error) {
	names := make([]string, 0, len(trees))
	for name := range trees {
		names = append(names, name)
	}
	sort.Strings(names)

	var indexes []string
	for _, name := range names {
		tree := trees[name]
		root := filepath.Join(dir, safeName(name))
		for entry, content := range tree.Files {
			target, err := containedPath(root, entry)
			if err != nil {
				return indexes, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return indexes, fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(content), 0644); err != nil {
				return indexes, fmt.Errorf("failed to write %s: %w", target, err)
			}
		}
		if _, ok := tree.Files[tree.IndexPath]; ok {
			index, _ := containedPath(root, tree.IndexPath)
			indexes = append(indexes, index)
			green.Fprintf(f.out, "✓ Coverage for %s written to %s\n", name, index)
		}
	}
	return indexes, nil
}

// containedPath joins an archive entry name onto root, refusing names that escape it
func containedPath(root, entry string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(entry))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to write entry outside the output directory: %s", entry)
	}
	return filepath.Join(root, clean), nil
}

func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "artifact"
	}
	return name
}

func statusGlyph(s domain.Status) string {
	switch s {
	case domain.StatusFailed:
		return red.Sprint("✗")
	case domain.StatusSkipped:
		return yellow.Sprint("○")
	default:
		return green.Sprint("✓")
	}
}

// FormatDuration renders seconds the way the result list shows them
func FormatDuration(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0ms"
	case seconds < 1:
		return fmt.Sprintf("%.0fms", seconds*1000)
	case seconds < 60:
		return fmt.Sprintf("%.2fs", seconds)
	default:
		m := int(seconds) / 60
		return fmt.Sprintf("%dm%02ds", m, int(seconds)-m*60)
	}
}

// FormatBytes renders a size in binary units
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
