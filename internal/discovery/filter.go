package discovery

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultReportPattern matches every .xml entry at any depth
const DefaultReportPattern = "**.xml"

// Matcher is a set of compiled glob patterns matched against archive entry names
type Matcher struct {
	patterns []string
	res      []*regexp.Regexp
}

// CompileGlobs compiles glob patterns once.
// "*" matches anything except "/", "**" matches across path segments,
// every other character is literal and the whole name must match.
func CompileGlobs(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: append([]string(nil), patterns...)}
	for _, p := range patterns {
		re, err := regexp.Compile(globToRegexp(p))
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", p, err)
		}
		m.res = append(m.res, re)
	}
	return m, nil
}

// MustCompileGlobs is CompileGlobs for patterns known to be valid
func MustCompileGlobs(patterns ...string) *Matcher {
	m, err := CompileGlobs(patterns)
	if err != nil {
		panic(err)
	}
	return m
}

func globToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' {
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '*' {
			b.WriteString(".*")
			i++
			// Collapse runs of stars.
			for i+1 < len(pattern) && pattern[i+1] == '*' {
				i++
			}
			continue
		}
		b.WriteString("[^/]*")
	}
	b.WriteString("$")
	return b.String()
}

// Match reports whether name matches any pattern
func (m *Matcher) Match(name string) bool {
	for _, re := range m.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns
func (m *Matcher) Patterns() []string {
	return m.patterns
}

// FilterNames keeps the names matching any pattern, preserving order
func (m *Matcher) FilterNames(names []string) []string {
	var filtered []string
	for _, name := range names {
		if m.Match(name) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}
