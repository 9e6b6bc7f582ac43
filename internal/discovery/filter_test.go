package discovery

import (
	"testing"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		entry    string
		expected bool
	}{
		{name: "default matches root xml", patterns: []string{DefaultReportPattern}, entry: "results.xml", expected: true},
		{name: "default matches nested xml", patterns: []string{DefaultReportPattern}, entry: "a/b/c/results.xml", expected: true},
		{name: "default ignores html", patterns: []string{DefaultReportPattern}, entry: "cov/index.html", expected: false},
		{name: "single star stays in segment", patterns: []string{"*.xml"}, entry: "dir/results.xml", expected: false},
		{name: "single star matches segment", patterns: []string{"reports/*.xml"}, entry: "reports/unit.xml", expected: true},
		{name: "double star across segments", patterns: []string{"reports/**/junit.xml"}, entry: "reports/a/b/junit.xml", expected: true},
		{name: "dots are literal", patterns: []string{"*.xml"}, entry: "resultsxxml", expected: false},
		{name: "whole name must match", patterns: []string{"junit.xml"}, entry: "old-junit.xml", expected: false},
		{name: "any of several patterns", patterns: []string{"a/*.xml", "b/*.xml"}, entry: "b/x.xml", expected: true},
		{name: "regexp metacharacters are literal", patterns: []string{"out(1)/*.xml"}, entry: "out(1)/r.xml", expected: true},
		{name: "no patterns matches nothing", patterns: nil, entry: "r.xml", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := CompileGlobs(tt.patterns)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := m.Match(tt.entry); got != tt.expected {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.entry, tt.patterns, got, tt.expected)
			}
		})
	}
}

func TestMatcher_FilterNames(t *testing.T) {
	m := MustCompileGlobs("test-results/*.xml")

	names := []string{"test-results/a.xml", "test-results/nested/b.xml", "c.xml", "test-results/d.xml"}
	result := m.FilterNames(names)

	if len(result) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(result), result)
	}
	if result[0] != "test-results/a.xml" || result[1] != "test-results/d.xml" {
		t.Errorf("unexpected order or content: %v", result)
	}
}
