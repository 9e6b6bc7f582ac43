package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testviewer/internal/domain"
)

func parse(t *testing.T, content string) []domain.TestRecord {
	t.Helper()
	records, err := NewJUnitParser().Parse("test-results", strings.NewReader(content))
	require.NoError(t, err)
	return records
}

func TestJUnitParser_PassingAndFailingCases(t *testing.T) {
	records := parse(t, `<?xml version="1.0" encoding="UTF-8"?>
<testsuites>
  <testsuite name="Suite1">
    <testcase name="testA" time="0.5"/>
    <testcase name="testB" classname="Suite1" time="1.25">
      <failure message="boom" type="AssertionError">expected 1 got 2</failure>
      <system-out>
        hello from stdout
      </system-out>
      <system-err>warning</system-err>
    </testcase>
  </testsuite>
</testsuites>`)

	require.Len(t, records, 2)

	a, b := records[0], records[1]
	assert.Equal(t, "testA", a.Name)
	assert.Equal(t, domain.StatusPassed, a.Status)
	assert.Equal(t, 0.5, a.DurationSeconds)
	assert.Equal(t, "Suite1 • test-results", a.Suite)
	assert.Empty(t, a.ErrorMessage)

	assert.Equal(t, "testB", b.Name, "classname equal to suite name is not repeated")
	assert.Equal(t, domain.StatusFailed, b.Status)
	assert.Equal(t, "boom", b.ErrorMessage)
	assert.Equal(t, "AssertionError", b.ErrorType)
	assert.Equal(t, "expected 1 got 2", b.ErrorContent)
	assert.Equal(t, "hello from stdout", b.Stdout)
	assert.Equal(t, "warning", b.Stderr)
	assert.Equal(t, "test-results-Suite1-Suite1-testB-1", b.ID)
}

func TestJUnitParser_StatusDerivation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  domain.Status
		wantMessage string
	}{
		{name: "passed", body: ``, wantStatus: domain.StatusPassed},
		{name: "error element", body: `<error message="npe" type="NullPointerException"/>`, wantStatus: domain.StatusFailed, wantMessage: "npe"},
		{name: "skipped", body: `<skipped message="flaky"/>`, wantStatus: domain.StatusSkipped},
		{name: "failure wins over skipped", body: `<skipped message="s"/><failure message="f"/>`, wantStatus: domain.StatusFailed, wantMessage: "f"},
		{name: "failure wins over error", body: `<error message="e"/><failure message="f"/>`, wantStatus: domain.StatusFailed, wantMessage: "f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := parse(t, `<testsuite name="S"><testcase name="c">`+tt.body+`</testcase></testsuite>`)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantStatus, records[0].Status)
			assert.Equal(t, tt.wantMessage, records[0].ErrorMessage)
		})
	}

	t.Run("skipped message captured", func(t *testing.T) {
		records := parse(t, `<testsuite name="S"><testcase name="c"><skipped message="not on CI"/></testcase></testsuite>`)
		require.Len(t, records, 1)
		assert.Equal(t, "not on CI", records[0].SkippedMessage)
	})
}

func TestJUnitParser_Durations(t *testing.T) {
	tests := []struct {
		name string
		attr string
		want float64
	}{
		{name: "absent", attr: ``, want: 0},
		{name: "decimal", attr: ` time="2.5"`, want: 2.5},
		{name: "unparsable", attr: ` time="fast"`, want: 0},
		{name: "empty", attr: ` time=""`, want: 0},
		{name: "not a number", attr: ` time="NaN"`, want: 0},
		{name: "infinite", attr: ` time="+Inf"`, want: 0},
		{name: "surrounding spaces", attr: ` time=" 0.75 "`, want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := parse(t, `<testsuite name="S"><testcase name="c"`+tt.attr+`/></testsuite>`)
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0].DurationSeconds)
		})
	}
}

func TestJUnitParser_UniqueIDsForDuplicateNames(t *testing.T) {
	records := parse(t, `<testsuites>
  <testsuite name="A">
    <testcase name="same" classname="pkg.T"/>
    <testcase name="same" classname="pkg.T"/>
  </testsuite>
  <testsuite name="B">
    <testcase name="same" classname="pkg.T"/>
  </testsuite>
  <testsuite name="A">
    <testcase name="same" classname="pkg.T"/>
  </testsuite>
</testsuites>`)

	require.Len(t, records, 4)
	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.Equal(t, "pkg.T > same", r.Name)
	}
}

func TestJUnitParser_NestedSuites(t *testing.T) {
	records := parse(t, `<testsuites>
  <testsuite name="outer">
    <testcase name="one"/>
    <testsuite name="inner">
      <testcase name="two"/>
      <testcase name="three"/>
    </testsuite>
    <testcase name="four"/>
  </testsuite>
</testsuites>`)

	require.Len(t, records, 4, "each testcase is counted once")
	suites := map[string]string{}
	for _, r := range records {
		suites[r.Name] = r.Suite
	}
	assert.Equal(t, "outer • test-results", suites["one"])
	assert.Equal(t, "inner • test-results", suites["two"])
	assert.Equal(t, "outer • test-results", suites["four"])
}

func TestJUnitParser_CaseOutsideSuiteIgnored(t *testing.T) {
	records := parse(t, `<testsuites><testcase name="orphan"/></testsuites>`)
	assert.Empty(t, records)
}

func TestJUnitParser_Latin1Encoding(t *testing.T) {
	content := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><testsuite name=\"S\"><testcase name=\"caf\xe9\"/></testsuite>"
	records := parse(t, content)
	require.Len(t, records, 1)
	assert.Equal(t, "café", records[0].Name)
}

func TestJUnitParser_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unclosed element", content: `<testsuite name="S"><testcase name="c">`},
		{name: "mismatched tags", content: `<testsuite><testcase></testsuite></testcase>`},
		{name: "empty document", content: ``},
		{name: "plain text", content: `this is not xml`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewJUnitParser().Parse("a", strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Nil(t, records)

			var parseErr *ReportParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}
