package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"testviewer/internal/domain"
)

// JUnitParser parses JUnit-style XML reports
type JUnitParser struct{}

// NewJUnitParser creates a new JUnitParser
func NewJUnitParser() *JUnitParser {
	return &JUnitParser{}
}

type xmlCase struct {
	Name      string       `xml:"name,attr"`
	ClassName string       `xml:"classname,attr"`
	Time      string       `xml:"time,attr"`
	Failures  []xmlProblem `xml:"failure"`
	Errors    []xmlProblem `xml:"error"`
	Skipped   []xmlSkipped `xml:"skipped"`
	SystemOut []string     `xml:"system-out"`
	SystemErr []string     `xml:"system-err"`
}

type xmlProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type xmlSkipped struct {
	Message string `xml:"message,attr"`
}

type suiteFrame struct {
	name string
	next int // position of the next testcase within this suite
}

// Parse streams the document and emits one record per testcase, attributed to its
// nearest enclosing testsuite. Testcases outside any testsuite are ignored.
// Any XML error discards the whole entry.
func (p *JUnitParser) Parse(artifactName string, r io.Reader) ([]domain.TestRecord, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var records []domain.TestRecord
	var suites []*suiteFrame
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ReportParseError{Err: err}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			switch el.Name.Local {
			case "testsuite":
				suites = append(suites, &suiteFrame{name: attr(el, "name")})
			case "testcase":
				var tc xmlCase
				if err := dec.DecodeElement(&tc, &el); err != nil {
					return nil, &ReportParseError{Err: err}
				}
				if len(suites) == 0 {
					continue
				}
				suite := suites[len(suites)-1]
				records = append(records, buildRecord(artifactName, suite.name, suite.next, tc))
				suite.next++
			}
		case xml.EndElement:
			if el.Name.Local == "testsuite" && len(suites) > 0 {
				suites = suites[:len(suites)-1]
			}
		}
	}

	if !sawRoot {
		return nil, &ReportParseError{Err: errors.New("document has no root element")}
	}
	return records, nil
}

func buildRecord(artifactName, suiteName string, index int, tc xmlCase) domain.TestRecord {
	record := domain.TestRecord{
		// JUnit does not require unique names, so the position within the suite disambiguates.
		ID:              fmt.Sprintf("%s-%s-%s-%s-%d", artifactName, suiteName, tc.ClassName, tc.Name, index),
		Name:            displayName(suiteName, tc.ClassName, tc.Name),
		Suite:           joinNonBlank(" • ", suiteName, artifactName),
		Status:          domain.StatusPassed,
		DurationSeconds: parseSeconds(tc.Time),
		Stdout:          strings.TrimSpace(first(tc.SystemOut)),
		Stderr:          strings.TrimSpace(first(tc.SystemErr)),
	}

	var problem *xmlProblem
	if len(tc.Failures) > 0 {
		problem = &tc.Failures[0]
	} else if len(tc.Errors) > 0 {
		problem = &tc.Errors[0]
	}

	switch {
	case problem != nil:
		record.Status = domain.StatusFailed
		record.ErrorMessage = problem.Message
		record.ErrorType = problem.Type
		record.ErrorContent = problem.Body
	case len(tc.Skipped) > 0:
		record.Status = domain.StatusSkipped
		record.SkippedMessage = tc.Skipped[0].Message
	}
	return record
}

func displayName(suiteName, className, caseName string) string {
	if className == suiteName {
		className = ""
	}
	return joinNonBlank(" > ", className, caseName)
}

func joinNonBlank(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// parseSeconds never fails: absent, malformed and non-finite values are 0
func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
