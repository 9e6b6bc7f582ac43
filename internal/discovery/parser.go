package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"testviewer/internal/domain"
)

// ManifestName is the well-known manifest entry at the archive root
const ManifestName = "test-viewer.json"

// ManifestState tags the outcome of reading the manifest
type ManifestState int

const (
	ManifestAbsent ManifestState = iota
	ManifestValid
	ManifestInvalid
)

func (s ManifestState) String() string {
	switch s {
	case ManifestValid:
		return "valid"
	case ManifestInvalid:
		return "invalid"
	default:
		return "absent"
	}
}

// ManifestParseError is returned for a manifest that is not a JSON object of the expected shape
type ManifestParseError struct {
	Err error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", ManifestName, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestResult is the tagged outcome of manifest decoding.
// Manifest is only meaningful when State is ManifestValid.
type ManifestResult struct {
	State    ManifestState
	Manifest domain.Manifest
	Err      error
}

// ParseManifest decodes manifest content. A nil JUnit in the result means the key was absent;
// an empty non-nil slice means the manifest asked for no reports.
// Keys match exactly; differently cased keys are unknown and ignored.
func ParseManifest(content string) ManifestResult {
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))

	var doc map[string]json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return invalidManifest(err)
	}
	if doc == nil {
		return invalidManifest(errors.New("manifest is not an object"))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return invalidManifest(errors.New("trailing data after object"))
	}

	var m domain.Manifest
	if raw, ok := doc["junit"]; ok {
		var junit *[]string
		if err := json.Unmarshal(raw, &junit); err != nil {
			return invalidManifest(fmt.Errorf("junit: %w", err))
		}
		if junit != nil {
			m.JUnit = append([]string{}, (*junit)...)
		}
	}
	if raw, ok := doc["html_coverage"]; ok {
		var cov *string
		if err := json.Unmarshal(raw, &cov); err != nil {
			return invalidManifest(fmt.Errorf("html_coverage: %w", err))
		}
		if cov != nil {
			m.HTMLCoverage = *cov
		}
	}
	return ManifestResult{State: ManifestValid, Manifest: m}
}

func invalidManifest(err error) ManifestResult {
	return ManifestResult{State: ManifestInvalid, Err: &ManifestParseError{Err: err}}
}
