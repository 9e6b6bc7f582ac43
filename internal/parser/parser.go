package parser

import (
	"fmt"
	"io"

	"testviewer/internal/domain"
)

// Parser turns one report entry into normalized test records
type Parser interface {
	Parse(artifactName string, r io.Reader) ([]domain.TestRecord, error)
}

// ReportParseError is returned when a report entry is not well-formed
type ReportParseError struct {
	Err error
}

func (e *ReportParseError) Error() string {
	return fmt.Sprintf("parse report: %v", e.Err)
}

func (e *ReportParseError) Unwrap() error {
	return e.Err
}
