package github

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthExpired means the token was rejected (HTTP 401)
	ErrAuthExpired = errors.New("authentication expired")
	// ErrAccessDenied means the token lacks permission (HTTP 403)
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound means the repository, run or artifact does not exist or is hidden (HTTP 404)
	ErrNotFound = errors.New("not found")
	// ErrTransport covers every other failure to talk to the API
	ErrTransport = errors.New("transport error")
)

// APIError is a non-2xx response from the GitHub API
type APIError struct {
	Status  int
	URL     string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api %s: %d %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("github api %s: %d", e.URL, e.Status)
}

// Unwrap maps the status code onto one of the package sentinels
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrAuthExpired
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

// Subject names what a failed request was loading
type Subject int

const (
	SubjectRuns Subject = iota
	SubjectRun
	SubjectArtifacts
	SubjectArtifact
)

type messages struct {
	notFound string
	denied   string
	generic  string
}

var subjectMessages = map[Subject]messages{
	SubjectRuns: {
		notFound: "Repository not found or you don't have access to it.",
		denied:   "Access denied. You may not have permission to view this repository's actions.",
		generic:  "Failed to fetch workflow runs. Please try again.",
	},
	SubjectRun: {
		notFound: "Workflow run not found.",
		denied:   "Access denied. You may not have permission to view this workflow run.",
		generic:  "Failed to fetch workflow run. Please try again.",
	},
	SubjectArtifacts: {
		notFound: "Artifacts not found for this workflow run.",
		denied:   "Access denied. You may not have permission to view artifacts.",
		generic:  "Failed to fetch artifacts. Please try again.",
	},
	SubjectArtifact: {
		notFound: "Artifact not found or has expired.",
		denied:   "Access denied. You may not have permission to download this artifact.",
		generic:  "Failed to download artifact. Please try again.",
	},
}

// UserMessage turns an API failure into the text shown to the user
func UserMessage(err error, subject Subject) string {
	m := subjectMessages[subject]
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthExpired):
		return "Authentication failed. Your token may have expired. Please sign in again."
	case errors.Is(err, ErrNotFound):
		return m.notFound
	case errors.Is(err, ErrAccessDenied):
		return m.denied
	default:
		return m.generic
	}
}
