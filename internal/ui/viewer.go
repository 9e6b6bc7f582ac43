package ui

import "testviewer/internal/session"

// Viewer displays test results in an interactive TUI
type Viewer interface {
	View(st session.State) error
}
