package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"testviewer/internal/domain"
	"testviewer/internal/session"
)

// StatusFilter restricts the records listed by the viewer
type StatusFilter int

const (
	FilterAll StatusFilter = iota
	FilterFailed
	FilterSkipped
	FilterPassed
)

func (f StatusFilter) String() string {
	switch f {
	case FilterFailed:
		return "failed"
	case FilterSkipped:
		return "skipped"
	case FilterPassed:
		return "passed"
	default:
		return "all"
	}
}

// Next cycles all -> failed -> skipped -> passed -> all
func (f StatusFilter) Next() StatusFilter {
	return (f + 1) % 4
}

func (f StatusFilter) match(s domain.Status) bool {
	switch f {
	case FilterFailed:
		return s == domain.StatusFailed
	case FilterSkipped:
		return s == domain.StatusSkipped
	case FilterPassed:
		return s == domain.StatusPassed
	default:
		return true
	}
}

// filterRecords keeps the canonical order of the live set
func filterRecords(records []domain.TestRecord, f StatusFilter) []domain.TestRecord {
	var out []domain.TestRecord
	for _, r := range records {
		if f.match(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// ResultsViewer browses test records in an interactive TUI
type ResultsViewer struct{}

// NewResultsViewer creates a new ResultsViewer
func NewResultsViewer() *ResultsViewer {
	return &ResultsViewer{}
}

// View displays a fixed snapshot of results
func (rv *ResultsViewer) View(st session.State) error {
	if len(st.Records) == 0 && !st.TestsLoading {
		color.Yellow("No test results found")
		return nil
	}
	b := newBrowser(st)
	return b.run(nil)
}

// Watch displays the session's live results, refreshing as batches are merged
func (rv *ResultsViewer) Watch(sess *session.Session) error {
	b := newBrowser(sess.Snapshot())
	return b.run(sess)
}

type browser struct {
	mu      sync.Mutex
	state   session.State
	visible []domain.TestRecord
	filter  StatusFilter

	app         *tview.Application
	list        *tview.List
	headerView  *tview.TextView
	statsView   *tview.TextView
	detailsView *tview.TextView
}

func newBrowser(st session.State) *browser {
	b := &browser{state: st}
	b.app = tview.NewApplication()

	// Create list for test records (left side)
	b.list = tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	b.list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	b.headerView = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	b.statsView = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	b.detailsView = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	b.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			b.app.SetFocus(b.detailsView)
			return nil
		case tcell.KeyCtrlC:
			b.app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'f', 'F':
				b.mu.Lock()
				b.filter = b.filter.Next()
				b.mu.Unlock()
				b.refresh()
				return nil
			case 'q':
				b.app.Stop()
				return nil
			}
		}
		return event
	})

	b.detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			b.app.SetFocus(b.list)
			return nil
		case tcell.KeyCtrlC:
			b.app.Stop()
			return nil
		}
		return event
	})

	b.list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		b.updateDetails(index)
	})

	return b
}

func (b *browser) layout() tview.Primitive {
	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(b.detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(b.statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(b.list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(b.headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)
}

func (b *browser) run(sess *session.Session) error {
	b.refresh()

	done := make(chan struct{})
	defer close(done)
	if sess != nil {
		changes := sess.Subscribe()
		go func() {
			for {
				select {
				case <-done:
					return
				case <-changes:
					st := sess.Snapshot()
					b.app.QueueUpdateDraw(func() {
						b.mu.Lock()
						b.state = st
						b.mu.Unlock()
						b.refresh()
					})
				}
			}
		}()
	}

	if err := b.app.SetRoot(b.layout(), true).SetFocus(b.list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// refresh rebuilds the list from the current state, keeping the selected record when it is still visible
func (b *browser) refresh() {
	b.mu.Lock()
	var selectedID string
	if i := b.list.GetCurrentItem(); i >= 0 && i < len(b.visible) {
		selectedID = b.visible[i].ID
	}
	b.visible = filterRecords(b.state.Records, b.filter)
	visible := b.visible
	header := headerText(b.state, b.filter)
	b.mu.Unlock()

	b.list.Clear()
	selected := 0
	for i, r := range visible {
		if r.ID == selectedID {
			selected = i
		}
		b.list.AddItem(listItemText(r), "", 0, nil)
	}
	b.headerView.SetText(header)
	if len(visible) > 0 {
		b.list.SetCurrentItem(selected)
	}
	b.updateDetails(selected)
}

func (b *browser) updateDetails(index int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.visible) {
		b.statsView.SetText("")
		b.detailsView.SetText("")
		return
	}
	r := b.visible[index]
	b.statsView.SetText(formatRecordStats(r))
	b.detailsView.SetText(formatRecordDetails(r)).ScrollToBeginning()
}

func headerText(st session.State, filter StatusFilter) string {
	c := domain.Count(st.Records)
	loading := ""
	switch {
	case st.ArtifactsLoading:
		loading = " [yellow]loading artifacts…[white] |"
	case st.TestsLoading:
		loading = " [yellow]loading tests…[white] |"
	}
	errText := ""
	if st.Err != nil {
		errText = fmt.Sprintf(" [red]%s[white] |", tview.Escape(st.Err.Error()))
	}
	return fmt.Sprintf(" Run %d:%s%s [red]%d failed[white], [yellow]%d skipped[white], [green]%d passed[white] | filter: %s | ↑↓ navigate, [yellow]F[white] filter, → details, ← back, q quit ",
		st.RunID, loading, errText, c.Failed, c.Skipped, c.Passed, filter)
}

func listItemText(r domain.TestRecord) string {
	name := tview.Escape(r.Name)
	switch r.Status {
	case domain.StatusFailed:
		return "[red]✗[white] " + name
	case domain.StatusSkipped:
		return "[yellow]○[white] " + name
	default:
		return "[green]✓[white] " + name
	}
}

// formatRecordStats formats the header line for a record
func formatRecordStats(r domain.TestRecord) string {
	suite := r.Suite
	if suite == "" {
		suite = "Unknown suite"
	}
	return fmt.Sprintf("[cyan]suite:[white] [yellow]%s[white]\n[cyan]duration:[white] %s",
		tview.Escape(suite), FormatDuration(r.DurationSeconds))
}

// formatRecordDetails formats a record for display using tview color tags
func formatRecordDetails(r domain.TestRecord) string {
	var b strings.Builder

	switch r.Status {
	case domain.StatusFailed:
		fmt.Fprintf(&b, "[red]✗ %s[white]\n\n", tview.Escape(r.Name))
	case domain.StatusSkipped:
		fmt.Fprintf(&b, "[yellow]○ %s[white]\n\n", tview.Escape(r.Name))
	default:
		fmt.Fprintf(&b, "[green]✓ %s[white]\n\n", tview.Escape(r.Name))
	}

	if r.ErrorType != "" {
		fmt.Fprintf(&b, "[yellow]Type:[white] %s\n\n", tview.Escape(r.ErrorType))
	}
	if r.ErrorMessage != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white]\n%s\n\n", tview.Escape(r.ErrorMessage))
	}
	if r.ErrorContent != "" {
		fmt.Fprintf(&b, "[yellow]Details:[white]\n%s\n\n", tview.Escape(r.ErrorContent))
	}
	if r.SkippedMessage != "" {
		fmt.Fprintf(&b, "[yellow]Skipped:[white] %s\n\n", tview.Escape(r.SkippedMessage))
	}
	if r.Stdout != "" {
		fmt.Fprintf(&b, "[cyan]Stdout:[white]\n%s\n\n", tview.Escape(r.Stdout))
	}
	if r.Stderr != "" {
		fmt.Fprintf(&b, "[cyan]Stderr:[white]\n%s\n", tview.Escape(r.Stderr))
	}
	return b.String()
}
