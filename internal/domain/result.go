package domain

// Status is the outcome of a single test case
type Status string

const (
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPassed  Status = "passed"
)

// Rank orders statuses for display: failed first, then skipped, then passed.
func (s Status) Rank() int {
	switch s {
	case StatusFailed:
		return 0
	case StatusSkipped:
		return 1
	default:
		return 2
	}
}

// TestRecord is one normalized test case parsed from a report entry
type TestRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Suite           string  `json:"suite"`
	Status          Status  `json:"status"`
	DurationSeconds float64 `json:"duration"`
	Stdout          string  `json:"stdout,omitempty"`
	Stderr          string  `json:"stderr,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	ErrorType       string  `json:"error_type,omitempty"`
	ErrorContent    string  `json:"error_content,omitempty"`
	SkippedMessage  string  `json:"skipped_message,omitempty"`
}

// ResultCounts summarizes a record set by status
type ResultCounts struct {
	Total   int
	Failed  int
	Skipped int
	Passed  int
}

// Count tallies records by status.
func Count(records []TestRecord) ResultCounts {
	c := ResultCounts{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		default:
			c.Passed++
		}
	}
	return c
}
