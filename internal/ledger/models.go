package ledger

import (
	"strings"
	"time"
)

// Status represents the outcome of a run or item.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReview    Status = "review"
	StatusSkipped   Status = "skipped"
)

var allStatuses = []Status{
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusReview,
	StatusSkipped,
}

// ParseStatus converts a string into a Status if known.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status will not change again.
func (s Status) IsTerminal() bool {
	return s != StatusRunning
}

// Run is one invocation of a pipeline command.
type Run struct {
	ID         string
	Command    string
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns the run wall time, measured to now when still running.
func (r Run) Duration() time.Duration {
	end := time.Now().UTC()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	if end.Before(r.StartedAt) {
		return 0
	}
	return end.Sub(r.StartedAt)
}

// Item is one file processed by one stage within a run.
type Item struct {
	ID        int64
	RunID     string
	Stage     string
	Input     string
	Output    string
	Status    Status
	Error     string
	StartedAt time.Time
	UpdatedAt time.Time
}

// Summary counts item outcomes for a run.
type Summary struct {
	Total     int
	Completed int
	Failed    int
	Review    int
	Skipped   int
	Running   int
}

func (s *Summary) add(status Status) {
	s.Total++
	switch status {
	case StatusCompleted:
		s.Completed++
	case StatusFailed:
		s.Failed++
	case StatusReview:
		s.Review++
	case StatusSkipped:
		s.Skipped++
	case StatusRunning:
		s.Running++
	}
}
