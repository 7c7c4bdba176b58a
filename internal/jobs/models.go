package jobs

import "time"

// Status is the terminal state of a journaled run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Source identifies which surface accepted the request.
const (
	SourceDirect  = "direct"
	SourceStorage = "storage"
	SourceCLI     = "cli"
)

// Entry is one journaled invocation.
type Entry struct {
	ID           int64
	Source       string
	InputRef     string
	OutputRef    string
	Status       Status
	Message      string
	ErrorMessage string
	HandSize     string
	Format       string
	RightPart    int
	LeftPart     int
	DurationMS   int64
	CreatedAt    time.Time
}

// Succeeded reports whether the run completed.
func (e *Entry) Succeeded() bool {
	return e != nil && e.Status == StatusCompleted
}

// HealthSummary aggregates journal state for diagnostics.
type HealthSummary struct {
	Total     int
	Completed int
	Failed    int
}
