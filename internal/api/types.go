package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobEntry describes a journaled run in a transport-friendly format.
type JobEntry struct {
	ID           int64  `json:"id"`
	Source       string `json:"source"`
	InputRef     string `json:"inputRef,omitempty"`
	OutputRef    string `json:"outputRef,omitempty"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	HandSize     string `json:"handSize,omitempty"`
	Format       string `json:"format,omitempty"`
	RightPart    int    `json:"rightPart"`
	LeftPart     int    `json:"leftPart"`
	DurationMS   int64  `json:"durationMs"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// JobsHealth summarizes journal state.
type JobsHealth struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	DeliveryMode  string             `json:"deliveryMode"`
	JournalDBPath string             `json:"journalDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	Jobs          JobsHealth         `json:"jobs"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// StatusLine is a labeled status row rendered by the CLI.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}

// JobListResponse wraps a collection of journal entries for API responses.
type JobListResponse struct {
	Jobs []JobEntry `json:"jobs"`
}

// JobEntryResponse wraps a single journal entry.
type JobEntryResponse struct {
	Job JobEntry `json:"job"`
}

// HealthResponse reports daemon liveness for probes.
type HealthResponse struct {
	Status string     `json:"status"`
	Jobs   JobsHealth `json:"jobs"`
}

// NotifyTestResponse reports the outcome of a test notification.
type NotifyTestResponse struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail,omitempty"`
}
