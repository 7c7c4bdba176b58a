package apiclient

import (
	"net/http"

	"fingersatz/internal/api"
)

// Wire types are shared with the daemon's api package so the client and
// server cannot drift apart.
type (
	HealthResponse     = api.HealthResponse
	DaemonStatus       = api.DaemonStatus
	DependencyStatus   = api.DependencyStatus
	JobEntry           = api.JobEntry
	JobListResponse    = api.JobListResponse
	JobEntryResponse   = api.JobEntryResponse
	JobsHealth         = api.JobsHealth
	NotifyTestResponse = api.NotifyTestResponse
)

// FingeringResult mirrors the direct-response payload of the fingerings
// endpoint. StatusCode carries the HTTP status the daemon rendered.
type FingeringResult struct {
	StatusCode  int    `json:"-"`
	OutputFile  string `json:"output_file"`
	S3Bucket    string `json:"s3_bucket"`
	S3Key       string `json:"s3_key"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
	Error       string `json:"error"`
	Traceback   string `json:"traceback"`
}

// OK reports whether the submission succeeded.
func (r *FingeringResult) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}
