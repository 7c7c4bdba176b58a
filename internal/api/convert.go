package api

import (
	"fingersatz/internal/deps"
	"fingersatz/internal/jobs"
)

// FromJobEntry converts a journal record to its API representation.
func FromJobEntry(entry *jobs.Entry) JobEntry {
	if entry == nil {
		return JobEntry{}
	}

	dto := JobEntry{
		ID:           entry.ID,
		Source:       entry.Source,
		InputRef:     entry.InputRef,
		OutputRef:    entry.OutputRef,
		Status:       string(entry.Status),
		Message:      entry.Message,
		ErrorMessage: entry.ErrorMessage,
		HandSize:     entry.HandSize,
		Format:       entry.Format,
		RightPart:    entry.RightPart,
		LeftPart:     entry.LeftPart,
		DurationMS:   entry.DurationMS,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobEntries converts a slice of journal records into API DTOs.
func FromJobEntries(entries []*jobs.Entry) []JobEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]JobEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromJobEntry(entry))
	}
	return out
}

// FromHealthSummary converts journal health counters to the API payload.
func FromHealthSummary(summary jobs.HealthSummary) JobsHealth {
	return JobsHealth{
		Total:     summary.Total,
		Completed: summary.Completed,
		Failed:    summary.Failed,
	}
}

// FromDependencyStatuses converts dependency checks to API DTOs.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}
