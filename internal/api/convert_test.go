package api

import (
	"testing"

	"fingersatz/internal/deps"
	"fingersatz/internal/jobs"
)

func TestFromJobEntryNil(t *testing.T) {
	dto := FromJobEntry(nil)
	if dto.ID != 0 || dto.Status != "" {
		t.Fatalf("expected zero DTO, got %+v", dto)
	}
}

func TestFromJobEntryOmitsZeroTimestamp(t *testing.T) {
	dto := FromJobEntry(&jobs.Entry{ID: 1, Source: jobs.SourceStorage, Status: jobs.StatusFailed})
	if dto.CreatedAt != "" {
		t.Fatalf("expected empty timestamp, got %q", dto.CreatedAt)
	}
	if dto.Status != "failed" {
		t.Fatalf("unexpected status: %q", dto.Status)
	}
}

func TestFromJobEntriesEmpty(t *testing.T) {
	if out := FromJobEntries(nil); out != nil {
		t.Fatalf("expected nil for empty input, got %+v", out)
	}
}

func TestFromDependencyStatuses(t *testing.T) {
	out := FromDependencyStatuses([]deps.Status{{
		Name:      "pianoplayer",
		Command:   "/usr/local/bin/pianoplayer",
		Available: true,
	}})
	if len(out) != 1 {
		t.Fatalf("expected 1 status, got %d", len(out))
	}
	if out[0].Name != "pianoplayer" || !out[0].Available {
		t.Fatalf("unexpected status: %+v", out[0])
	}
}
