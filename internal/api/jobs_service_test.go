package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"fingersatz/internal/jobs"
)

type mockJournalReader struct {
	entries   []*jobs.Entry
	health    jobs.HealthSummary
	listErr   error
	healthErr error
}

func (m *mockJournalReader) List(context.Context, jobs.Status, int) ([]*jobs.Entry, error) {
	return m.entries, m.listErr
}

func (m *mockJournalReader) GetByID(context.Context, int64) (*jobs.Entry, error) {
	if len(m.entries) == 0 {
		return nil, nil
	}
	return m.entries[0], nil
}

func (m *mockJournalReader) Health(context.Context) (jobs.HealthSummary, error) {
	return m.health, m.healthErr
}

func TestNewJobsServiceNilReader(t *testing.T) {
	if svc := NewJobsService(nil); svc != nil {
		t.Fatal("expected nil service for nil reader")
	}
}

func TestJobsServiceList(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	reader := &mockJournalReader{entries: []*jobs.Entry{{
		ID:        7,
		Source:    jobs.SourceDirect,
		InputRef:  "prelude.musicxml",
		OutputRef: "s3://scores-output/fingered_scores/abc.musicxml",
		Status:    jobs.StatusCompleted,
		HandSize:  "M",
		CreatedAt: created,
	}}}
	svc := NewJobsService(reader)

	entries, err := svc.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != 7 || entries[0].Status != "completed" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].CreatedAt != "2026-03-14T09:30:00.000Z" {
		t.Fatalf("unexpected timestamp: %q", entries[0].CreatedAt)
	}
}

func TestJobsServiceListPropagatesError(t *testing.T) {
	svc := NewJobsService(&mockJournalReader{listErr: errors.New("boom")})
	if _, err := svc.List(context.Background(), "", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestJobsServiceDescribeMissing(t *testing.T) {
	svc := NewJobsService(&mockJournalReader{})
	entry, err := svc.Describe(context.Background(), 42)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for missing entry, got %+v", entry)
	}
}

func TestJobsServiceHealth(t *testing.T) {
	svc := NewJobsService(&mockJournalReader{health: jobs.HealthSummary{Total: 3, Completed: 2, Failed: 1}})
	health, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Completed != 2 || health.Failed != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
}
