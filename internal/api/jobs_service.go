package api

import (
	"context"

	"fingersatz/internal/jobs"
)

// JournalReader abstracts journal persistence interactions needed for API
// queries.
type JournalReader interface {
	List(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Entry, error)
	GetByID(ctx context.Context, id int64) (*jobs.Entry, error)
	Health(ctx context.Context) (jobs.HealthSummary, error)
}

// JobsService exposes read-only journal operations returning API DTOs.
type JobsService struct {
	journal JournalReader
}

// NewJobsService constructs a JobsService around the provided reader.
func NewJobsService(journal JournalReader) *JobsService {
	if journal == nil {
		return nil
	}
	return &JobsService{journal: journal}
}

// List returns journal entries filtered by status, newest first.
func (s *JobsService) List(ctx context.Context, status jobs.Status, limit int) ([]JobEntry, error) {
	if s == nil || s.journal == nil {
		return nil, nil
	}
	entries, err := s.journal.List(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	return FromJobEntries(entries), nil
}

// Describe fetches a single journal entry.
func (s *JobsService) Describe(ctx context.Context, id int64) (*JobEntry, error) {
	if s == nil || s.journal == nil {
		return nil, nil
	}
	entry, err := s.journal.GetByID(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromJobEntry(entry)
	return &dto, nil
}

// Health returns aggregate journal counters.
func (s *JobsService) Health(ctx context.Context) (JobsHealth, error) {
	if s == nil || s.journal == nil {
		return JobsHealth{}, nil
	}
	summary, err := s.journal.Health(ctx)
	if err != nil {
		return JobsHealth{}, err
	}
	return FromHealthSummary(summary), nil
}
