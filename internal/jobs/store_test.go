package jobs_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fingersatz/internal/jobs"
	"fingersatz/internal/testsupport"
)

func TestOpenInitializesSchemaAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	ctx := context.Background()
	entry := &jobs.Entry{
		Source:     jobs.SourceDirect,
		InputRef:   "inline:sample.musicxml",
		OutputRef:  "output/fingered_sample.musicxml",
		Status:     jobs.StatusCompleted,
		Message:    "File processed successfully",
		HandSize:   "M",
		Format:     "musicxml",
		LeftPart:   1,
		DurationMS: 420,
	}
	if err := journal.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("expected entry ID to be assigned")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected creation time to be filled")
	}

	fetched, err := journal.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.InputRef != "inline:sample.musicxml" || fetched.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected fetched entry: %#v", fetched)
	}
	if !fetched.Succeeded() {
		t.Fatal("expected completed entry to report success")
	}
}

func TestRecordRejectsNonTerminalStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	entry := &jobs.Entry{Source: jobs.SourceCLI, Status: jobs.Status("running")}
	if err := journal.Record(context.Background(), entry); err == nil {
		t.Fatal("expected non-terminal status to be rejected")
	}
}

func TestGetByIDMissingRowYieldsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	entry, err := journal.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for missing row, got %#v", entry)
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		status := jobs.StatusCompleted
		if i == 1 {
			status = jobs.StatusFailed
		}
		testsupport.RecordEntry(t, journal, &jobs.Entry{
			Source:   jobs.SourceStorage,
			InputRef: fmt.Sprintf("scores/upload-%d.musicxml", i),
			Status:   status,
		})
	}

	all, err := journal.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].InputRef != "scores/upload-2.musicxml" {
		t.Fatalf("expected newest entry first, got %q", all[0].InputRef)
	}

	failed, err := journal.List(ctx, jobs.StatusFailed, 10)
	if err != nil {
		t.Fatalf("List failed entries: %v", err)
	}
	if len(failed) != 1 || failed[0].InputRef != "scores/upload-1.musicxml" {
		t.Fatalf("unexpected failed entries: %#v", failed)
	}

	limited, err := journal.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(limited))
	}
}

func TestStatsAndHealthAggregate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	for i := 0; i < 4; i++ {
		status := jobs.StatusCompleted
		if i%2 == 1 {
			status = jobs.StatusFailed
		}
		testsupport.RecordEntry(t, journal, &jobs.Entry{Source: jobs.SourceDirect, Status: status})
	}

	stats, err := journal.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobs.StatusCompleted] != 2 || stats[jobs.StatusFailed] != 2 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := journal.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 4 || health.Completed != 2 || health.Failed != 2 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal := testsupport.MustOpenJournal(t, cfg)

	testsupport.RecordEntry(t, journal, &jobs.Entry{Source: jobs.SourceDirect, Status: jobs.StatusCompleted})

	removed, err := journal.Prune(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("fresh entries should survive pruning, removed %d", removed)
	}

	removed, err = journal.Prune(context.Background(), time.Nanosecond)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected stale entry to be pruned, removed %d", removed)
	}

	if _, err := journal.Prune(context.Background(), 0); err == nil {
		t.Fatal("expected non-positive retention to be rejected")
	}
}
