package testsupport

import (
	"context"
	"testing"

	"fingersatz/internal/config"
	"fingersatz/internal/jobs"
)

// MustOpenJournal opens a jobs.Journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *jobs.Journal {
	t.Helper()

	journal, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		journal.Close()
	})
	return journal
}

// RecordEntry journals a terminal entry for tests using the provided journal.
func RecordEntry(t testing.TB, journal *jobs.Journal, entry *jobs.Entry) *jobs.Entry {
	t.Helper()

	if err := journal.Record(context.Background(), entry); err != nil {
		t.Fatalf("journal.Record: %v", err)
	}
	return entry
}
