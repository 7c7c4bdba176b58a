package objectstore_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"fingersatz/internal/config"
	"fingersatz/internal/objectstore"
)

func testConfig() config.ObjectStore {
	return config.ObjectStore{
		Endpoint:  "localhost:9000",
		AccessKey: "fingersatz",
		SecretKey: "fingersatz-secret",
		Region:    "us-east-1",
	}
}

func TestNewRequiresEndpointAndCredentials(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.ObjectStore)
	}{
		{"missing endpoint", func(c *config.ObjectStore) { c.Endpoint = "" }},
		{"missing access key", func(c *config.ObjectStore) { c.AccessKey = "" }},
		{"missing secret key", func(c *config.ObjectStore) { c.SecretKey = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := objectstore.New(cfg); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestPresignGetEncodesExpiry(t *testing.T) {
	store, err := objectstore.New(testConfig())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	link, err := store.PresignGet(context.Background(), "scores-output", "fingered_scores/abc.musicxml", time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("presigned link is not a URL: %v", err)
	}
	if !strings.Contains(parsed.Path, "scores-output") || !strings.Contains(parsed.Path, "fingered_scores/abc.musicxml") {
		t.Fatalf("presigned path missing object coordinates: %q", parsed.Path)
	}
	if got := parsed.Query().Get("X-Amz-Expires"); got != "3600" {
		t.Fatalf("expiry parameter = %q, want 3600", got)
	}
}

func TestPresignGetDefaultsToOneHour(t *testing.T) {
	store, err := objectstore.New(testConfig())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	link, err := store.PresignGet(context.Background(), "scores-output", "processed/score.musicxml", 0)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("presigned link is not a URL: %v", err)
	}
	if got := parsed.Query().Get("X-Amz-Expires"); got != "3600" {
		t.Fatalf("expiry parameter = %q, want 3600", got)
	}
}
