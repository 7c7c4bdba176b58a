package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fingersatz/internal/config"
	"fingersatz/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func serviceFor(topic string, completion, errors bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Completion = completion
	cfg.Notifications.Errors = errors
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := serviceFor("", true, true)
	err := svc.Publish(context.Background(), notifications.EventProcessingCompleted, notifications.Payload{"input": "sample.musicxml"})
	if err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestPublishFormatsEvents(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "processing completed",
			event: notifications.EventProcessingCompleted,
			payload: notifications.Payload{
				"input":  "prelude.musicxml",
				"output": "scores-output/processed/prelude.musicxml",
			},
			expectTitle: "Fingersatz - Score Ready",
			expectBody:  "🎹 Fingering complete: Prelude\nDelivered to: scores-output/processed/prelude.musicxml",
			expectTags:  "fingersatz,fingering,completed",
		},
		{
			name:  "processing failed",
			event: notifications.EventProcessingFailed,
			payload: notifications.Payload{
				"input": "broken.musicxml",
				"error": "processing error: fingering: parse: read score",
			},
			expectTitle:    "Fingersatz - Error",
			expectBody:     "❌ Error processing broken.musicxml: processing error: fingering: parse: read score",
			expectTags:     "fingersatz,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test event",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Fingersatz - Test",
			expectBody:     "Notification system test",
			expectTags:     "fingersatz,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := newCaptureServer(t)
			svc := serviceFor(server.URL, true, true)

			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			if len(*requests) != 1 {
				t.Fatalf("expected one request, got %d", len(*requests))
			}
			got := (*requests)[0]
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectBody {
				t.Fatalf("body = %q, want %q", got.body, tc.expectBody)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestPublishRespectsToggles(t *testing.T) {
	server, requests := newCaptureServer(t)
	svc := serviceFor(server.URL, false, false)

	ctx := context.Background()
	if err := svc.Publish(ctx, notifications.EventProcessingCompleted, notifications.Payload{"input": "a"}); err != nil {
		t.Fatalf("Publish completed: %v", err)
	}
	if err := svc.Publish(ctx, notifications.EventProcessingFailed, notifications.Payload{"input": "a", "error": "boom"}); err != nil {
		t.Fatalf("Publish failed event: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("disabled toggles should suppress sends, saw %d requests", len(*requests))
	}
}

func TestPublishRejectsUnknownEvent(t *testing.T) {
	server, _ := newCaptureServer(t)
	svc := serviceFor(server.URL, true, true)

	err := svc.Publish(context.Background(), notifications.Event("mystery"), nil)
	if err == nil {
		t.Fatal("expected unknown event to be rejected")
	}
}

func TestPublishSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)
	svc := serviceFor(server.URL, true, true)

	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected server error to propagate")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry the ntfy status, got %v", err)
	}
}
