package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fingersatz/internal/config"
	"fingersatz/internal/textutil"
)

const userAgent = "Fingersatz/0.1.0"

// Event identifies a pipeline milestone worth telling the operator about.
type Event string

const (
	EventProcessingCompleted Event = "processing_completed"
	EventProcessingFailed    Event = "processing_failed"
	EventTest                Event = "test"
)

// Payload carries the event's display fields. Recognized keys are "input",
// "output", and "error".
type Payload map[string]string

// Service defines the notification surface exposed to the handler.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	switch event {
	case EventProcessingCompleted:
		if !n.completion {
			return nil
		}
		body := fmt.Sprintf("🎹 Fingering complete: %s", textutil.DisplayTitle(payload["input"]))
		if output := strings.TrimSpace(payload["output"]); output != "" {
			body = fmt.Sprintf("%s\nDelivered to: %s", body, output)
		}
		return n.send(ctx, message{
			title: "Fingersatz - Score Ready",
			body:  body,
			tags:  []string{"fingersatz", "fingering", "completed"},
		})
	case EventProcessingFailed:
		if !n.errors {
			return nil
		}
		detail := strings.TrimSpace(payload["error"])
		if detail == "" {
			detail = "unknown"
		}
		body := fmt.Sprintf("❌ Error processing %s: %s", payload["input"], detail)
		return n.send(ctx, message{
			title:    "Fingersatz - Error",
			body:     body,
			tags:     []string{"fingersatz", "error", "alert"},
			priority: "high",
		})
	case EventTest:
		return n.send(ctx, message{
			title:    "Fingersatz - Test",
			body:     "Notification system test",
			tags:     []string{"fingersatz", "test"},
			priority: "low",
		})
	default:
		return fmt.Errorf("unknown notification event %q", event)
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
