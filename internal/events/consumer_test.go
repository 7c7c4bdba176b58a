package events

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"fingersatz/internal/config"
	"fingersatz/internal/handler"
)

type readResult struct {
	msg kafka.Message
	err error
}

// scriptedReader replays queued results, then blocks until cancellation.
type scriptedReader struct {
	mu     sync.Mutex
	queue  []readResult
	closed bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *scriptedReader) wasClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type recordingProcessor struct {
	mu       sync.Mutex
	payloads [][]byte
	result   handler.Envelope
}

func (p *recordingProcessor) Handle(_ context.Context, raw []byte) handler.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, raw)
	return p.result
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestNewConsumerValidation(t *testing.T) {
	processor := &recordingProcessor{}

	if _, err := NewConsumer(config.Events{Enabled: false}, processor, nil); err == nil {
		t.Fatal("disabled events config should be rejected")
	}
	if _, err := NewConsumer(config.Events{Enabled: true, Topic: "uploads"}, processor, nil); err == nil {
		t.Fatal("missing brokers should be rejected")
	}
	if _, err := NewConsumer(config.Events{Enabled: true, Brokers: []string{"localhost:9092"}}, processor, nil); err == nil {
		t.Fatal("missing topic should be rejected")
	}
	if _, err := NewConsumerWithReader(&scriptedReader{}, nil, nil); err == nil {
		t.Fatal("nil processor should be rejected")
	}
}

func TestRunProcessesMessagesUntilCancelled(t *testing.T) {
	reader := &scriptedReader{queue: []readResult{
		{msg: kafka.Message{Value: []byte(`{"Records":[]}`), Offset: 1}},
		{msg: kafka.Message{Value: []byte(`{"Records":[]}`), Offset: 2}},
	}}
	processor := &recordingProcessor{result: handler.Envelope{StatusCode: http.StatusOK}}
	consumer, err := NewConsumerWithReader(reader, processor, nil)
	if err != nil {
		t.Fatalf("NewConsumerWithReader: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	waitFor(t, func() bool { return processor.count() == 2 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if !reader.wasClosed() {
		t.Fatal("reader was not closed on shutdown")
	}
}

func TestRunSurvivesReadErrors(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = oldDelay })

	reader := &scriptedReader{queue: []readResult{
		{err: errors.New("broker hiccup")},
		{msg: kafka.Message{Value: []byte(`{}`), Offset: 7}},
	}}
	processor := &recordingProcessor{result: handler.Envelope{StatusCode: http.StatusBadRequest}}
	consumer, err := NewConsumerWithReader(reader, processor, nil)
	if err != nil {
		t.Fatalf("NewConsumerWithReader: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	waitFor(t, func() bool { return processor.count() == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestRunKeepsConsumingAfterFailedEnvelope(t *testing.T) {
	reader := &scriptedReader{queue: []readResult{
		{msg: kafka.Message{Value: []byte(`garbage`), Offset: 3}},
		{msg: kafka.Message{Value: []byte(`{"Records":[]}`), Offset: 4}},
	}}
	processor := &recordingProcessor{result: handler.Envelope{StatusCode: http.StatusInternalServerError, Error: "boom"}}
	consumer, err := NewConsumerWithReader(reader, processor, nil)
	if err != nil {
		t.Fatalf("NewConsumerWithReader: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	waitFor(t, func() bool { return processor.count() == 2 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
