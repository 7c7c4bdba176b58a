package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fingersatz/internal/deliver"
	"fingersatz/internal/fingering"
	"fingersatz/internal/handler"
	"fingersatz/internal/jobs"
	"fingersatz/internal/objectstore"
	"fingersatz/internal/services/pianoplayer"
	"fingersatz/internal/testsupport"
)

// autoEngine assigns cycling finger numbers so annotated output is
// deterministic without a real engine binary.
type autoEngine struct{}

func (autoEngine) Assign(_ context.Context, req pianoplayer.Request) ([]int, error) {
	fingers := make([]int, len(req.Notes))
	for i := range fingers {
		fingers[i] = i%5 + 1
	}
	return fingers, nil
}

type failingEngine struct{}

func (failingEngine) Assign(context.Context, pianoplayer.Request) ([]int, error) {
	return nil, errors.New("beam search exploded")
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) put(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
}

func (f *fakeStore) get(bucket, key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[bucket+"/"+key]
}

func (f *fakeStore) Download(_ context.Context, bucket, key, path string) error {
	data := f.get(bucket, key)
	if data == nil {
		return fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *fakeStore) Upload(_ context.Context, path, bucket, key, _ string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.put(bucket, key, data)
	return nil
}

func (f *fakeStore) PresignGet(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://store.test/%s/%s?X-Amz-Expires=%d", bucket, key, int(ttl.Seconds())), nil
}

func (f *fakeStore) BucketExists(context.Context, string) (bool, error) {
	return true, nil
}

// panicStore exercises the recover path.
type panicStore struct {
	objectstore.Store
}

func (panicStore) Download(context.Context, string, string, string) error {
	panic("store exploded")
}

func newHandler(t *testing.T, mode deliver.Mode, engine pianoplayer.Client, store objectstore.Store, journal *jobs.Journal) (*handler.Handler, string) {
	t.Helper()

	stagingDir := filepath.Join(t.TempDir(), "staging")
	router, err := deliver.NewRouter(mode, store, time.Hour, nil)
	if err != nil {
		t.Fatalf("deliver.NewRouter: %v", err)
	}
	h, err := handler.New(handler.Params{
		StagingDir: stagingDir,
		Defaults:   testDefaults(),
		Store:      store,
		Generator:  fingering.NewGenerator(engine, nil),
		Router:     router,
		Journal:    journal,
	})
	if err != nil {
		t.Fatalf("handler.New: %v", err)
	}
	return h, stagingDir
}

func encodedSample() string {
	return base64.StdEncoding.EncodeToString([]byte(testsupport.SampleScore))
}

func assertStagingEmpty(t *testing.T, stagingDir string) {
	t.Helper()
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("staging dir should be empty, found %v", names)
	}
}

func TestHandleDirectLocalEndToEnd(t *testing.T) {
	h, stagingDir := newHandler(t, deliver.ModeLocal, autoEngine{}, nil, nil)
	outDir := filepath.Join(t.TempDir(), "out")

	payload := directPayload(t, map[string]any{
		"music_file":       encodedSample(),
		"filename":         "song",
		"local_output_dir": outDir,
	})
	env := h.Handle(context.Background(), payload)

	if !env.OK() {
		t.Fatalf("status = %d, body = %s, error = %s", env.StatusCode, env.Body, env.Error)
	}
	var body struct {
		OutputFile string `json:"output_file"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	want := filepath.Join(outDir, "fingered_song.musicxml")
	if body.OutputFile != want {
		t.Fatalf("output_file = %q, want %q", body.OutputFile, want)
	}
	if body.Message != "Fingering generation completed successfully" {
		t.Fatalf("message = %q", body.Message)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read delivered file: %v", err)
	}
	if !bytes.Contains(data, []byte("<fingering>")) {
		t.Fatal("delivered score carries no fingering annotations")
	}
	if bytes.Contains(data, []byte("Music21")) || bytes.Contains(data, []byte("sample.musicxml")) {
		t.Fatal("delivered score still carries generated metadata")
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleMissingMusicFileEnvelope(t *testing.T) {
	h, _ := newHandler(t, deliver.ModeLocal, autoEngine{}, nil, nil)

	env := h.Handle(context.Background(), []byte(`{"body":"{}"}`))

	if env.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", env.StatusCode)
	}
	if env.Body != `{"error":"Missing music_file parameter"}` {
		t.Fatalf("body = %s", env.Body)
	}
	if env.Headers != nil {
		t.Fatalf("400 envelope should not carry headers: %v", env.Headers)
	}
}

func TestHandleInvalidJSONEnvelope(t *testing.T) {
	h, _ := newHandler(t, deliver.ModeLocal, autoEngine{}, nil, nil)

	env := h.Handle(context.Background(), []byte(`{"body":"not json"}`))

	if env.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", env.StatusCode)
	}
	if env.Body != `{"error":"Invalid JSON in request body"}` {
		t.Fatalf("body = %s", env.Body)
	}
}

func TestHandleStorageEventCloudEndToEnd(t *testing.T) {
	store := newFakeStore()
	store.put("scores", "incoming/sample.musicxml", []byte(testsupport.SampleScore))
	journal := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	h, stagingDir := newHandler(t, deliver.ModeCloud, autoEngine{}, store, journal)

	env := h.Handle(context.Background(), storagePayload("scores", "incoming/sample.musicxml"))

	if !env.OK() {
		t.Fatalf("status = %d, error = %s, traceback = %s", env.StatusCode, env.Error, env.Traceback)
	}
	if env.Message != "File processed successfully" {
		t.Fatalf("message = %q", env.Message)
	}
	if env.InputBucket != "scores" || env.InputKey != "incoming/sample.musicxml" {
		t.Fatalf("input echo = %s/%s", env.InputBucket, env.InputKey)
	}
	if env.OutputBucket != "scores-output" || env.OutputKey != "processed/sample.musicxml" {
		t.Fatalf("output ref = %s/%s", env.OutputBucket, env.OutputKey)
	}
	if env.Body != "" || env.Headers != nil {
		t.Fatalf("storage envelope must stay flat: %+v", env)
	}

	uploaded := store.get("scores-output", "processed/sample.musicxml")
	if uploaded == nil {
		t.Fatal("annotated score was not uploaded")
	}
	if !bytes.Contains(uploaded, []byte("<fingering>")) {
		t.Fatal("uploaded score carries no fingering annotations")
	}

	entries, err := journal.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("journal.List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Status != jobs.StatusCompleted || entry.Source != jobs.SourceStorage {
		t.Fatalf("journal entry = %+v", entry)
	}
	if entry.InputRef != "s3://scores/incoming/sample.musicxml" {
		t.Fatalf("input ref = %q", entry.InputRef)
	}
	if entry.OutputRef != "s3://scores-output/processed/sample.musicxml" {
		t.Fatalf("output ref = %q", entry.OutputRef)
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleStorageEventParseFailure(t *testing.T) {
	store := newFakeStore()
	store.put("scores", "bad.musicxml", []byte("this is not a score"))
	journal := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	h, stagingDir := newHandler(t, deliver.ModeCloud, autoEngine{}, store, journal)

	env := h.Handle(context.Background(), storagePayload("scores", "bad.musicxml"))

	if env.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", env.StatusCode)
	}
	if env.Error == "" || env.Traceback == "" {
		t.Fatalf("failure envelope incomplete: %+v", env)
	}
	if env.InputBucket != "scores" || env.InputKey != "bad.musicxml" {
		t.Fatalf("input echo = %s/%s", env.InputBucket, env.InputKey)
	}
	if env.Body != "" {
		t.Fatalf("storage failure must not wrap a body: %s", env.Body)
	}

	entries, err := journal.List(context.Background(), jobs.StatusFailed, 10)
	if err != nil {
		t.Fatalf("journal.List: %v", err)
	}
	if len(entries) != 1 || entries[0].ErrorMessage == "" {
		t.Fatalf("failed journal entries = %+v", entries)
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleDirectCloudReturnsPresignedURL(t *testing.T) {
	store := newFakeStore()
	h, _ := newHandler(t, deliver.ModeCloud, autoEngine{}, store, nil)

	payload := directPayload(t, map[string]any{
		"music_file":  encodedSample(),
		"bucket_name": "annotated",
	})
	env := h.Handle(context.Background(), payload)

	if !env.OK() {
		t.Fatalf("status = %d, body = %s", env.StatusCode, env.Body)
	}
	var body struct {
		S3Bucket    string `json:"s3_bucket"`
		S3Key       string `json:"s3_key"`
		DownloadURL string `json:"download_url"`
		Message     string `json:"message"`
	}
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.S3Bucket != "annotated" {
		t.Fatalf("s3_bucket = %q", body.S3Bucket)
	}
	if !strings.HasPrefix(body.S3Key, "fingered_scores/") {
		t.Fatalf("s3_key = %q", body.S3Key)
	}
	if !strings.Contains(body.DownloadURL, "X-Amz-Expires=3600") {
		t.Fatalf("download_url = %q", body.DownloadURL)
	}
	if body.Message != "Successfully generated fingerings and saved to S3" {
		t.Fatalf("message = %q", body.Message)
	}
	if store.get("annotated", body.S3Key) == nil {
		t.Fatal("annotated score missing from store")
	}
}

func TestHandleEngineFailure(t *testing.T) {
	h, stagingDir := newHandler(t, deliver.ModeLocal, failingEngine{}, nil, nil)

	payload := directPayload(t, map[string]any{"music_file": encodedSample()})
	env := h.Handle(context.Background(), payload)

	if env.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", env.StatusCode)
	}
	var body struct {
		Error     string `json:"error"`
		Traceback string `json:"traceback"`
	}
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !strings.Contains(body.Error, "beam search exploded") {
		t.Fatalf("error = %q", body.Error)
	}
	if body.Traceback == "" {
		t.Fatal("500 response should carry a traceback")
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleRecoversFromPanic(t *testing.T) {
	store := panicStore{Store: newFakeStore()}
	h, stagingDir := newHandler(t, deliver.ModeCloud, autoEngine{}, store, nil)

	env := h.Handle(context.Background(), storagePayload("scores", "boom.musicxml"))

	if env.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", env.StatusCode)
	}
	if !strings.Contains(env.Error, "store exploded") {
		t.Fatalf("error = %q", env.Error)
	}
	if !strings.Contains(env.Traceback, "goroutine") {
		t.Fatalf("traceback should carry the stack, got %q", env.Traceback)
	}
	if env.InputBucket != "scores" || env.InputKey != "boom.musicxml" {
		t.Fatalf("input echo = %s/%s", env.InputBucket, env.InputKey)
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleLeavesNoTemporaryFiles(t *testing.T) {
	h, stagingDir := newHandler(t, deliver.ModeLocal, autoEngine{}, nil, nil)
	garbage := base64.StdEncoding.EncodeToString([]byte("not a score"))

	payloads := [][]byte{
		directPayload(t, map[string]any{"music_file": encodedSample(), "local_output_dir": t.TempDir()}),
		directPayload(t, map[string]any{"music_file": garbage}),
		[]byte(`{"body":"{}"}`),
	}
	for _, payload := range payloads {
		h.Handle(context.Background(), payload)
	}

	assertStagingEmpty(t, stagingDir)
}

func TestHandleSourceOverrideLabelsJournal(t *testing.T) {
	journal := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	router, err := deliver.NewRouter(deliver.ModeLocal, nil, time.Hour, nil)
	if err != nil {
		t.Fatalf("deliver.NewRouter: %v", err)
	}
	h, err := handler.New(handler.Params{
		StagingDir: filepath.Join(t.TempDir(), "staging"),
		Defaults:   testDefaults(),
		Generator:  fingering.NewGenerator(autoEngine{}, nil),
		Router:     router,
		Journal:    journal,
		Source:     jobs.SourceCLI,
	})
	if err != nil {
		t.Fatalf("handler.New: %v", err)
	}

	payload := directPayload(t, map[string]any{
		"music_file":       encodedSample(),
		"local_output_dir": t.TempDir(),
	})
	env := h.Handle(context.Background(), payload)
	if !env.OK() {
		t.Fatalf("status = %d, body = %s", env.StatusCode, env.Body)
	}

	entries, err := journal.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("journal.List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	if entries[0].Source != jobs.SourceCLI {
		t.Fatalf("source = %q, want %q", entries[0].Source, jobs.SourceCLI)
	}
}

func TestHandleIsDeterministic(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	payload := func(name string) []byte {
		return directPayload(t, map[string]any{
			"music_file":       encodedSample(),
			"filename":         name,
			"local_output_dir": outDir,
		})
	}

	h, _ := newHandler(t, deliver.ModeLocal, autoEngine{}, nil, nil)
	first := h.Handle(context.Background(), payload("one"))
	second := h.Handle(context.Background(), payload("two"))
	if !first.OK() || !second.OK() {
		t.Fatalf("statuses = %d/%d", first.StatusCode, second.StatusCode)
	}

	a, err := os.ReadFile(filepath.Join(outDir, "fingered_one.musicxml"))
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(outDir, "fingered_two.musicxml"))
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical requests produced different annotated scores")
	}
}
