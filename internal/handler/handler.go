package handler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"fingersatz/internal/deliver"
	"fingersatz/internal/fileutil"
	"fingersatz/internal/fingering"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
	"fingersatz/internal/notifications"
	"fingersatz/internal/objectstore"
	"fingersatz/internal/services"
	"fingersatz/internal/staging"
)

// Params collects the collaborators a Handler needs. Generator, Router,
// and StagingDir are required. Store is only needed when storage-trigger
// events must be staged; Journal and Notifier are optional. Source labels
// journaled entries; when empty the request surface decides.
type Params struct {
	StagingDir string
	Defaults   Defaults
	Store      objectstore.Store
	Generator  *fingering.Generator
	Router     *deliver.Router
	Journal    *jobs.Journal
	Notifier   notifications.Service
	Logger     *slog.Logger
	Source     string
}

// Handler runs one invocation payload through normalize, stage, annotate,
// and deliver, and returns exactly one envelope per call. No failure
// escapes Handle; panics are recovered and reported as 500 envelopes.
type Handler struct {
	stagingDir string
	defaults   Defaults
	store      objectstore.Store
	generator  *fingering.Generator
	router     *deliver.Router
	journal    *jobs.Journal
	notifier   notifications.Service
	logger     *slog.Logger
	source     string
}

// New validates the collaborator set and builds a Handler.
func New(p Params) (*Handler, error) {
	if p.StagingDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "handler", "new", "staging directory must be set", nil)
	}
	if p.Generator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "handler", "new", "fingering generator must be set", nil)
	}
	if p.Router == nil {
		return nil, services.Wrap(services.ErrConfiguration, "handler", "new", "delivery router must be set", nil)
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		stagingDir: p.StagingDir,
		defaults:   p.Defaults,
		store:      p.Store,
		generator:  p.Generator,
		router:     p.Router,
		journal:    p.Journal,
		notifier:   p.Notifier,
		logger:     logger,
		source:     p.Source,
	}, nil
}

// Handle processes a raw invocation payload end to end. Every temporary
// artifact created while serving the request is removed before Handle
// returns, on success and failure paths alike.
func (h *Handler) Handle(ctx context.Context, raw []byte) (env Envelope) {
	started := time.Now()
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, h.logger)

	var req *Request
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		stack := string(debug.Stack())
		logger.Error("panic while handling request",
			logging.Any("panic", v),
			logging.String("stack", stack))
		err := services.Wrap(services.ErrTransient, "handler", "panic", fmt.Sprint(v), nil)
		h.record(ctx, req, deliver.Outcome{}, err, time.Since(started))
		h.notify(ctx, req, deliver.Outcome{}, err)
		kind, bucket, key := surfaceOf(req)
		env = Failure(kind, bucket, key, err, stack)
	}()

	tracker, err := staging.NewTracker(h.stagingDir, logger)
	if err != nil {
		wrapped := services.Wrap(services.ErrConfiguration, "handler", "staging", "prepare staging directory", err)
		logger.Error("request failed", logging.Error(wrapped))
		return Failure(KindDirect, "", "", wrapped, wrapped.Error())
	}
	defer tracker.Cleanup()

	req, err = Normalize(raw, h.defaults)
	if err != nil {
		logger.Warn("request rejected", logging.Error(err))
		return Failure(KindDirect, "", "", err, err.Error())
	}
	logger = logger.With(logging.String(logging.FieldSource, string(req.Kind)))
	logger.Info("request accepted",
		logging.String("input", req.InputRef()),
		logging.String("hand_size", req.HandSize))

	inputPath, err := h.stageInput(ctx, tracker, req)
	if err != nil {
		return h.fail(ctx, logger, req, err, started)
	}

	outputPath, err := tracker.Acquire("fingered-*." + req.Format)
	if err != nil {
		return h.fail(ctx, logger, req, services.Wrap(services.ErrProcessing, "handler", "stage", "create output file", err), started)
	}

	opts := fingering.Options{
		HandSize:  req.HandSize,
		RightPart: req.RightPart,
		LeftPart:  req.LeftPart,
	}
	if err := h.generator.Process(ctx, inputPath, outputPath, opts); err != nil {
		return h.fail(ctx, logger, req, err, started)
	}

	outcome, err := h.router.Deliver(ctx, outputPath, req.Output)
	if err != nil {
		return h.fail(ctx, logger, req, err, started)
	}

	elapsed := time.Since(started)
	h.record(ctx, req, outcome, nil, elapsed)
	h.notify(ctx, req, outcome, nil)
	logger.Info("request completed",
		logging.String("output", outcomeRef(outcome)),
		logging.Duration("elapsed", elapsed))
	return Success(req, outcome)
}

func (h *Handler) stageInput(ctx context.Context, tracker *staging.Tracker, req *Request) (string, error) {
	path, err := tracker.Acquire("input-*." + req.Format)
	if err != nil {
		return "", services.Wrap(services.ErrProcessing, "handler", "stage", "create staging file", err)
	}
	if req.Kind == KindStorage {
		if h.store == nil {
			return "", services.Wrap(services.ErrConfiguration, "handler", "stage", "object store not configured for bucket events", nil)
		}
		if err := h.store.Download(ctx, req.InputBucket, req.InputKey, path); err != nil {
			return "", services.Wrap(services.ErrProcessing, "handler", "stage", fmt.Sprintf("download s3://%s/%s", req.InputBucket, req.InputKey), err)
		}
		return path, nil
	}
	if err := fileutil.WriteFileAtomic(path, req.Content, 0o600); err != nil {
		return "", services.Wrap(services.ErrProcessing, "handler", "stage", "write request content", err)
	}
	return path, nil
}

func (h *Handler) fail(ctx context.Context, logger *slog.Logger, req *Request, err error, started time.Time) Envelope {
	logger.Error("request failed", logging.Error(err))
	h.record(ctx, req, deliver.Outcome{}, err, time.Since(started))
	h.notify(ctx, req, deliver.Outcome{}, err)
	return Failure(req.Kind, req.InputBucket, req.InputKey, err, err.Error())
}

func (h *Handler) record(ctx context.Context, req *Request, outcome deliver.Outcome, failure error, elapsed time.Duration) {
	if h.journal == nil || req == nil {
		return
	}
	source := h.source
	if source == "" {
		source = sourceFor(req.Kind)
	}
	entry := jobs.Entry{
		Source:     source,
		InputRef:   req.InputRef(),
		OutputRef:  outcomeRef(outcome),
		Status:     jobs.StatusCompleted,
		HandSize:   req.HandSize,
		Format:     req.Format,
		RightPart:  req.RightPart,
		LeftPart:   req.LeftPart,
		DurationMS: elapsed.Milliseconds(),
	}
	if failure != nil {
		entry.Status = jobs.StatusFailed
		entry.ErrorMessage = services.UserMessage(failure)
	} else {
		entry.Message = successMessage(req, outcome)
	}
	if err := h.journal.Record(ctx, &entry); err != nil {
		logging.WithContext(ctx, h.logger).Warn("failed to journal request", logging.Error(err))
	}
}

func (h *Handler) notify(ctx context.Context, req *Request, outcome deliver.Outcome, failure error) {
	if h.notifier == nil || req == nil {
		return
	}
	event := notifications.EventProcessingCompleted
	payload := notifications.Payload{"input": req.InputRef(), "output": outcomeRef(outcome)}
	if failure != nil {
		event = notifications.EventProcessingFailed
		payload = notifications.Payload{"input": req.InputRef(), "error": services.UserMessage(failure)}
	}
	if err := h.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, h.logger).Warn("failed to publish notification", logging.Error(err))
	}
}

func surfaceOf(req *Request) (Kind, string, string) {
	if req == nil {
		return KindDirect, "", ""
	}
	return req.Kind, req.InputBucket, req.InputKey
}

func sourceFor(kind Kind) string {
	if kind == KindStorage {
		return jobs.SourceStorage
	}
	return jobs.SourceDirect
}

func outcomeRef(outcome deliver.Outcome) string {
	if outcome.Mode == deliver.ModeCloud {
		return "s3://" + outcome.Bucket + "/" + outcome.Key
	}
	return outcome.LocalPath
}

func successMessage(req *Request, outcome deliver.Outcome) string {
	if req.Kind == KindStorage {
		return messageStorageSuccess
	}
	if outcome.Mode == deliver.ModeCloud {
		return messageCloudSuccess
	}
	return messageLocalSuccess
}
