package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fingersatz/internal/fileutil"
	"fingersatz/internal/logging"
	"fingersatz/internal/objectstore"
	"fingersatz/internal/services"
	"fingersatz/internal/textutil"
)

// Mode selects the delivery backend.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

// Target describes where one request's output goes. Cloud targets use Bucket
// and Key; local targets use Dir, Filename, and Format.
type Target struct {
	Bucket   string
	Key      string
	Dir      string
	Filename string
	Format   string
}

// Outcome reports the single durable write a delivery performed.
type Outcome struct {
	Mode      Mode
	LocalPath string
	Bucket    string
	Key       string
	URL       string
}

// Router delivers artifacts in the mode it was built with.
type Router struct {
	mode    Mode
	store   objectstore.Store
	presign time.Duration
	logger  *slog.Logger
}

// NewRouter builds a delivery router. Cloud mode requires a store.
func NewRouter(mode Mode, store objectstore.Store, presign time.Duration, logger *slog.Logger) (*Router, error) {
	switch mode {
	case ModeLocal, ModeCloud:
	default:
		return nil, fmt.Errorf("deliver: unknown mode %q", mode)
	}
	if mode == ModeCloud && store == nil {
		return nil, errors.New("deliver: cloud mode requires an object store")
	}
	if presign <= 0 {
		presign = time.Hour
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{mode: mode, store: store, presign: presign, logger: logger}, nil
}

// Mode returns the mode the router was constructed with.
func (r *Router) Mode() Mode { return r.mode }

// Deliver writes the artifact to the target. One attempt, no retry.
func (r *Router) Deliver(ctx context.Context, artifactPath string, target Target) (Outcome, error) {
	if !fileutil.NonEmpty(artifactPath) {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "verify", fmt.Sprintf("artifact %s missing or empty", artifactPath), nil)
	}
	if r.mode == ModeCloud {
		return r.deliverCloud(ctx, artifactPath, target)
	}
	return r.deliverLocal(artifactPath, target)
}

func (r *Router) deliverCloud(ctx context.Context, artifactPath string, target Target) (Outcome, error) {
	if target.Bucket == "" || target.Key == "" {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "upload", "bucket and key required", nil)
	}
	if err := r.store.Upload(ctx, artifactPath, target.Bucket, target.Key, objectstore.ContentTypeMusicXML); err != nil {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "upload", "store annotated score", err)
	}
	link, err := r.store.PresignGet(ctx, target.Bucket, target.Key, r.presign)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "presign", "issue retrieval link", err)
	}
	r.logger.Info("delivered to object storage",
		logging.String(logging.FieldBucket, target.Bucket),
		logging.String(logging.FieldKey, target.Key))
	return Outcome{Mode: ModeCloud, Bucket: target.Bucket, Key: target.Key, URL: link}, nil
}

func (r *Router) deliverLocal(artifactPath string, target Target) (Outcome, error) {
	dir := target.Dir
	if dir == "" {
		dir = "output"
	}
	// Filename and format arrive from the request body; strip path
	// separators so the destination stays inside dir.
	format := textutil.SanitizeFileName(target.Format)
	if format == "" {
		format = "musicxml"
	}
	filename := textutil.SanitizeFileName(target.Filename)
	if filename == "" {
		filename = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "copy", fmt.Sprintf("create output directory %s", dir), err)
	}
	dest := filepath.Join(dir, "fingered_"+filename+"."+format)
	if err := fileutil.CopyFileVerified(artifactPath, dest); err != nil {
		return Outcome{}, services.Wrap(services.ErrDelivery, "deliver", "copy", fmt.Sprintf("write %s", dest), err)
	}
	r.logger.Info("delivered to local path", logging.String("output", dest))
	return Outcome{Mode: ModeLocal, LocalPath: dest}, nil
}
