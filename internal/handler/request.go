package handler

import (
	"fingersatz/internal/config"
	"fingersatz/internal/deliver"
)

// Kind identifies which invocation surface produced a request.
type Kind string

const (
	// KindDirect marks requests carrying inline base64 score content.
	KindDirect Kind = "direct"
	// KindStorage marks requests triggered by a bucket upload notification.
	KindStorage Kind = "storage"
)

// Request is the canonical form both invocation shapes normalize into.
// Exactly one input source is populated: Content for direct requests,
// InputBucket/InputKey for storage triggers.
type Request struct {
	Kind Kind

	InputBucket string
	InputKey    string
	Content     []byte

	HandSize  string
	RightPart int
	LeftPart  int
	Format    string

	Output deliver.Target
}

// InputRef describes the request input for logs, journal rows, and
// notifications.
func (r *Request) InputRef() string {
	if r == nil {
		return ""
	}
	if r.Kind == KindStorage {
		return "s3://" + r.InputBucket + "/" + r.InputKey
	}
	if r.Output.Filename != "" {
		return r.Output.Filename + "." + r.Format
	}
	return "inline score"
}

// Defaults supplies values for fields a request omits. All fields are
// resolved once, at normalization time, so the pipeline never consults
// configuration or environment mid-flight.
type Defaults struct {
	HandSize     string
	RightPart    int
	LeftPart     int
	Format       string
	OutputBucket string
	OutputDir    string
}

// DefaultsFromConfig extracts request defaults from a validated config.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		HandSize:     cfg.Processing.HandSize,
		RightPart:    cfg.Processing.RightPart,
		LeftPart:     cfg.Processing.LeftPart,
		Format:       cfg.Processing.OutputFormat,
		OutputBucket: cfg.ObjectStore.OutputBucket,
		OutputDir:    cfg.Paths.OutputDir,
	}
}
