package pianoplayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"fingersatz/internal/score"
)

var commandContext = exec.CommandContext

// Hand identifiers accepted by the engine.
const (
	HandRight = "right"
	HandLeft  = "left"
)

// Request is the engine input for one hand.
type Request struct {
	Hand     string            `json:"hand"`
	HandSize string            `json:"hand_size"`
	Notes    []score.NoteEvent `json:"notes"`
}

type response struct {
	Fingers []int  `json:"fingers"`
	Error   string `json:"error,omitempty"`
}

// Client defines fingering engine behaviour.
type Client interface {
	Assign(ctx context.Context, req Request) ([]int, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds a single engine invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// CLI wraps the pianoplayer command-line engine.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "pianoplayer", timeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Assign runs pianoplayer over one hand's note sequence and returns a finger
// number per note.
func (c *CLI) Assign(ctx context.Context, req Request) ([]int, error) {
	if req.Hand != HandRight && req.Hand != HandLeft {
		return nil, fmt.Errorf("unsupported hand %q", req.Hand)
	}
	if len(req.Notes) == 0 {
		return nil, errors.New("note sequence required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode engine request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, c.binary, "assign", "--json") //nolint:gosec
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return nil, fmt.Errorf("pianoplayer assign: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("pianoplayer assign: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return nil, fmt.Errorf("parse pianoplayer output: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("pianoplayer assign: %s", parsed.Error)
	}
	if len(parsed.Fingers) != len(req.Notes) {
		return nil, fmt.Errorf("pianoplayer returned %d fingers for %d notes", len(parsed.Fingers), len(req.Notes))
	}
	return parsed.Fingers, nil
}

var _ Client = (*CLI)(nil)
