package fingering

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fingersatz/internal/fileutil"
	"fingersatz/internal/logging"
	"fingersatz/internal/score"
	"fingersatz/internal/services"
	"fingersatz/internal/services/pianoplayer"
)

// Options selects the parts and hand span for one annotation run.
type Options struct {
	HandSize  string
	RightPart int
	LeftPart  int
}

// Generator drives the parse, assign, merge, and serialize steps.
type Generator struct {
	engine pianoplayer.Client
	logger *slog.Logger
}

// NewGenerator wires a generator to the fingering engine.
func NewGenerator(engine pianoplayer.Client, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{engine: engine, logger: logger}
}

type handTask struct {
	name string
	part int
}

// Process annotates the score at inputPath and writes the result to
// outputPath. A hand whose part holds no playable notes is skipped rather
// than treated as an error.
func (g *Generator) Process(ctx context.Context, inputPath, outputPath string, opts Options) error {
	parsed, err := score.ParseFile(inputPath)
	if err != nil {
		return services.Wrap(services.ErrProcessing, "fingering", "parse", "read score", err)
	}

	hands := []handTask{
		{name: pianoplayer.HandRight, part: opts.RightPart},
		{name: pianoplayer.HandLeft, part: opts.LeftPart},
	}

	extractions := make([]*score.Extraction, len(hands))
	for i, hand := range hands {
		extraction, err := score.ExtractNotes(parsed, hand.part)
		if err != nil {
			return services.Wrap(services.ErrProcessing, "fingering", "extract", hand.name+" hand", err)
		}
		extractions[i] = extraction
		g.logger.Debug("extracted note sequence",
			logging.String(logging.FieldHand, hand.name),
			logging.Int("part", hand.part),
			logging.Int("notes", extraction.Len()))
	}

	results := make([][]int, len(hands))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, hand := range hands {
		i, hand := i, hand
		if extractions[i].Len() == 0 {
			g.logger.Info("hand has no playable notes, skipping engine",
				logging.String(logging.FieldHand, hand.name),
				logging.Int("part", hand.part))
			continue
		}
		group.Go(func() error {
			fingers, err := g.engine.Assign(groupCtx, pianoplayer.Request{
				Hand:     hand.name,
				HandSize: opts.HandSize,
				Notes:    extractions[i].Events,
			})
			if err != nil {
				return services.Wrap(services.ErrExternalTool, "fingering", "assign", hand.name+" hand", err)
			}
			results[i] = fingers
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, hand := range hands {
		if extractions[i].Len() == 0 {
			continue
		}
		if err := extractions[i].Apply(results[i]); err != nil {
			return services.Wrap(services.ErrProcessing, "fingering", "annotate", hand.name+" hand", err)
		}
	}

	parsed.ScrubMetadata()

	data, err := parsed.Bytes()
	if err != nil {
		return services.Wrap(services.ErrProcessing, "fingering", "serialize", "render annotated score", err)
	}
	if err := fileutil.WriteFileAtomic(outputPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrProcessing, "fingering", "write", fmt.Sprintf("store annotated score at %s", outputPath), err)
	}
	if !fileutil.NonEmpty(outputPath) {
		return services.Wrap(services.ErrProcessing, "", "", "Failed to generate fingered file", nil)
	}

	g.logger.Info("annotated score written",
		logging.String("output", outputPath),
		logging.Int("right_notes", extractions[0].Len()),
		logging.Int("left_notes", extractions[1].Len()))
	return nil
}
