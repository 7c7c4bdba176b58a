package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fingersatz/internal/apiclient"
	"fingersatz/internal/deliver"
	"fingersatz/internal/deps"
	"fingersatz/internal/fingering"
	"fingersatz/internal/handler"
	"fingersatz/internal/jobs"
	"fingersatz/internal/logging"
	"fingersatz/internal/notifications"
	"fingersatz/internal/objectstore"
	"fingersatz/internal/services/pianoplayer"
)

var scoreExtensions = map[string]struct{}{
	".musicxml": {},
	".xml":      {},
	".mxl":      {},
}

type processOptions struct {
	outputDir string
	filename  string
	handSize  string
	rightPart int
	leftPart  int
	format    string
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var opts processOptions
	var inline bool

	cmd := &cobra.Command{
		Use:   "process <score>",
		Short: "Annotate a MusicXML score with fingerings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scorePath, err := resolveScorePath(args[0])
			if err != nil {
				return err
			}
			payload, err := buildDirectPayload(scorePath, opts)
			if err != nil {
				return err
			}

			if !inline {
				client, clientErr := ctx.newClient()
				if clientErr == nil && client.Ping(cmd.Context()) == nil {
					result, processErr := client.Process(cmd.Context(), payload)
					if processErr != nil {
						return processErr
					}
					return renderFingeringResult(cmd, ctx, result)
				}
			}

			// No daemon available: run the pipeline in this process.
			return runInline(cmd, ctx, payload)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the annotated score (local delivery)")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "Base name for the annotated score")
	cmd.Flags().StringVar(&opts.handSize, "hand-size", "", "Hand span class (XXS..XXL)")
	cmd.Flags().IntVar(&opts.rightPart, "right-part", -1, "Part index fingered for the right hand")
	cmd.Flags().IntVar(&opts.leftPart, "left-part", -1, "Part index fingered for the left hand")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (musicxml or xml)")
	cmd.Flags().BoolVar(&inline, "inline", false, "Process in this process even when the daemon is running")
	return cmd
}

func resolveScorePath(arg string) (string, error) {
	absPath, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", absPath)
		}
		return "", fmt.Errorf("inspect file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := scoreExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
	return absPath, nil
}

func buildDirectPayload(scorePath string, opts processOptions) ([]byte, error) {
	content, err := os.ReadFile(scorePath)
	if err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}

	outputDir := strings.TrimSpace(opts.outputDir)
	if outputDir == "" {
		outputDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
	}
	filename := strings.TrimSpace(opts.filename)
	if filename == "" {
		base := filepath.Base(scorePath)
		filename = strings.TrimSuffix(base, filepath.Ext(base))
	}

	params := map[string]any{
		"music_file":       base64.StdEncoding.EncodeToString(content),
		"local_output_dir": outputDir,
		"filename":         filename,
	}
	if handSize := strings.TrimSpace(opts.handSize); handSize != "" {
		params["hand_size"] = strings.ToUpper(handSize)
	}
	if opts.rightPart >= 0 {
		params["rbeam"] = opts.rightPart
	}
	if opts.leftPart >= 0 {
		params["lbeam"] = opts.leftPart
	}
	if format := strings.TrimSpace(opts.format); format != "" {
		params["file_format"] = format
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

func runInline(cmd *cobra.Command, ctx *commandContext, payload []byte) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	journal, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job journal: %w", err)
	}
	defer journal.Close()

	logger := logging.NewNop()
	engine := pianoplayer.NewCLI(
		pianoplayer.WithBinary(deps.ResolveEnginePath(cfg.EngineBinary())),
		pianoplayer.WithTimeout(time.Duration(cfg.Engine.TimeoutSeconds)*time.Second),
	)

	var store objectstore.Store
	if cfg.CloudDelivery() {
		minioStore, storeErr := objectstore.New(cfg.ObjectStore)
		if storeErr != nil {
			return fmt.Errorf("connect object store: %w", storeErr)
		}
		store = minioStore
	}

	router, err := deliver.NewRouter(
		deliver.Mode(cfg.Delivery.Mode),
		store,
		time.Duration(cfg.Delivery.PresignExpirySeconds)*time.Second,
		logger,
	)
	if err != nil {
		return fmt.Errorf("configure delivery: %w", err)
	}

	h, err := handler.New(handler.Params{
		StagingDir: cfg.Paths.StagingDir,
		Defaults:   handler.DefaultsFromConfig(cfg),
		Store:      store,
		Generator:  fingering.NewGenerator(engine, logger),
		Router:     router,
		Journal:    journal,
		Notifier:   notifications.NewService(cfg),
		Logger:     logger,
		Source:     jobs.SourceCLI,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	env := h.Handle(cmd.Context(), payload)
	result := apiclient.FingeringResult{StatusCode: env.StatusCode}
	if env.Body != "" {
		if err := json.Unmarshal([]byte(env.Body), &result); err != nil {
			return fmt.Errorf("decode pipeline response: %w", err)
		}
	}
	return renderFingeringResult(cmd, ctx, &result)
}

func renderFingeringResult(cmd *cobra.Command, ctx *commandContext, result *apiclient.FingeringResult) error {
	if ctx.jsonMode() {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
		if !result.OK() {
			return errors.New("processing failed")
		}
		return nil
	}

	if !result.OK() {
		message := strings.TrimSpace(result.Error)
		if message == "" {
			message = fmt.Sprintf("processing failed with status %d", result.StatusCode)
		}
		return errors.New(message)
	}

	stdout := cmd.OutOrStdout()
	switch {
	case result.DownloadURL != "":
		fmt.Fprintf(stdout, "Uploaded to s3://%s/%s\n", result.S3Bucket, result.S3Key)
		fmt.Fprintf(stdout, "Download URL: %s\n", result.DownloadURL)
	case result.OutputFile != "":
		fmt.Fprintf(stdout, "Annotated score written to %s\n", result.OutputFile)
	default:
		fmt.Fprintln(stdout, result.Message)
	}
	return nil
}
