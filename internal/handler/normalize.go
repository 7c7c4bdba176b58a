package handler

import (
	"encoding/base64"
	"encoding/json"
	"path"
	"strings"

	"github.com/google/uuid"

	"fingersatz/internal/deliver"
	"fingersatz/internal/services"
)

var handSizes = map[string]struct{}{
	"XXS": {}, "XS": {}, "S": {}, "M": {}, "L": {}, "XL": {}, "XXL": {},
}

type storageRecord struct {
	EventSource string `json:"eventSource"`
	S3          struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

type rawEvent struct {
	Records []storageRecord `json:"Records"`
	Body    json.RawMessage `json:"body"`
}

type directParams struct {
	MusicFile      *string `json:"music_file"`
	HandSize       string  `json:"hand_size"`
	RightPart      *int    `json:"rbeam"`
	LeftPart       *int    `json:"lbeam"`
	Format         string  `json:"file_format"`
	BucketName     string  `json:"bucket_name"`
	OutputKey      string  `json:"output_key"`
	LocalOutputDir string  `json:"local_output_dir"`
	Filename       string  `json:"filename"`
}

// Normalize converts a raw invocation payload into a canonical Request.
// Storage-trigger events are recognized by a populated bucket/key pair in
// the first record; everything else is treated as a direct request. All
// validation failures carry ErrValidation so the envelope maps them to 400.
func Normalize(raw []byte, defaults Defaults) (*Request, error) {
	var event rawEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, validationError("Invalid JSON in request body")
	}

	if record, ok := storageTrigger(event.Records); ok {
		return normalizeStorage(record, defaults), nil
	}
	return normalizeDirect(raw, event.Body, defaults)
}

func storageTrigger(records []storageRecord) (storageRecord, bool) {
	if len(records) == 0 {
		return storageRecord{}, false
	}
	record := records[0]
	if record.S3.Bucket.Name == "" || record.S3.Object.Key == "" {
		return storageRecord{}, false
	}
	return record, true
}

func normalizeStorage(record storageRecord, defaults Defaults) *Request {
	key := record.S3.Object.Key
	filename := path.Base(key)
	format := strings.TrimPrefix(path.Ext(filename), ".")
	if format == "" {
		format = defaults.Format
	}

	bucket := defaults.OutputBucket
	if bucket == "" {
		bucket = record.S3.Bucket.Name + "-output"
	}

	return &Request{
		Kind:        KindStorage,
		InputBucket: record.S3.Bucket.Name,
		InputKey:    key,
		HandSize:    defaults.HandSize,
		RightPart:   defaults.RightPart,
		LeftPart:    defaults.LeftPart,
		Format:      format,
		Output: deliver.Target{
			Bucket:   bucket,
			Key:      "processed/" + filename,
			Filename: strings.TrimSuffix(filename, path.Ext(filename)),
			Format:   format,
		},
	}
}

func normalizeDirect(raw []byte, body json.RawMessage, defaults Defaults) (*Request, error) {
	paramsRaw := json.RawMessage(raw)
	if body != nil {
		paramsRaw = body
		// An API gateway delivers the payload as a JSON-encoded string.
		// Null and empty-string bodies both degrade to an unparseable
		// payload and are rejected below.
		var nested string
		if err := json.Unmarshal(body, &nested); err == nil {
			paramsRaw = json.RawMessage(nested)
		}
	}

	var params directParams
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return nil, validationError("Invalid JSON in request body")
	}
	if params.MusicFile == nil {
		return nil, validationError("Missing music_file parameter")
	}

	content, err := base64.StdEncoding.DecodeString(stripLineBreaks(*params.MusicFile))
	if err != nil {
		return nil, validationError("Invalid base64 encoding in music_file")
	}

	handSize := params.HandSize
	if handSize == "" {
		handSize = defaults.HandSize
	}
	if _, ok := handSizes[handSize]; !ok {
		return nil, validationError("hand_size must be one of XXS, XS, S, M, L, XL, XXL")
	}

	rightPart := defaults.RightPart
	if params.RightPart != nil {
		rightPart = *params.RightPart
	}
	leftPart := defaults.LeftPart
	if params.LeftPart != nil {
		leftPart = *params.LeftPart
	}

	format := params.Format
	if format == "" {
		format = defaults.Format
	}

	bucket := params.BucketName
	if bucket == "" {
		bucket = defaults.OutputBucket
	}
	key := params.OutputKey
	if key == "" {
		key = "fingered_scores/" + uuid.NewString() + "." + format
	}
	dir := params.LocalOutputDir
	if dir == "" {
		dir = defaults.OutputDir
	}

	return &Request{
		Kind:      KindDirect,
		Content:   content,
		HandSize:  handSize,
		RightPart: rightPart,
		LeftPart:  leftPart,
		Format:    format,
		Output: deliver.Target{
			Bucket:   bucket,
			Key:      key,
			Dir:      dir,
			Filename: strings.TrimSuffix(params.Filename, "."+format),
			Format:   format,
		},
	}, nil
}

// stripLineBreaks tolerates wrapped base64 as produced by common encoders.
func stripLineBreaks(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "", "", message, nil)
}
