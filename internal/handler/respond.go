package handler

import (
	"encoding/json"
	"net/http"

	"fingersatz/internal/deliver"
	"fingersatz/internal/services"
)

const (
	messageStorageSuccess = "File processed successfully"
	messageCloudSuccess   = "Successfully generated fingerings and saved to S3"
	messageLocalSuccess   = "Fingering generation completed successfully"
)

// Envelope is the single response shape both surfaces return. Direct
// requests use StatusCode, Headers, and the JSON-encoded Body. Storage
// triggers use the flat fields with the triggering bucket/key echoed for
// operator correlation.
type Envelope struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`

	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	Traceback    string `json:"traceback,omitempty"`
	InputBucket  string `json:"input_bucket,omitempty"`
	InputKey     string `json:"input_key,omitempty"`
	OutputBucket string `json:"output_bucket,omitempty"`
	OutputKey    string `json:"output_key,omitempty"`
}

// OK reports whether the envelope describes a successful request.
func (e Envelope) OK() bool {
	return e.StatusCode == http.StatusOK
}

// directBody field order matches the documented payload layouts.
type directBody struct {
	OutputFile  string `json:"output_file,omitempty"`
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Key       string `json:"s3_key,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Traceback   string `json:"traceback,omitempty"`
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// Success maps a delivery outcome onto the response shape for the
// request's surface.
func Success(req *Request, outcome deliver.Outcome) Envelope {
	if req.Kind == KindStorage {
		return Envelope{
			StatusCode:   http.StatusOK,
			Message:      messageStorageSuccess,
			InputBucket:  req.InputBucket,
			InputKey:     req.InputKey,
			OutputBucket: outcome.Bucket,
			OutputKey:    outcome.Key,
		}
	}

	body := directBody{Message: messageLocalSuccess, OutputFile: outcome.LocalPath}
	if outcome.Mode == deliver.ModeCloud {
		body = directBody{
			S3Bucket:    outcome.Bucket,
			S3Key:       outcome.Key,
			DownloadURL: outcome.URL,
			Message:     messageCloudSuccess,
		}
	}
	return Envelope{
		StatusCode: http.StatusOK,
		Headers:    corsHeaders(),
		Body:       encodeBody(body),
	}
}

// Failure maps an error onto the response shape for the surface that
// accepted the request. Validation failures yield 400; everything else
// yields 500 with trace carried for operator debugging. Direct failure
// envelopes intentionally omit CORS headers.
func Failure(kind Kind, inputBucket, inputKey string, err error, trace string) Envelope {
	status := services.HTTPStatus(err)
	message := services.UserMessage(err)
	if status != http.StatusInternalServerError {
		trace = ""
	}

	if kind == KindStorage {
		return Envelope{
			StatusCode:  status,
			Error:       message,
			Traceback:   trace,
			InputBucket: inputBucket,
			InputKey:    inputKey,
		}
	}
	return Envelope{
		StatusCode: status,
		Body:       encodeBody(directBody{Error: message, Traceback: trace}),
	}
}

func encodeBody(body directBody) string {
	data, err := json.Marshal(body)
	if err != nil {
		return `{"error":"response encoding failed"}`
	}
	return string(data)
}
