// Package remote is the HTTP client for the transcription and filtering
// service. The service's filter algorithms are opaque; they are selected by
// name in the process request.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxsift/voxsift-core/internal/audio"
	"github.com/voxsift/voxsift-core/internal/config"
)

// ErrUploadFailed is returned when the upload endpoint rejects the audio.
var ErrUploadFailed = errors.New("audio upload failed")

// ServerError carries the error text reported by the processing service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the remote speech service over HTTP.
type Client struct {
	baseURL        string
	http           *http.Client
	probeTimeout   time.Duration
	uploadTimeout  time.Duration
	processTimeout time.Duration
	log            *slog.Logger
}

func NewClient(cfg config.RemoteConfig, log *slog.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           &http.Client{},
		probeTimeout:   time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond,
		uploadTimeout:  time.Duration(cfg.UploadTimeoutMS) * time.Millisecond,
		processTimeout: time.Duration(cfg.ProcessTimeoutMS) * time.Millisecond,
		log:            log,
	}
}

// Reachable probes the health endpoint with a short timeout. Any transport
// error or non-success status counts as unreachable, never as a hard error.
func (c *Client) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("remote probe failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Size     int64  `json:"size"`
}

// Upload submits the raw audio bytes as a multipart request and returns the
// server-assigned file reference.
func (c *Client) Upload(ctx context.Context, src *audio.Source) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", src.DisplayName)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if _, err := part.Write(src.Bytes); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, serverMessage(resp))
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if payload.Filename == "" {
		return "", fmt.Errorf("%w: response carries no file reference", ErrUploadFailed)
	}
	return payload.Filename, nil
}

// ProcessRequest is the structured processing call.
type ProcessRequest struct {
	AudioFile      string   `json:"audio_file"`
	SensitiveWords []string `json:"sensitive_words"`
	FilterMethod   string   `json:"filter_method"`
}

// SegmentPayload mirrors one transcript segment on the wire.
type SegmentPayload struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Original   string  `json:"original"`
	Simplified string  `json:"simplified"`
	Filtered   string  `json:"filtered"`
}

// StatsPayload mirrors the run statistics on the wire.
type StatsPayload struct {
	SegmentCount       int    `json:"segment_count"`
	SensitiveWordCount int    `json:"sensitive_word_count"`
	AccuracyRate       string `json:"accuracy_rate"`
	ProcessingSpeed    string `json:"processing_speed"`
}

// ProcessResponse is the full result payload of a processing call.
type ProcessResponse struct {
	Success        bool             `json:"success"`
	AudioFile      string           `json:"audio_file"`
	Language       string           `json:"language"`
	Duration       string           `json:"duration"`
	ProcessTime    string           `json:"process_time"`
	RealTimeFactor string           `json:"real_time_factor"`
	FilterMethod   string           `json:"filter_method"`
	OriginalText   string           `json:"original_text"`
	SimplifiedText string           `json:"simplified_text"`
	FilteredText   string           `json:"filtered_text"`
	Segments       []SegmentPayload `json:"segments"`
	Stats          StatsPayload     `json:"stats"`
	ResultFile     string           `json:"result_file"`
}

// Process invokes the processing endpoint with an uploaded file reference,
// the ordered sensitive-word list, and a filter-method name.
func (c *Client) Process(ctx context.Context, preq ProcessRequest) (*ProcessResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.processTimeout)
	defer cancel()

	body, err := json.Marshal(preq)
	if err != nil {
		return nil, fmt.Errorf("encode process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build process request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("process request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(resp)}
	}

	var payload ProcessResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode process response: %w", err)
	}
	return &payload, nil
}

// FetchText downloads the server-persisted plain-text artifact for a result
// file reference. The reference's .json extension is swapped for .txt.
func (c *Client) FetchText(ctx context.Context, resultFile string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	name := strings.TrimSuffix(resultFile, ".json") + ".txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/download/txt/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(resp)}
	}
	return io.ReadAll(resp.Body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var payload errorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
