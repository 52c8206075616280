// Package asr provides the client for the whisper-asr-webservice that
// transcribes the audio track of captured recordings.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client sends audio and receives a timed transcript.
type Client interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Transcription, error)
}

// Options configures a transcription request.
type Options struct {
	Language string
}

// Segment is one timed span of transcript text as returned by the service.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcription is the parsed API response.
type Transcription struct {
	Text     string
	Language string
	Segments []Segment
}

// DefaultTimeout is the default HTTP request timeout. Transcription of a
// long recording can take minutes.
const DefaultTimeout = 5 * time.Minute

// WhisperClient implements Client against
// onerahmet/openai-whisper-asr-webservice.
type WhisperClient struct {
	baseURL    string
	httpClient *http.Client
}

// WhisperOption configures the WhisperClient.
type WhisperOption func(*WhisperClient)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) WhisperOption {
	return func(c *WhisperClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) WhisperOption {
	return func(c *WhisperClient) {
		c.httpClient = client
	}
}

// NewWhisperClient creates a client for the whisper-asr-webservice at
// baseURL.
func NewWhisperClient(baseURL string, opts ...WhisperOption) *WhisperClient {
	c := &WhisperClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads the audio file and returns the segmented transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string, opts Options) (*Transcription, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	reqURL, err := c.buildURL(opts)
	if err != nil {
		return nil, fmt.Errorf("build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, string(body))
	}

	return parseResponse(resp.Body)
}

func (c *WhisperClient) buildURL(opts Options) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/asr"
	}

	q := u.Query()
	q.Set("output", "json")
	if opts.Language != "" && opts.Language != "auto" {
		q.Set("language", opts.Language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseResponse(body io.Reader) (*Transcription, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp whisperResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}

	t := &Transcription{
		Text:     resp.Text,
		Language: resp.Language,
	}
	for _, s := range resp.Segments {
		t.Segments = append(t.Segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return t, nil
}

// whisperResponse is the JSON shape returned by the whisper-asr-webservice.
type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}
