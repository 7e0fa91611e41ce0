package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VinilJoseph/VIDEO-GEN/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("genai: api key is required")

// Options controls how the Veo client is configured.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client calls the Gemini REST API for Veo video generation. Rendering is
// asynchronous: a submit returns a long-running operation that is polled
// until done, after which the rendered bytes are fetched separately.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// Operation is the normalized state of a long-running generation job.
type Operation struct {
	Name     string
	Done     bool
	Err      *OperationError
	VideoURI string
}

// OperationError is a terminal failure reported by the API for an operation.
type OperationError struct {
	Code    int
	Message string
}

func (e *OperationError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("code %d: %s", e.Code, e.Message)
	}
	return e.Message
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance  `json:"instances"`
	Parameters *videoParameters `json:"parameters,omitempty"`
}

type operationStatus struct {
	Name     string              `json:"name"`
	Done     bool                `json:"done"`
	Error    *operationErrorBody `json:"error,omitempty"`
	Response *operationResult    `json:"response,omitempty"`
}

type operationErrorBody struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type operationResult struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples"`
}

type generatedSample struct {
	Video sampleVideo `json:"video"`
}

type sampleVideo struct {
	URI string `json:"uri"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Veo client with sane defaults. Callers may provide a
// nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "veo-3.1-generate-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Veo model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateVideos submits a prompt to the Veo model and returns the pending
// long-running operation.
func (c *Client) GenerateVideos(ctx context.Context, prompt, aspectRatio string) (*Operation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("genai: prompt is required")
	}

	payload := predictLongRunningRequest{
		Instances: []videoInstance{{Prompt: prompt}},
	}
	if aspectRatio = strings.TrimSpace(aspectRatio); aspectRatio != "" {
		payload.Parameters = &videoParameters{AspectRatio: aspectRatio}
	}

	var status operationStatus
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &status); err != nil {
		return nil, err
	}
	if status.Name == "" {
		return nil, errors.New("genai: operation name missing from response")
	}

	c.logger.Debug().
		Str("operation", status.Name).
		Str("model", c.model).
		Msg("genai: submitted video generation")

	return normalizeOperation(status), nil
}

// GetOperation fetches the current state of a previously submitted operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, errors.New("genai: operation name is required")
	}

	var status operationStatus
	if err := c.invoke(ctx, http.MethodGet, "/"+name, nil, &status); err != nil {
		return nil, err
	}
	return normalizeOperation(status), nil
}

// DownloadVideo fetches the rendered bytes from the URI a finished operation
// reported. Relative URIs resolve against the API base URL; the API key rides
// along as a query parameter, which the file endpoint requires.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("genai: video uri is required")
	}
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download video status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read video: %w", err)
	}
	if len(blob) == 0 {
		return nil, errors.New("genai: empty video download")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(blob)).
		Msg("genai: downloaded video")

	return blob, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		if len(raw) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func normalizeOperation(status operationStatus) *Operation {
	op := &Operation{Name: status.Name, Done: status.Done}
	if status.Error != nil {
		op.Err = &OperationError{Code: status.Error.Code, Message: status.Error.Message}
	}
	if status.Response != nil && status.Response.GenerateVideoResponse != nil {
		for _, sample := range status.Response.GenerateVideoResponse.GeneratedSamples {
			if uri := strings.TrimSpace(sample.Video.URI); uri != "" {
				op.VideoURI = uri
				break
			}
		}
	}
	return op
}
