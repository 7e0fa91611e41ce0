package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	qwenDefaultTimeout = 15 * time.Second
	defaultQwenModel   = "qwen-plus"
)

// QwenOptions configures the DashScope-backed prompt enhancer.
type QwenOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	OnFallback func(reason string, err error)
}

// QwenEnhancer rewrites prompts through the DashScope text generation API.
type QwenEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	onFallback func(reason string, err error)
}

type qwenRequest struct {
	Model      string         `json:"model"`
	Input      qwenInput      `json:"input"`
	Parameters qwenParameters `json:"parameters"`
}

type qwenInput struct {
	Messages []qwenMessage `json:"messages"`
}

type qwenMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type qwenParameters struct {
	ResultFormat string  `json:"result_format,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	TopP         float64 `json:"top_p,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// qwenResponse also carries the DashScope error envelope: the service reports
// failures through code/message fields, sometimes on a 200.
type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message qwenMessage `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// NewQwenEnhancer constructs the enhancer with sane defaults.
func NewQwenEnhancer(opts QwenOptions) (*QwenEnhancer, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("qwen api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dashscope-intl.aliyuncs.com/api/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultQwenModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: qwenDefaultTimeout}
	}
	return &QwenEnhancer{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		onFallback: opts.OnFallback,
	}, nil
}

// Enhance asks Qwen for a rewritten prompt. Any failure hands back the
// original prompt with the reason recorded on the outcome.
func (q *QwenEnhancer) Enhance(ctx context.Context, prompt string) Outcome {
	payload := qwenRequest{
		Model: q.model,
		Input: qwenInput{
			Messages: []qwenMessage{
				{Role: "system", Content: enhanceSystemPrompt},
				{Role: "user", Content: fmt.Sprintf("Original prompt: %s\n\nEnhanced prompt:", prompt)},
			},
		},
		Parameters: qwenParameters{
			ResultFormat: "message",
			Temperature:  0.7,
			TopP:         0.9,
			MaxTokens:    500,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return q.fallback(prompt, "encode_request", err)
	}

	endpoint := q.baseURL + "/services/aigc/text-generation/generation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return q.fallback(prompt, "build_request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+q.apiKey)

	resp, err := q.client.Do(req)
	if err != nil {
		return q.fallback(prompt, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return q.fallback(prompt, "decode_response", err)
	}
	if resp.StatusCode >= 300 {
		reason := fmt.Sprintf("http_%d", resp.StatusCode)
		var detail qwenResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return q.fallback(prompt, reason, fmt.Errorf("qwen %s (%s)", detail.Message, detail.Code))
		}
		return q.fallback(prompt, reason, fmt.Errorf("qwen status %d", resp.StatusCode))
	}

	var out qwenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return q.fallback(prompt, "decode_response", err)
	}
	if out.Code != "" {
		return q.fallback(prompt, "api_error", fmt.Errorf("qwen %s (%s)", out.Message, out.Code))
	}
	if len(out.Output.Choices) == 0 {
		return q.fallback(prompt, "empty_choices", errors.New("no choices returned"))
	}
	enhanced := strings.TrimSpace(out.Output.Choices[0].Message.Content)
	if enhanced == "" {
		return q.fallback(prompt, "empty_response", errors.New("empty response"))
	}
	return Outcome{Prompt: enhanced, Rewritten: true}
}

func (q *QwenEnhancer) fallback(prompt, reason string, err error) Outcome {
	if q.onFallback != nil {
		q.onFallback(reason, err)
	}
	return Outcome{Prompt: prompt, Reason: reason}
}

var _ Enhancer = (*QwenEnhancer)(nil)
