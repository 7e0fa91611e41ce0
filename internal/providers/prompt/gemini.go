package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiDefaultTimeout = 15 * time.Second

// GeminiOptions configures the Gemini-backed prompt enhancer.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	OnFallback func(reason string, err error)
}

// GeminiEnhancer rewrites prompts through the Gemini generateContent API.
type GeminiEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	onFallback func(reason string, err error)
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGeminiEnhancer constructs the enhancer with sane defaults.
func NewGeminiEnhancer(opts GeminiOptions) (*GeminiEnhancer, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-pro"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiEnhancer{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		onFallback: opts.OnFallback,
	}, nil
}

// Enhance asks Gemini for a rewritten prompt. Any failure hands back the
// original prompt with the reason recorded on the outcome.
func (g *GeminiEnhancer) Enhance(ctx context.Context, prompt string) Outcome {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildEnhancePrompt(prompt)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.9,
			MaxOutputTokens: 500,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return g.fallback(prompt, "encode_request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return g.fallback(prompt, "build_request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return g.fallback(prompt, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.fallback(prompt, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("gemini status %d", resp.StatusCode))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.fallback(prompt, "decode_response", err)
	}
	enhanced := strings.TrimSpace(extractText(out))
	if enhanced == "" {
		return g.fallback(prompt, "empty_response", errors.New("empty response"))
	}
	return Outcome{Prompt: enhanced, Rewritten: true}
}

func (g *GeminiEnhancer) fallback(prompt, reason string, err error) Outcome {
	if g.onFallback != nil {
		g.onFallback(reason, err)
	}
	return Outcome{Prompt: prompt, Reason: reason}
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

var _ Enhancer = (*GeminiEnhancer)(nil)
