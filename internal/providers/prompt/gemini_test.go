package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewGeminiEnhancerRequiresKey(t *testing.T) {
	if _, err := NewGeminiEnhancer(GeminiOptions{}); err == nil {
		t.Fatal("NewGeminiEnhancer accepted a missing api key")
	}
}

func TestGeminiEnhancerRewritesPrompt(t *testing.T) {
	var captured []byte
	var gotHeader string
	enhancer, err := NewGeminiEnhancer(GeminiOptions{
		APIKey: "dummy",
		Model:  "gemini-1.5-pro",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			captured, _ = io.ReadAll(r.Body)
			gotHeader = r.Header.Get("x-goog-api-key")
			return jsonResponse(http.StatusOK, `{
				"candidates":[{"content":{"parts":[{"text":"  A colorful counting adventure  "}]}}]
			}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiEnhancer: %v", err)
	}

	out := enhancer.Enhance(context.Background(), "teach counting to three")
	if !out.Rewritten {
		t.Fatal("Rewritten = false, want true")
	}
	if out.Prompt != "A colorful counting adventure" {
		t.Errorf("Prompt = %q, want trimmed model text", out.Prompt)
	}
	if out.Reason != "" {
		t.Errorf("Reason = %q, want empty on success", out.Reason)
	}
	if gotHeader != "dummy" {
		t.Errorf("x-goog-api-key = %q, want dummy", gotHeader)
	}

	var payload geminiRequest
	if err := json.Unmarshal(captured, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 1 {
		t.Fatalf("contents = %+v", payload.Contents)
	}
	text := payload.Contents[0].Parts[0].Text
	if !strings.Contains(text, "Original prompt: teach counting to three") {
		t.Errorf("payload text missing the user prompt: %q", text)
	}
	if !strings.HasPrefix(text, "You are an expert in creating educational video prompts") {
		t.Errorf("payload text missing the system preamble: %.60q", text)
	}
	cfg := payload.GenerationConfig
	if cfg == nil {
		t.Fatal("generationConfig missing")
	}
	if cfg.Temperature != 0.7 || cfg.TopP != 0.9 || cfg.MaxOutputTokens != 500 {
		t.Errorf("generationConfig = %+v", cfg)
	}
}

func TestGeminiEnhancerFallsBackOnTransportError(t *testing.T) {
	var gotReason string
	var gotErr error
	enhancer, err := NewGeminiEnhancer(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
		OnFallback: func(reason string, err error) {
			gotReason, gotErr = reason, err
		},
	})
	if err != nil {
		t.Fatalf("NewGeminiEnhancer: %v", err)
	}

	out := enhancer.Enhance(context.Background(), "teach counting to three")
	if out.Rewritten {
		t.Error("Rewritten = true after a transport failure")
	}
	if out.Prompt != "teach counting to three" {
		t.Errorf("Prompt = %q, want the original back", out.Prompt)
	}
	if out.Reason != "http_request" {
		t.Errorf("Reason = %q, want http_request", out.Reason)
	}
	if gotReason != "http_request" || gotErr == nil {
		t.Errorf("OnFallback got (%q, %v)", gotReason, gotErr)
	}
}

func TestGeminiEnhancerFallsBackOnStatus(t *testing.T) {
	enhancer, err := NewGeminiEnhancer(GeminiOptions{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error":{"message":"quota"}}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGeminiEnhancer: %v", err)
	}

	out := enhancer.Enhance(context.Background(), "teach counting to three")
	if out.Rewritten || out.Prompt != "teach counting to three" {
		t.Errorf("out = %+v, want original prompt back", out)
	}
	if out.Reason != "http_429" {
		t.Errorf("Reason = %q, want http_429", out.Reason)
	}
}

func TestGeminiEnhancerFallsBackOnEmptyText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[]}`},
		{"blank text", `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer, err := NewGeminiEnhancer(GeminiOptions{
				APIKey: "dummy",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					return jsonResponse(http.StatusOK, tt.body), nil
				})},
			})
			if err != nil {
				t.Fatalf("NewGeminiEnhancer: %v", err)
			}

			out := enhancer.Enhance(context.Background(), "teach counting to three")
			if out.Rewritten || out.Prompt != "teach counting to three" {
				t.Errorf("out = %+v, want original prompt back", out)
			}
			if out.Reason != "empty_response" {
				t.Errorf("Reason = %q, want empty_response", out.Reason)
			}
		})
	}
}
