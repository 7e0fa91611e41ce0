package prompt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures the OpenAI-backed prompt enhancer.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	OnFallback func(reason string, err error)
}

// OpenAIEnhancer rewrites prompts through the chat completions API.
type OpenAIEnhancer struct {
	client     *openai.Client
	model      string
	onFallback func(reason string, err error)
}

// NewOpenAIEnhancer constructs the enhancer with sane defaults.
func NewOpenAIEnhancer(opts OpenAIOptions) (*OpenAIEnhancer, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		config.BaseURL = baseURL
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}
	return &OpenAIEnhancer{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		onFallback: opts.OnFallback,
	}, nil
}

// Enhance asks the chat model for a rewritten prompt. Any failure hands back
// the original prompt with the reason recorded on the outcome.
func (o *OpenAIEnhancer) Enhance(ctx context.Context, prompt string) Outcome {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhanceSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Original prompt: %s\n\nEnhanced prompt:", prompt)},
		},
	})
	if err != nil {
		return o.fallback(prompt, chatFailureReason(err), err)
	}
	if len(resp.Choices) == 0 {
		return o.fallback(prompt, "empty_choices", errors.New("no choices"))
	}
	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return o.fallback(prompt, "empty_response", errors.New("empty response"))
	}
	return Outcome{Prompt: enhanced, Rewritten: true}
}

func (o *OpenAIEnhancer) fallback(prompt, reason string, err error) Outcome {
	if o.onFallback != nil {
		o.onFallback(reason, err)
	}
	return Outcome{Prompt: prompt, Reason: reason}
}

// chatFailureReason folds library errors into the same reason vocabulary the
// Gemini enhancer uses, keeping the upstream status code when one exists.
func chatFailureReason(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return fmt.Sprintf("http_%d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return fmt.Sprintf("http_%d", reqErr.HTTPStatusCode)
	}
	return "chat_completion"
}

var _ Enhancer = (*OpenAIEnhancer)(nil)
