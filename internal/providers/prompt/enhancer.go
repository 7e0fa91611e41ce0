package prompt

import (
	"context"
	"fmt"
)

// Outcome reports what the enhancement step produced. Prompt always carries a
// usable value: the rewritten text when the provider answered, the original
// text otherwise. Reason is set only when the provider was skipped or failed.
type Outcome struct {
	Prompt    string
	Rewritten bool
	Reason    string
}

// Enhancer rewrites a raw user prompt into one better suited for video
// generation. Implementations never fail the request: on any provider error
// they hand back the original prompt and record why.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string) Outcome
}

// Provider names accepted by the PROMPT_PROVIDER setting.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderQwen   = "qwen"
)

// enhanceSystemPrompt steers the text model toward prompts for toddler math
// education videos.
const enhanceSystemPrompt = `You are an expert in creating educational video prompts for toddlers (ages 2-5) learning mathematics.

Your task is to enhance the given prompt to make it perfect for generating a video that teaches mathematical concepts to very young children.

Guidelines for enhancement:
1. Use simple, clear language appropriate for toddlers
2. Include visual elements: bright colors, large numbers/shapes, friendly characters
3. Add movement and animation: slow, smooth motions that toddlers can follow
4. Include repetition: concepts should be shown multiple times
5. Make it engaging: use cartoon characters, animals, or familiar objects
6. Keep it short: videos should focus on one concept at a time
7. Add sensory elements: sounds, colors, textures that help learning
8. Ensure clarity: text should be large, clear, and appear one element at a time
9. Include positive reinforcement: happy, encouraging visuals

Return ONLY the enhanced prompt, nothing else. Do not add explanations or meta-commentary.`

// buildEnhancePrompt combines the system preamble and the user prompt into a
// single text block for providers that take one flat prompt.
func buildEnhancePrompt(userPrompt string) string {
	return fmt.Sprintf("%s\n\nOriginal prompt: %s\n\nEnhanced prompt:", enhanceSystemPrompt, userPrompt)
}
