package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv    string
	Port      string
	OutputDir string

	// Gemini credentials are shared by the Veo video client and the default
	// prompt enhancer. GEMINI_API_KEY wins over GOOGLE_API_KEY.
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	VeoModel      string

	PromptProvider string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	QwenAPIKey     string
	QwenModel      string
	QwenBaseURL    string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	CORSAllowedOrigins []string

	PollInterval time.Duration
	PollTimeout  time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The generative-text API key is required; the
// Cloudinary credential set is optional and merely disables store features
// when incomplete.
func LoadConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "8000"),
		OutputDir: getEnv("OUTPUT_DIR", "output"),

		GeminiAPIKey:  apiKey,
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		VeoModel:      getEnv("VEO_MODEL", "veo-3.1-generate-preview"),

		PromptProvider: getEnv("PROMPT_PROVIDER", "gemini"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		QwenAPIKey:     os.Getenv("QWEN_API_KEY"),
		QwenModel:      getEnv("QWEN_MODEL", "qwen-plus"),
		QwenBaseURL:    getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		PollInterval: time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		PollTimeout:  time.Minute * time.Duration(getEnvInt("POLL_TIMEOUT_MINUTES", 30)),

		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// Generation legitimately holds the response open for minutes while
		// the poll loop runs, so the write timeout defaults to unlimited.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY is required")
	}

	return cfg, nil
}

// CloudinaryConfigured reports whether the full credential set for the media
// store is present. A partial set counts as absent.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
