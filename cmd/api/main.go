package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/VinilJoseph/VIDEO-GEN/internal/http/handlers"
	"github.com/VinilJoseph/VIDEO-GEN/internal/http/httpapi"
	"github.com/VinilJoseph/VIDEO-GEN/internal/infra"
	"github.com/VinilJoseph/VIDEO-GEN/internal/providers/genai"
	"github.com/VinilJoseph/VIDEO-GEN/internal/providers/prompt"
	"github.com/VinilJoseph/VIDEO-GEN/internal/storage"
	"github.com/VinilJoseph/VIDEO-GEN/internal/video"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	generator, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.VeoModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video generation client")
	}

	output, err := storage.NewOutputStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare output directory")
	}

	// Missing Cloudinary credentials disable upload and listing, nothing more.
	store, err := storage.NewCloudinaryStore(storage.CloudinaryOptions{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Logger:    &logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary disabled, generated videos stay local only")
		store = nil
	}

	enhancer := buildEnhancer(cfg, logger)

	var uploader video.Uploader
	if store != nil {
		uploader = store
	}
	videos, err := video.NewService(video.Options{
		Generator:    generator,
		Uploader:     uploader,
		Output:       output,
		Logger:       &logger,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video service")
	}

	app := &handlers.App{
		Enhancer: enhancer,
		Videos:   videos,
	}
	if store != nil {
		app.Store = store
	}

	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildEnhancer picks the prompt rewriter for PROMPT_PROVIDER. The gemini
// enhancer is the fallback: its key is already validated by LoadConfig.
func buildEnhancer(cfg *infra.Config, logger infra.Logger) prompt.Enhancer {
	onFallback := func(reason string, err error) {
		logger.Warn().Err(err).Str("reason", reason).Msg("prompt enhancement fell back to the original prompt")
	}

	switch cfg.PromptProvider {
	case prompt.ProviderOpenAI:
		enhancer, err := prompt.NewOpenAIEnhancer(prompt.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			OnFallback: onFallback,
		})
		if err == nil {
			return enhancer
		}
		logger.Warn().Err(err).Msg("openai enhancer unavailable, using gemini")
	case prompt.ProviderQwen:
		enhancer, err := prompt.NewQwenEnhancer(prompt.QwenOptions{
			APIKey:     cfg.QwenAPIKey,
			Model:      cfg.QwenModel,
			BaseURL:    cfg.QwenBaseURL,
			OnFallback: onFallback,
		})
		if err == nil {
			return enhancer
		}
		logger.Warn().Err(err).Msg("qwen enhancer unavailable, using gemini")
	}

	enhancer, err := prompt.NewGeminiEnhancer(prompt.GeminiOptions{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		OnFallback: onFallback,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build prompt enhancer")
	}
	return enhancer
}
