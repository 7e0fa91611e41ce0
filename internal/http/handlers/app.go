package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VinilJoseph/VIDEO-GEN/internal/domain"
	"github.com/VinilJoseph/VIDEO-GEN/internal/providers/prompt"
	"github.com/VinilJoseph/VIDEO-GEN/internal/video"
)

// VideoGenerator runs the full generate pipeline. Satisfied by *video.Service.
type VideoGenerator interface {
	Generate(ctx context.Context, req video.GenerateRequest) (*domain.GenerationResult, error)
}

// VideoSearcher lists stored videos. Satisfied by *storage.CloudinaryStore.
// Nil when Cloudinary credentials are not configured.
type VideoSearcher interface {
	Search(ctx context.Context, folder string, maxResults int) ([]domain.StoredVideo, error)
}

type App struct {
	Enhancer prompt.Enhancer
	Videos   VideoGenerator
	Store    VideoSearcher
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, detail string) {
	a.json(w, status, map[string]string{"error": code, "detail": detail})
}
