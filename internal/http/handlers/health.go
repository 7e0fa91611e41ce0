package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"message": "Veo 3.1 Video Generation API",
		"endpoints": map[string]string{
			"generate":    "/api/generate-video",
			"list_videos": "/api/videos",
			"health":      "/health",
		},
	})
}
