package handlers

import (
	"net/http"
	"strconv"

	"github.com/VinilJoseph/VIDEO-GEN/internal/domain"
	"github.com/VinilJoseph/VIDEO-GEN/internal/storage"
)

type listVideosResponse struct {
	Total  int                  `json:"total"`
	Videos []domain.StoredVideo `json:"videos"`
	Folder string               `json:"folder"`
}

func (a *App) ListVideos(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		a.error(w, http.StatusServiceUnavailable, "service_unavailable",
			"Cloudinary service not available. Please check your Cloudinary credentials.")
		return
	}

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = storage.VideoFolder
	}
	maxResults := 500
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			a.error(w, http.StatusBadRequest, "bad_request", "max_results must be a positive integer")
			return
		}
		maxResults = n
	}

	videos, err := a.Store.Search(r.Context(), folder, maxResults)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "Failed to retrieve videos: "+err.Error())
		return
	}
	if videos == nil {
		videos = []domain.StoredVideo{}
	}

	a.json(w, http.StatusOK, listVideosResponse{
		Total:  len(videos),
		Videos: videos,
		Folder: folder,
	})
}
