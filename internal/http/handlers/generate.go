package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/VinilJoseph/VIDEO-GEN/internal/domain"
	"github.com/VinilJoseph/VIDEO-GEN/internal/video"
)

type generateVideoRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	// Pointer so an absent field defaults to true.
	EnhancePrompt *bool `json:"enhance_prompt"`
}

type generateVideoResponse struct {
	Message        string `json:"message"`
	CloudinaryURL  string `json:"cloudinary_url,omitempty"`
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt,omitempty"`
	Filename       string `json:"filename"`
}

func (a *App) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req generateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = domain.DefaultAspectRatio
	}
	enhance := req.EnhancePrompt == nil || *req.EnhancePrompt

	genReq := domain.GenerationRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Enhance:     enhance,
	}
	if err := genReq.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	finalPrompt := genReq.Prompt
	var enhancedPrompt string
	if enhance && a.Enhancer != nil {
		outcome := a.Enhancer.Enhance(r.Context(), genReq.Prompt)
		finalPrompt = outcome.Prompt
		if outcome.Rewritten {
			enhancedPrompt = outcome.Prompt
		}
	}

	result, err := a.Videos.Generate(r.Context(), video.GenerateRequest{
		Prompt:      finalPrompt,
		AspectRatio: genReq.AspectRatio,
		Upload:      true,
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "Video generation failed: "+err.Error())
		return
	}

	a.json(w, http.StatusOK, generateVideoResponse{
		Message:        "Video generated successfully",
		CloudinaryURL:  result.RemoteURL,
		OriginalPrompt: genReq.Prompt,
		EnhancedPrompt: enhancedPrompt,
		Filename:       result.Filename,
	})
}
