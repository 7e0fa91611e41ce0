package domain

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MinPromptLength is the minimum number of characters a generation
	// prompt must carry before any external service is invoked.
	MinPromptLength = 10

	DefaultAspectRatio = "16:9"
)

var supportedAspectRatios = map[string]struct{}{
	"16:9": {},
	"9:16": {},
}

// GenerationRequest is an accepted video-generation request. It is immutable
// once validated; the enhancement step never mutates it, only derives the
// prompt that is eventually submitted.
type GenerationRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Enhance     bool   `json:"enhance_prompt"`
}

// Validate rejects malformed requests before any external call is made.
func (r GenerationRequest) Validate() error {
	if utf8.RuneCountInString(r.Prompt) < MinPromptLength {
		return fmt.Errorf("%w: need at least %d characters", ErrPromptTooShort, MinPromptLength)
	}
	if _, ok := supportedAspectRatios[r.AspectRatio]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAspectRatio, r.AspectRatio)
	}
	return nil
}

// GenerationResult is populated incrementally as the orchestration proceeds.
// RemoteURL is non-empty if and only if the upload succeeded; on upload
// failure LocalPath still points at the retained file.
type GenerationResult struct {
	LocalPath string
	Filename  string
	RemoteURL string
	Uploaded  bool
}

// StoredVideo mirrors a video resource owned by the external media store.
// The fields are read-only snapshots of what the store reported; created_at
// stays the vendor's own timestamp string.
type StoredVideo struct {
	PublicID    string  `json:"public_id"`
	SecureURL   string  `json:"secure_url"`
	Format      string  `json:"format,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	Bytes       int64   `json:"bytes,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Filename    string  `json:"filename"`
	DisplayName string  `json:"display_name,omitempty"`
}
