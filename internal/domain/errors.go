package domain

import "errors"

var (
	ErrPromptTooShort     = errors.New("prompt too short")
	ErrInvalidAspectRatio = errors.New("unsupported aspect ratio")
	ErrGenerationFailed   = errors.New("video generation failed")
	ErrGenerationTimeout  = errors.New("video generation timed out")
)
