package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/VinilJoseph/VIDEO-GEN/internal/domain"
	"github.com/VinilJoseph/VIDEO-GEN/internal/infra"
	"github.com/VinilJoseph/VIDEO-GEN/internal/providers/genai"
	"github.com/VinilJoseph/VIDEO-GEN/internal/storage"
)

// Generator is the slice of the Veo client the service consumes.
type Generator interface {
	GenerateVideos(ctx context.Context, prompt, aspectRatio string) (*genai.Operation, error)
	GetOperation(ctx context.Context, name string) (*genai.Operation, error)
	DownloadVideo(ctx context.Context, uri string) ([]byte, error)
}

// Uploader pushes a finished video into the external media store.
type Uploader interface {
	Upload(ctx context.Context, localPath, publicID string) (*storage.UploadResult, error)
}

// Options wires the service dependencies. Generator and Output are required;
// a nil Uploader disables uploads and merely logs a warning when one is
// requested.
type Options struct {
	Generator    Generator
	Uploader     Uploader
	Output       *storage.OutputStore
	Logger       *infra.Logger
	PollInterval time.Duration
	PollTimeout  time.Duration
	Now          func() time.Time
}

// Service orchestrates a generation end to end: submit, poll until done,
// download, persist locally and optionally hand off to the media store.
type Service struct {
	generator    Generator
	uploader     Uploader
	output       *storage.OutputStore
	logger       *infra.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
	now          func() time.Time
}

// GenerateRequest carries the inputs for one generation run. The prompt is
// expected to be validated (and possibly enhanced) by the caller.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
	Upload      bool
}

// NewService validates the wiring and applies defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, errors.New("video: generator is required")
	}
	if opts.Output == nil {
		return nil, errors.New("video: output store is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Service{
		generator:    opts.Generator,
		uploader:     opts.Uploader,
		output:       opts.Output,
		logger:       logger,
		pollInterval: interval,
		pollTimeout:  timeout,
		now:          now,
	}, nil
}

// Generate runs one video generation to completion. The returned result
// always names the local file; RemoteURL is set only when the upload
// succeeded, in which case the local copy has been deleted to save disk.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*domain.GenerationResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("video: prompt is required")
	}

	op, err := s.generator.GenerateVideos(ctx, prompt, req.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("video: submit generation: %w", err)
	}
	s.logger.Info().
		Str("operation", op.Name).
		Msg("video: generation submitted")

	op, err = s.awaitOperation(ctx, op)
	if err != nil {
		return nil, err
	}
	if op.Err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrGenerationFailed, op.Err.Error())
	}
	if op.VideoURI == "" {
		return nil, fmt.Errorf("%w: no video returned", domain.ErrGenerationFailed)
	}

	data, err := s.generator.DownloadVideo(ctx, op.VideoURI)
	if err != nil {
		return nil, fmt.Errorf("video: download: %w", err)
	}

	filename := "veo31_video_" + s.now().Format("20060102_150405") + ".mp4"
	localPath, err := s.output.Save(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("video: save: %w", err)
	}
	s.logger.Info().
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("video: saved locally")

	result := &domain.GenerationResult{LocalPath: localPath, Filename: filename}
	if !req.Upload {
		return result, nil
	}
	if s.uploader == nil {
		s.logger.Warn().Msg("video: media store not available, skipping upload")
		return result, nil
	}

	publicID := strings.TrimSuffix(filename, filepath.Ext(filename))
	uploaded, err := s.uploader.Upload(ctx, localPath, publicID)
	if err != nil {
		// Upload failure is not fatal: the local file stays behind.
		s.logger.Warn().
			Err(err).
			Str("filename", filename).
			Msg("video: upload failed, keeping local file")
		return result, nil
	}
	result.RemoteURL = uploaded.SecureURL
	result.Uploaded = true
	s.logger.Info().
		Str("public_id", uploaded.PublicID).
		Str("url", uploaded.SecureURL).
		Msg("video: uploaded to media store")

	if err := s.output.Remove(localPath); err != nil {
		s.logger.Warn().
			Err(err).
			Str("path", localPath).
			Msg("video: could not delete local file")
	}
	return result, nil
}

// awaitOperation polls until the operation reports done or the poll timeout
// elapses.
func (s *Service) awaitOperation(ctx context.Context, op *genai.Operation) (*genai.Operation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	for !op.Done {
		s.logger.Debug().
			Str("operation", op.Name).
			Msg("video: waiting for generation to complete")
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, s.pollTimeout)
			}
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
		next, err := s.generator.GetOperation(ctx, op.Name)
		if err != nil {
			return nil, fmt.Errorf("video: poll operation: %w", err)
		}
		op = next
	}
	return op, nil
}
