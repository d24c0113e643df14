package caption

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/types"
)

// Stage names the pipeline step in InferenceError
const Stage = "caption"

// DefaultPrompt asks for a short unconditional caption in the style of BLIP
const DefaultPrompt = `Write one short caption for this image in English.
Describe the main subject and what it is doing, in plain lowercase words, at most 20 words.
Reply with the caption only. No quotes, no labels, no markdown.`

// Encoder turns a bitmap into the base64 payload sent to the model
type Encoder interface {
	Encode(img image.Image, format string, maxDim int, quality int) (string, error)
}

// Config holds model and payload settings for captioning
type Config struct {
	Model       string
	Prompt      string
	SendFormat  string
	SendSize    int
	SendQuality int
}

// Service produces English captions with a vision model
type Service struct {
	client  client.VisionClient
	encoder Encoder
	config  Config
	log     *slog.Logger
}

// NewService creates a caption service. Empty config fields fall back to defaults.
func NewService(vision client.VisionClient, encoder Encoder, cfg Config, logger *slog.Logger) *Service {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.SendFormat == "" {
		cfg.SendFormat = "jpg"
	}
	if cfg.SendQuality == 0 {
		cfg.SendQuality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  vision,
		encoder: encoder,
		config:  cfg,
		log:     logger.With("component", "caption.Service", "model", cfg.Model),
	}
}

// Caption describes img in one English sentence
func (s *Service) Caption(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", &types.InferenceError{Stage: Stage, Err: errors.New("no image")}
	}

	imgB64, err := s.encoder.Encode(img, s.config.SendFormat, s.config.SendSize, s.config.SendQuality)
	if err != nil {
		return "", &types.InferenceError{Stage: Stage, Err: fmt.Errorf("prepare image for model: %w", err)}
	}

	start := time.Now()
	raw, err := s.client.SimpleQuery(ctx, s.config.Model, s.config.Prompt, imgB64)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", &types.InferenceError{Stage: Stage, Err: fmt.Errorf("timed out after %s: %w", time.Since(start).Round(time.Millisecond), err)}
		}
		return "", &types.InferenceError{Stage: Stage, Err: err}
	}

	text := utils.CleanModelReply(raw)
	if text == "" {
		return "", &types.InferenceError{Stage: Stage, Err: errors.New("model returned an empty caption")}
	}

	s.log.Debug("caption generated", "chars", len(text), "took", time.Since(start))
	return text, nil
}
