package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/types"
)

// Stage names the pipeline step in InferenceError
const Stage = "translate"

// DefaultPrompt is rendered with Source, Target and Text
const DefaultPrompt = `Translate the following {source} text into {target}.
Reply with the translation only, on a single line, without quotes or explanations.

{text}`

// Config holds model and language settings for translation
type Config struct {
	Model  string
	Prompt string
	Source string
	Target string
}

// Service translates captions with a text model
type Service struct {
	client client.TextClient
	config Config
	log    *slog.Logger
}

// NewService creates a translation service, English to Arabic unless configured otherwise
func NewService(text client.TextClient, cfg Config, logger *slog.Logger) *Service {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Source == "" {
		cfg.Source = "English"
	}
	if cfg.Target == "" {
		cfg.Target = "Arabic"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: text,
		config: cfg,
		log:    logger.With("component", "translate.Service", "model", cfg.Model),
	}
}

// Translate renders text in the target language
func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &types.InferenceError{Stage: Stage, Err: errors.New("nothing to translate")}
	}

	start := time.Now()
	raw, err := s.client.Complete(ctx, s.config.Model, s.Prompt(text))
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", &types.InferenceError{Stage: Stage, Err: fmt.Errorf("timed out after %s: %w", time.Since(start).Round(time.Millisecond), err)}
		}
		return "", &types.InferenceError{Stage: Stage, Err: err}
	}

	out := utils.CleanModelReply(raw)
	if out == "" {
		return "", &types.InferenceError{Stage: Stage, Err: errors.New("model returned an empty translation")}
	}

	s.log.Debug("translation generated", "chars", len(out), "took", time.Since(start))
	return out, nil
}

// Prompt renders the configured prompt for text
func (s *Service) Prompt(text string) string {
	r := strings.NewReplacer(
		"{source}", s.config.Source,
		"{target}", s.config.Target,
		"{text}", text,
	)
	return r.Replace(s.config.Prompt)
}
