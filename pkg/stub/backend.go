// Package stub provides a deterministic offline backend so the application
// can run without a model server.
package stub

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DefaultCaption is returned for every image
	DefaultCaption = "a placeholder image with no model attached"
	// DefaultTranslation is returned for every text prompt
	DefaultTranslation = "صورة مؤقتة بدون نموذج مرفق"
)

// Backend answers every query with fixed text
type Backend struct {
	log         *slog.Logger
	Caption     string
	Translation string
}

// New returns a Backend with the default replies
func New(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		log:         logger.With("component", "backend.stub"),
		Caption:     DefaultCaption,
		Translation: DefaultTranslation,
	}
}

// SimpleQuery implements client.VisionClient.
func (b *Backend) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("stub: decode image payload: %w", err)
	}
	b.log.Debug("stub caption", "model", model, "image_bytes", len(raw))
	return b.Caption, nil
}

// Complete implements client.TextClient.
func (b *Backend) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("stub: empty prompt")
	}
	b.log.Debug("stub completion", "model", model, "prompt_chars", len(prompt))
	return b.Translation, nil
}
