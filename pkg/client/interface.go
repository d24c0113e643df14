package client

import (
	"context"
)

// VisionClient describes an image with a vision language model
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
}

// TextClient completes a text-only prompt
type TextClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Backend serves both captioning and translation
type Backend interface {
	VisionClient
	TextClient
}
