// Package imagecaptioner describes images in English and translates the
// description, using local vision and text models.
//
// Basic usage:
//
//	cfg := config.Default()
//	cfg.Backend.Kind = config.BackendStub
//
//	app, err := imagecaptioner.Build(cfg, slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer app.Close()
//
//	if _, err := app.Runner.Submit("photo.jpg"); err != nil {
//		log.Fatal(err)
//	}
//	res := <-app.Runner.Results()
//	fmt.Println(res.English, res.Arabic)
//
// The package consists of these components:
//
// 1. Decoder (pkg/decoder): loads image files, builds previews and model payloads
// 2. Caption (pkg/caption): English captions from a vision model
// 3. Translate (pkg/translate): translation with a text model
// 4. Runner (pkg/runner): single-in-flight background execution of the pipeline
// 5. Backends (pkg/ollama, pkg/llamacpp, pkg/stub): model servers
//
// The desktop shell lives in internal/ui and cmd/image-captioner.
package imagecaptioner

import (
	"fmt"
	"log/slog"

	"github.com/menta2k/image-captioner/internal/config"
	"github.com/menta2k/image-captioner/internal/telemetry"
	"github.com/menta2k/image-captioner/pkg/caption"
	"github.com/menta2k/image-captioner/pkg/client"
	"github.com/menta2k/image-captioner/pkg/decoder"
	"github.com/menta2k/image-captioner/pkg/llamacpp"
	"github.com/menta2k/image-captioner/pkg/ollama"
	"github.com/menta2k/image-captioner/pkg/runner"
	"github.com/menta2k/image-captioner/pkg/stub"
	"github.com/menta2k/image-captioner/pkg/translate"
)

// Version of the image captioner
const Version = "1.0.0"

// App bundles the long-lived services built from a Config
type App struct {
	Config   *config.Config
	Decoder  *decoder.Decoder
	Runner   *runner.Runner
	Recorder *telemetry.Recorder
}

// NewBackend creates the model client selected by cfg.Backend
func NewBackend(cfg *config.Config, logger *slog.Logger) (client.Backend, error) {
	switch cfg.Backend.Kind {
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.Backend.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case config.BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.Backend.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	case config.BackendStub:
		return stub.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama', 'llamacpp' or 'stub')", cfg.Backend.Kind)
	}
}

// Build wires decoder, model services and runner. The models are created
// once here and shared read-only by every request.
func Build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	return BuildWithBackend(cfg, backend, logger)
}

// BuildWithBackend is Build with an already constructed model client
func BuildWithBackend(cfg *config.Config, backend client.Backend, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := decoder.NewWithConfig(decoder.Config{
		SupportedFormats: cfg.Decoder.SupportedFormats,
		ThumbnailSize:    cfg.Decoder.ThumbnailSize,
	})

	captioner := caption.NewService(backend, dec, caption.Config{
		Model:       cfg.Caption.Model,
		Prompt:      cfg.Caption.Prompt,
		SendFormat:  cfg.Caption.SendFormat,
		SendSize:    cfg.Caption.SendSize,
		SendQuality: cfg.Caption.SendQuality,
	}, logger)

	translator := translate.NewService(backend, translate.Config{
		Model:  cfg.Translation.Model,
		Prompt: cfg.Translation.Prompt,
		Source: cfg.Translation.SourceLanguage,
		Target: cfg.Translation.TargetLanguage,
	}, logger)

	recorder := telemetry.NewRecorder(logger)
	r, err := runner.New(runner.Services{
		Decoder:    dec,
		Captioner:  captioner,
		Translator: translator,
	}, runner.Options{
		Timeout:  cfg.Timeout(),
		Logger:   logger,
		Recorder: recorder,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline ready",
		"backend", cfg.Backend.Kind,
		"caption_model", cfg.Caption.Model,
		"translation_model", cfg.Translation.Model,
		"timeout", cfg.Timeout(),
	)

	return &App{
		Config:   cfg,
		Decoder:  dec,
		Runner:   r,
		Recorder: recorder,
	}, nil
}

// Close shuts the runner down and logs telemetry totals.
// The results consumer must still be draining while Close runs.
func (a *App) Close() {
	a.Runner.Close()
	a.Recorder.LogTotals()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
