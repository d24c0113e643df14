package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"fyne.io/fyne/v2/app"

	imagecaptioner "github.com/menta2k/image-captioner"
	"github.com/menta2k/image-captioner/internal/config"
	"github.com/menta2k/image-captioner/internal/logging"
	"github.com/menta2k/image-captioner/internal/ui"
)

// Default server URLs per backend when -backend is given without -url
var defaultURLs = map[string]string{
	config.BackendOllama:   "http://localhost:11434",
	config.BackendLlamaCpp: "http://localhost:8080",
}

func main() {
	var configPath, backend, url string
	var captionModel, translationModel string
	var logLevel string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (json or yaml), defaults to "+config.GetConfigPath())
	flag.StringVar(&backend, "backend", "", "backend to use: ollama, llamacpp or stub")
	flag.StringVar(&url, "url", "", "server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	flag.StringVar(&captionModel, "caption-model", "", "vision model used for captions")
	flag.StringVar(&translationModel, "translation-model", "", "text model used for translation")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(imagecaptioner.GetVersion())
		return
	}

	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.Loader{Path: configPath}.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if backend != "" {
		cfg.Backend.Kind = backend
		if url == "" {
			cfg.Backend.URL = defaultURLs[backend]
		}
	}
	if url != "" {
		cfg.Backend.URL = url
	}
	if captionModel != "" {
		cfg.Caption.Model = captionModel
	}
	if translationModel != "" {
		cfg.Translation.Model = translationModel
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	logging.Install(logger)

	captioner, err := imagecaptioner.Build(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	a := app.NewWithID(cfg.UI.AppID)
	shell := ui.New(a, ui.Options{
		Title:     cfg.UI.Title,
		Width:     float32(cfg.UI.Width),
		Height:    float32(cfg.UI.Height),
		Formats:   captioner.Decoder.SupportedFormats(),
		Submitter: captioner.Runner,
		Previewer: captioner.Decoder,
		Logger:    logger,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		shell.Listen(captioner.Runner.Results())
	}()

	logger.Info("starting", "version", imagecaptioner.GetVersion(), "config", configPath)
	shell.Window().ShowAndRun()

	captioner.Close()
	<-done
	logger.Info("stopped")
}
