package ui

import (
	"errors"
	"image"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/runner"
	"github.com/menta2k/image-captioner/pkg/types"
)

const (
	instructionText = "📸 Select an image for a caption and Arabic translation."
	englishPrefix   = "English Caption:"
	arabicPrefix    = "Arabic Translation:"
	captionFailed   = "❌ Error in captioning"
	translateFailed = "❌ Error in translation"
)

// Submitter starts a background caption request
type Submitter interface {
	Submit(imagePath string) (types.CaptionRequest, error)
}

// Previewer decodes a small preview of an image file
type Previewer interface {
	Preview(path string) (image.Image, error)
}

// Options configure the shell window
type Options struct {
	Title     string
	Width     float32
	Height    float32
	Formats   []string
	Submitter Submitter
	Previewer Previewer
	Logger    *slog.Logger
}

// Shell is the single caption window. All methods except Listen must run
// on the fyne UI goroutine.
type Shell struct {
	window     fyne.Window
	submitter  Submitter
	previewer  Previewer
	extensions []string
	log        *slog.Logger

	preview    *canvas.Image
	progress   *widget.ProgressBarInfinite
	english    *widget.Label
	arabic     *widget.Label
	choose     *widget.Button
	errorLabel *widget.Label
}

// New builds the window and its widgets; call Window().ShowAndRun() to start
func New(a fyne.App, opts Options) *Shell {
	if opts.Title == "" {
		opts.Title = "Image Caption Generator"
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 720, 650
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Shell{
		window:     a.NewWindow(opts.Title),
		submitter:  opts.Submitter,
		previewer:  opts.Previewer,
		extensions: utils.DotExtensions(opts.Formats),
		log:        opts.Logger.With("component", "ui.Shell"),
	}
	s.build()
	s.window.SetContent(s.content())
	s.window.Resize(fyne.NewSize(opts.Width, opts.Height))
	return s
}

// Window returns the underlying fyne window
func (s *Shell) Window() fyne.Window {
	return s.window
}

func (s *Shell) build() {
	s.preview = canvas.NewImageFromImage(nil)
	s.preview.FillMode = canvas.ImageFillContain
	s.preview.SetMinSize(fyne.NewSize(350, 350))
	s.preview.Hide()

	s.progress = widget.NewProgressBarInfinite()
	s.progress.Stop()
	s.progress.Hide()

	s.english = widget.NewLabel(englishPrefix)
	s.english.Wrapping = fyne.TextWrapWord
	s.english.Alignment = fyne.TextAlignCenter

	s.arabic = widget.NewLabel(arabicPrefix)
	s.arabic.Wrapping = fyne.TextWrapWord
	s.arabic.Alignment = fyne.TextAlignCenter

	s.choose = widget.NewButtonWithIcon("Choose Image", theme.FolderOpenIcon(), s.openDialog)
	s.choose.Importance = widget.HighImportance

	s.errorLabel = widget.NewLabel("")
	s.errorLabel.Importance = widget.DangerImportance
	s.errorLabel.Wrapping = fyne.TextWrapWord
	s.errorLabel.Alignment = fyne.TextAlignCenter
}

func (s *Shell) content() fyne.CanvasObject {
	title := widget.NewLabelWithStyle(instructionText, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	return container.NewPadded(container.NewVBox(
		title,
		container.NewCenter(s.preview),
		s.progress,
		s.english,
		s.arabic,
		container.NewCenter(s.choose),
		s.errorLabel,
	))
}

func (s *Shell) openDialog() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.window)
			return
		}
		if reader == nil {
			return // cancelled
		}
		path := reader.URI().Path()
		_ = reader.Close()
		s.Select(path)
	}, s.window)
	if len(s.extensions) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(s.extensions))
	}
	d.Show()
}

// Select shows a preview of path, switches to the busy state and submits it.
// A preview failure is not reported here; the runner reports it as the result.
func (s *Shell) Select(path string) {
	if s.previewer != nil {
		if thumb, err := s.previewer.Preview(path); err == nil {
			s.preview.Image = thumb
			s.preview.Show()
			s.preview.Refresh()
		} else {
			s.log.Debug("preview unavailable", "path", path, "error", err)
			s.preview.Hide()
		}
	}

	s.english.SetText(englishPrefix)
	s.arabic.SetText(arabicPrefix)
	s.errorLabel.SetText("")
	s.setBusy(true)

	if _, err := s.submitter.Submit(path); err != nil {
		s.log.Warn("submit refused", "path", path, "error", err)
		s.errorLabel.SetText("Error: " + err.Error())
		if !errors.Is(err, runner.ErrBusy) {
			s.setBusy(false)
		}
	}
}

// Apply renders a result and returns the controls to idle
func (s *Shell) Apply(res types.CaptionResult) {
	defer s.setBusy(false)

	if res.OK() {
		s.english.SetText(englishPrefix + " " + res.English)
		s.arabic.SetText(arabicPrefix + " " + res.Arabic)
		s.errorLabel.SetText("")
		return
	}

	s.english.SetText(captionFailed)
	s.arabic.SetText(translateFailed)
	s.errorLabel.SetText("Error: " + res.Message)
}

// Listen consumes results until the channel closes, applying each one on the
// UI goroutine. It runs on its own goroutine.
func (s *Shell) Listen(results <-chan types.CaptionResult) {
	for res := range results {
		fyne.Do(func() { s.Apply(res) })
	}
}

func (s *Shell) setBusy(busy bool) {
	if busy {
		s.progress.Show()
		s.progress.Start()
		s.choose.Disable()
		return
	}
	s.progress.Stop()
	s.progress.Hide()
	s.choose.Enable()
}
