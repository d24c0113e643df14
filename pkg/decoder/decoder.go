package decoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-captioner/internal/utils"
	"github.com/menta2k/image-captioner/pkg/types"
)

// ErrUnsupportedFormat is wrapped by DecodeError when the file type is not accepted
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Decoder turns image files into bitmaps and bitmaps into model payloads
type Decoder struct {
	config Config
}

// Config holds configuration for the decoder
type Config struct {
	SupportedFormats []string
	ThumbnailSize    int
}

// New creates a new Decoder with default configuration
func New() *Decoder {
	return &Decoder{
		config: Config{
			SupportedFormats: []string{"jpg", "jpeg", "png"},
			ThumbnailSize:    350,
		},
	}
}

// NewWithConfig creates a new Decoder with custom configuration
func NewWithConfig(config Config) *Decoder {
	if len(config.SupportedFormats) == 0 {
		config.SupportedFormats = []string{"jpg", "jpeg", "png"}
	}
	if config.ThumbnailSize <= 0 {
		config.ThumbnailSize = 350
	}
	return &Decoder{config: config}
}

// SupportedFormats returns the accepted file extensions without the dot
func (d *Decoder) SupportedFormats() []string {
	out := make([]string, len(d.config.SupportedFormats))
	copy(out, d.config.SupportedFormats)
	return out
}

// Decode loads an image from a file path
func (d *Decoder) Decode(path string) (image.Image, error) {
	ext := utils.GetFileExtension(path)
	if !d.isFormatSupported(ext) {
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("failed to open image file: %w", err)}
	}
	defer file.Close()

	img, err := d.decodeReader(file, ext)
	if err != nil {
		return nil, &types.DecodeError{Path: path, Err: err}
	}

	if img.Bounds().Empty() {
		return nil, &types.DecodeError{Path: path, Err: fmt.Errorf("image has no pixels")}
	}
	return img, nil
}

func (d *Decoder) decodeReader(r io.ReadSeeker, ext string) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err == nil {
		if !d.isFormatSupported(format) {
			return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedFormat, format)
		}
		return img, nil
	}

	// Fallback: explicit WebP decode
	if ext == "webp" {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr == nil {
			if img, webpErr := webp.Decode(r); webpErr == nil {
				return img, nil
			}
		}
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}

// Thumbnail scales img down to fit inside maxSide x maxSide, keeping its aspect ratio.
// A non-positive maxSide uses the configured thumbnail size.
func (d *Decoder) Thumbnail(img image.Image, maxSide int) image.Image {
	if maxSide <= 0 {
		maxSide = d.config.ThumbnailSize
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

// Preview decodes path and returns its thumbnail
func (d *Decoder) Preview(path string) (image.Image, error) {
	img, err := d.Decode(path)
	if err != nil {
		return nil, err
	}
	return d.Thumbnail(img, 0), nil
}

// Encode converts an image to base64 for sending to vision models
func (d *Decoder) Encode(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}
	if quality < 1 || quality > 100 {
		quality = 85
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (d *Decoder) isFormatSupported(format string) bool {
	for _, supported := range d.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
		// image.Decode reports "jpeg" for .jpg files
		if strings.EqualFold(format, "jpeg") && strings.EqualFold(supported, "jpg") {
			return true
		}
	}
	return false
}
