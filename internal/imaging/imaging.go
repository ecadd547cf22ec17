// Package imaging normalises item photos before they are uploaded.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultMaxDimension bounds width and height when none is configured.
const DefaultMaxDimension = 1600

// JPEGQuality is the compression quality for re-encoded photos.
const JPEGQuality = 85

// ErrUnsupportedFormat is returned for anything that is not JPEG or PNG.
var ErrUnsupportedFormat = errors.New("imaging: unsupported image format")

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Result is a processed photo ready for upload.
type Result struct {
	Data     []byte
	MIME     string
	Width    int
	Height   int
	Resized  bool
	Filename string
}

// Processor downscales oversized photos and re-encodes them as JPEG.
type Processor struct {
	maxDim int
}

// NewProcessor builds a processor. A non-positive maxDim uses the default.
func NewProcessor(maxDim int) *Processor {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Processor{maxDim: maxDim}
}

// MaxDimension returns the configured bound.
func (p *Processor) MaxDimension() int {
	return p.maxDim
}

// Process sniffs the content type from the bytes, downscales when either side
// exceeds the bound and always emits JPEG. The returned filename keeps the
// base name of filename with a .jpg extension.
func (p *Processor) Process(r io.Reader, filename string) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("imaging: read: %w", err)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	scaled := downscale(img, p.maxDim)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	bounds := scaled.Bounds()
	return &Result{
		Data:     buf.Bytes(),
		MIME:     "image/jpeg",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Resized:  scaled != img,
		Filename: jpegName(filename),
	}, nil
}

func jpegName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "photo.jpg"
	}
	return strings.TrimSuffix(base, path.Ext(base)) + ".jpg"
}

// downscale keeps the aspect ratio and returns img unchanged when it fits.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
