package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, color.RGBA{200, 30, 30, 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, color.RGBA{30, 30, 200, 255})))
	return buf.Bytes()
}

func TestProcessKeepsSmallImages(t *testing.T) {
	p := NewProcessor(200)
	res, err := p.Process(bytes.NewReader(encodeJPEG(t, 120, 80)), "coat.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.MIME)
	assert.False(t, res.Resized)
	assert.Equal(t, 120, res.Width)
	assert.Equal(t, 80, res.Height)
	assert.Equal(t, "coat.jpg", res.Filename)
}

func TestProcessDownscalesLandscape(t *testing.T) {
	p := NewProcessor(100)
	res, err := p.Process(bytes.NewReader(encodePNG(t, 400, 200)), `C:\Users\shop\IMG_001.PNG`)
	require.NoError(t, err)
	assert.True(t, res.Resized)
	assert.Equal(t, "IMG_001.jpg", res.Filename)

	img, format, err := image.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestProcessDownscalesPortrait(t *testing.T) {
	p := NewProcessor(60)
	res, err := p.Process(bytes.NewReader(encodeJPEG(t, 90, 300)), "")
	require.NoError(t, err)
	assert.Equal(t, 18, res.Width)
	assert.Equal(t, 60, res.Height)
	assert.Equal(t, "photo.jpg", res.Filename)
}

func TestProcessRejectsOtherFormats(t *testing.T) {
	p := NewProcessor(0)
	assert.Equal(t, DefaultMaxDimension, p.MaxDimension())

	_, err := p.Process(bytes.NewReader([]byte("GIF89a....")), "x.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = p.Process(bytes.NewReader([]byte("plain text")), "x.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
