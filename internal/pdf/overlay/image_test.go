package overlay

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 4, 4)), nil))

	assert.Equal(t, FormatPNG, DetectFormat(pngBytes(t, 2, 2)))
	assert.Equal(t, FormatJPEG, DetectFormat(jpg.Bytes()))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("GIF89a....")))
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
}

func TestNaturalSize(t *testing.T) {
	w, h, err := NaturalSize(pngBytes(t, 30, 12))
	require.NoError(t, err)
	assert.Equal(t, 30, w)
	assert.Equal(t, 12, h)

	_, _, err = NaturalSize([]byte("nope"))
	assert.Error(t, err)
}

func TestDecodeDataURL(t *testing.T) {
	payload := pngBytes(t, 2, 2)
	enc := base64.StdEncoding.EncodeToString(payload)

	got, err := DecodeDataURL("data:image/png;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = DecodeDataURL(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = DecodeDataURL("data:image/png,raw")
	assert.Error(t, err)
	_, err = DecodeDataURL("%%%")
	assert.Error(t, err)
}

func TestPlacedImage_ResolvedSize(t *testing.T) {
	tests := []struct {
		name   string
		img    PlacedImage
		nw, nh float64
		w, h   float64
	}{
		{name: "explicit", img: PlacedImage{Width: 50, Height: 40}, nw: 10, nh: 10, w: 50, h: 40},
		{name: "auto_height", img: PlacedImage{Width: 50}, nw: 100, nh: 50, w: 50, h: 25},
		{name: "default_width", img: PlacedImage{}, nw: 200, nh: 100, w: 100, h: 50},
		{name: "unknown_natural", img: PlacedImage{Width: 30}, w: 30, h: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.img.ResolvedSize(tt.nw, tt.nh)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestNewPlacedImage_CapsWidth(t *testing.T) {
	img, err := NewPlacedImage(2, pngBytes(t, 640, 10))
	require.NoError(t, err)
	assert.Equal(t, MaxInitialWidth, img.Width)
	assert.Equal(t, DefaultImageX, img.X)
	assert.Equal(t, DefaultImageY, img.Y)
	assert.Equal(t, 2, img.PageNumber)
}
