package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"strings"
)

// ImageFormat is the raster format of a placed image payload.
type ImageFormat string

const (
	FormatPNG     ImageFormat = "png"
	FormatJPEG    ImageFormat = "jpeg"
	FormatUnknown ImageFormat = "unknown"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// DetectFormat sniffs the payload's magic bytes. Only PNG and JPEG are
// recognised; everything else is FormatUnknown.
func DetectFormat(b []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(b, pngMagic):
		return FormatPNG
	case bytes.HasPrefix(b, jpegMagic):
		return FormatJPEG
	default:
		return FormatUnknown
	}
}

// NaturalSize decodes just the image header and returns its pixel size.
func NaturalSize(b []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeDataURL accepts either a data: URL or bare base64 and returns the
// raw payload.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, "base64,")
		if idx < 0 {
			return nil, fmt.Errorf("data URL is not base64 encoded")
		}
		s = s[idx+len("base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return b, nil
}

// NewPlacedImage builds an image at the default drop position with a width
// capped at MaxInitialWidth and an automatic height.
func NewPlacedImage(page int, src []byte) (PlacedImage, error) {
	w, _, err := NaturalSize(src)
	if err != nil {
		return PlacedImage{}, err
	}
	width := float64(w)
	if width > MaxInitialWidth {
		width = MaxInitialWidth
	}
	return PlacedImage{
		PageNumber:  page,
		Source:      src,
		X:           DefaultImageX,
		Y:           DefaultImageY,
		Width:       width,
		Height:      HeightAuto,
		ScaleFactor: 1,
	}, nil
}
