// Package pdftest generates small fixture documents and images for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/go-pdf/fpdf"
)

// Letter page size in points, the size Document builds by default.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Document builds a Letter-size PDF with the given number of pages, each
// carrying a line of text naming its page number.
func Document(t testing.TB, pages int) []byte {
	t.Helper()
	data, err := Build(pages, fpdf.SizeType{Wd: LetterWidth, Ht: LetterHeight})
	if err != nil {
		t.Fatalf("build fixture PDF: %v", err)
	}
	return data
}

// Build renders a fixture document with pages of the given size.
func Build(pages int, size fpdf.SizeType) ([]byte, error) {
	doc := fpdf.New("P", "pt", "", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPageFormat("P", size)
		doc.Text(72, 72, fmt.Sprintf("Fixture page %d", i))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PNG returns an opaque w x h PNG filled with c.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, filled(w, h, c)); err != nil {
		t.Fatalf("encode fixture PNG: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a w x h JPEG filled with c.
func JPEG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, filled(w, h, c), nil); err != nil {
		t.Fatalf("encode fixture JPEG: %v", err)
	}
	return buf.Bytes()
}

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
