package export

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// contentBuilder accumulates a page content stream.
type contentBuilder struct {
	buf bytes.Buffer
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (c *contentBuilder) op(operands ...string) {
	for i, s := range operands {
		if i > 0 {
			c.buf.WriteByte(' ')
		}
		c.buf.WriteString(s)
	}
	c.buf.WriteByte('\n')
}

// stroke emits a polyline with round caps and joins. pts are already in PDF
// space and hold at least two points.
func (c *contentBuilder) stroke(gs string, col overlay.Color, width float64, pts []pdfPoint) {
	r, g, b := col.Unit()
	c.op("q")
	c.op("/"+gs, "gs")
	c.op(num(r), num(g), num(b), "RG")
	c.op(num(width), "w")
	c.op("1 J")
	c.op("1 j")
	c.op(num(pts[0].x), num(pts[0].y), "m")
	for _, p := range pts[1:] {
		c.op(num(p.x), num(p.y), "l")
	}
	c.op("S")
	c.op("Q")
}

// image paints an image XObject into the rectangle with lower-left corner
// (x, y).
func (c *contentBuilder) image(name string, x, y, w, h float64) {
	c.op("q")
	c.op(num(w), "0 0", num(h), num(x), num(y), "cm")
	c.op("/"+name, "Do")
	c.op("Q")
}

func (c *contentBuilder) bytes() []byte {
	return c.buf.Bytes()
}

type pdfPoint struct {
	x, y float64
}

// newStream adds a Flate-encoded stream object to the document.
func newStream(xrt *model.XRefTable, content []byte, entries types.Dict) (*types.IndirectRef, error) {
	sd, err := xrt.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	for k, v := range entries {
		sd.Insert(k, v)
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return xrt.IndRefForNewObject(*sd)
}

// textString encodes s as a UTF-16BE hex string with a byte order mark,
// which every reader accepts regardless of the characters used.
func textString(s string) types.HexLiteral {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(units))
	buf[0], buf[1] = 0xFE, 0xFF
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(buf))
}
