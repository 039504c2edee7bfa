package export

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Inspection is what the PDF writer thinks of a document before it is
// asked to modify it.
type Inspection struct {
	Readable bool   `json:"readable"`
	Valid    bool   `json:"valid"`
	Pages    int    `json:"pages"`
	Version  string `json:"version,omitempty"`
	Problem  string `json:"problem,omitempty"`
}

// Inspect reads original with the same relaxed configuration Project uses
// and reports whether it also passes validation. Documents that read but do
// not validate can still be exported.
func Inspect(original []byte) *Inspection {
	out := &Inspection{}
	ctx, err := api.ReadContext(bytes.NewReader(original), configuration())
	if err != nil {
		out.Problem = err.Error()
		return out
	}
	if err := ctx.EnsurePageCount(); err != nil {
		out.Problem = err.Error()
		return out
	}
	out.Readable = true
	out.Pages = ctx.PageCount
	if ctx.HeaderVersion != nil {
		out.Version = ctx.HeaderVersion.String()
	}
	if err := api.ValidateContext(ctx); err != nil {
		out.Problem = err.Error()
		return out
	}
	out.Valid = true
	return out
}
