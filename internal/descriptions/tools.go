package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Session
	PDFOpenDescription = `Open a PDF for annotation and restore any overlay saved for it.

**When to use:** Before any drawing, image or comment tool. Every other annotation tool takes the fingerprint this tool returns.

**Why it's useful:** Overlays are stored under the SHA-256 fingerprint of the file's bytes, so reopening the same file brings back its highlights, images and comments, while a changed file starts clean.

**Examples:**
• Resume a review: "Open contracts/nda.pdf and list what was already marked"
• Start fresh on a new revision: "Open report-v2.pdf" (a different fingerprint, so no stale marks)

**Best practices:** Paths are resolved inside the configured directory. Keep the returned fingerprint for follow-up calls.`

	PDFRenderPageDescription = `Render one page's overlay as a PNG image.

**When to use:** To look at what has been drawn on a page, or to pick coordinates for the next annotation.

**Why it's useful:** The rendered frame shows strokes, images and comment pins exactly where the export will put them.

**Limitations:** The page's own content (text, graphics) is not drawn. The image is a blank page of the page's size with only the overlay on it; use pdf_export to see annotations over the real page.

**Examples:**
• "Render page 2 at scale 1.5 so I can see the highlights"

**Best practices:** Coordinates in every tool are page units with a top-left origin (PDF points), independent of the render scale. Scales outside 0.5 to 3 are rejected.`

	// Drawing
	PDFHighlightDescription = `Draw a freehand highlighter stroke through a list of points.

**When to use:** Marking up passages, underlining or circling regions.

**Examples:**
• Highlight a line: points [{"x":72,"y":100},{"x":300,"y":100}] on page 1
• Use a different color: color "rgba(0, 200, 255, 0.5)", width 6

**Best practices:** At least two points are required. Colors are CSS rgb()/rgba() or #rrggbb strings; the default is translucent yellow.`

	PDFEraseDescription = `Sweep the eraser along a path and remove every stroke it touches.

**When to use:** Undoing highlights. Erasing removes whole strokes, never parts of them.

**Examples:**
• Remove one highlight: a single point on it
• Clear a band: points along the band's center line

**Best practices:** The eraser radius is twice the current stroke width.`

	// Images
	PDFAddImageDescription = `Place a PNG or JPEG image on a page.

**When to use:** Stamping signatures, logos or figures onto a page.

**Examples:**
• From a file: path "assets/signature.png", page 3, x 400, y 680, width 120
• Inline: data "data:image/png;base64,iVBOR..."

**Best practices:** New images default to (100, 100) and at most 300 units wide; the height follows the image's aspect ratio.`

	PDFUpdateImageDescription = `Move, resize or delete a placed image.

**When to use:** Adjusting an image after placing it.

**Examples:**
• Move: id, x 50, y 60
• Resize: id, width 200 (aspect ratio is kept, minimum width 20)
• Delete: id, delete true`

	// Comments
	PDFAddCommentDescription = `Pin a comment at a point on a page.

**When to use:** Leaving review notes. Comments become sticky-note annotations in the exported PDF.

**Examples:**
• "Add 'Check this figure' at (420, 310) on page 2"`

	PDFMoveCommentDescription = `Drag a comment pin to a new position on its page.`

	PDFToggleCommentDescription = `Flip a comment between open and resolved.

**Best practices:** Resolved comments stay in the overlay and in exports; delete them to remove them.`

	PDFDeleteCommentDescription = `Delete a comment pin.`

	// Overlay management
	PDFListAnnotationsDescription = `List the strokes, images and comments of an open document, optionally for one page.

**When to use:** Finding ids for update, move or delete tools, or reviewing what has been marked.`

	PDFClearAnnotationsDescription = `Delete the saved overlay of a document.

**When to use:** Starting over. This cannot be undone. The document does not need to be open.`

	PDFListDocumentsDescription = `Find PDF files in the configured directory with optional fuzzy name search.

**Examples:**
• "List PDFs matching 'invoice'"
• "Which PDFs already have annotations?" (with_annotations true)

**Best practices:** with_annotations reads and fingerprints every match, so narrow the search first in large directories.`

	PDFExportDescription = `Bake the overlay into a copy of the PDF and write it to disk.

**When to use:** Producing the final annotated document.

**Why it's useful:** Strokes and images become page content and comments become standard text annotations, so any PDF viewer shows them. The original file is never modified.

**Examples:**
• Default output: contract-annotated.pdf next to the original
• Custom output: output_path "out/contract-reviewed.pdf"

**Best practices:** Items that cannot be written are skipped and listed in the result rather than failing the export.`

	PDFServerInfoDescription = `Get server configuration, available tools and the PDFs in the configured directory.

**When to use:** Starting work with the server or troubleshooting.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_open":              PDFOpenDescription,
	"pdf_render_page":       PDFRenderPageDescription,
	"pdf_highlight":         PDFHighlightDescription,
	"pdf_erase":             PDFEraseDescription,
	"pdf_add_image":         PDFAddImageDescription,
	"pdf_update_image":      PDFUpdateImageDescription,
	"pdf_add_comment":       PDFAddCommentDescription,
	"pdf_move_comment":      PDFMoveCommentDescription,
	"pdf_toggle_comment":    PDFToggleCommentDescription,
	"pdf_delete_comment":    PDFDeleteCommentDescription,
	"pdf_list_annotations":  PDFListAnnotationsDescription,
	"pdf_clear_annotations": PDFClearAnnotationsDescription,
	"pdf_list_documents":    PDFListDocumentsDescription,
	"pdf_export":            PDFExportDescription,
	"pdf_server_info":       PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name, sorted.
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
