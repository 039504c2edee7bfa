package mcp

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf"
)

func (s *Server) formatDocumentInfo(info pdf.DocumentInfo) string {
	text := fmt.Sprintf("📄 Opened %s\n", info.Name)
	text += fmt.Sprintf("Fingerprint: %s\n", info.Fingerprint)
	if info.Path != "" {
		text += fmt.Sprintf("Path: %s\n", info.Path)
	}
	text += fmt.Sprintf("Pages: %d\n", info.TotalPages)
	text += fmt.Sprintf("Page size: %gx%g points\n", info.PageWidth, info.PageHeight)

	if info.Strokes+info.Images+info.Comments > 0 {
		text += fmt.Sprintf("Restored annotations: %d stroke(s), %d image(s), %d comment(s)\n",
			info.Strokes, info.Images, info.Comments)
	} else {
		text += "No saved annotations\n"
	}

	if c := info.Conformance; c != nil {
		switch {
		case c.Valid:
			text += fmt.Sprintf("PDF version %s, validates cleanly\n", c.Version)
		case c.Readable:
			text += fmt.Sprintf("PDF version %s, readable but not strictly valid: %s\n", c.Version, c.Problem)
		default:
			text += fmt.Sprintf("Export may fail: %s\n", c.Problem)
		}
	}
	return text
}

func (s *Server) formatGestureResult(action string, result *pdf.PDFGestureResult) string {
	var text string
	if result.Committed {
		text = fmt.Sprintf("✅ %s on page %d", action, result.Page)
	} else {
		text = fmt.Sprintf("%s on page %d changed nothing", action, result.Page)
	}
	if result.ItemID != "" {
		text += fmt.Sprintf(" (id: %s)", result.ItemID)
	}
	text += "\n"
	if result.Removed > 0 {
		text += fmt.Sprintf("Removed %d stroke(s)\n", result.Removed)
	}
	if result.Warning != "" {
		text += fmt.Sprintf("⚠️  Not saved: %s\n", result.Warning)
	}
	return text
}

func (s *Server) formatListAnnotationsResult(result *pdf.PDFListAnnotationsResult) string {
	text := fmt.Sprintf("Annotations for %s", result.Fingerprint)
	if result.Page > 0 {
		text += fmt.Sprintf(" (page %d)", result.Page)
	}
	text += "\n"
	if result.UpdatedAt != "" {
		text += fmt.Sprintf("Last saved: %s\n", result.UpdatedAt)
	}

	if len(result.Strokes)+len(result.Images)+len(result.Comments) == 0 {
		return text + "No annotations\n"
	}

	if len(result.Strokes) > 0 {
		text += fmt.Sprintf("\n🖍️  Strokes (%d):\n", len(result.Strokes))
		for i, st := range result.Strokes {
			text += fmt.Sprintf("%d. %s page %d: %d points, %s, width %g\n",
				i+1, st.ID, st.Page, st.Points, st.Color, st.Width)
		}
	}
	if len(result.Images) > 0 {
		text += fmt.Sprintf("\n🖼️  Images (%d):\n", len(result.Images))
		for i, img := range result.Images {
			text += fmt.Sprintf("%d. %s page %d: %s at (%g, %g), %gx%g points, %d bytes\n",
				i+1, img.ID, img.Page, img.Format, img.X, img.Y, img.Width, img.Height, img.Bytes)
		}
	}
	if len(result.Comments) > 0 {
		text += fmt.Sprintf("\n💬 Comments (%d):\n", len(result.Comments))
		for i, c := range result.Comments {
			state := "open"
			if c.Resolved {
				state = "resolved"
			}
			text += fmt.Sprintf("%d. %s page %d at (%g, %g), %s: %s\n",
				i+1, c.ID, c.PageNumber, c.X, c.Y, state, c.Text)
		}
	}
	return text
}

func (s *Server) formatListDocumentsResult(result *pdf.PDFListDocumentsResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s", i+1, file.Name)
		if file.Annotated {
			text += " ✏️  annotated"
		}
		text += "\n"
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatExportResult(result *pdf.PDFExportResult) string {
	text := fmt.Sprintf("📤 Exported %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes, %d page(s)\n", result.Size, result.Pages)
	text += fmt.Sprintf("Baked: %d stroke(s), %d image(s), %d comment(s)\n",
		result.Strokes, result.Images, result.Comments)
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("\n⚠️  Skipped %d item(s):\n", len(result.Skipped))
		for _, reason := range result.Skipped {
			text += fmt.Sprintf("  • %s\n", reason)
		}
	}
	if result.Summary != "" {
		text += "\n" + result.Summary + "\n"
	}
	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("💾 Annotation Store: %s (%d saved overlay(s))\n", result.StoreBackend, result.SavedOverlays)
	if len(result.OpenDocuments) > 0 {
		text += fmt.Sprintf("📖 Open Documents: %d\n", len(result.OpenDocuments))
		for _, fp := range result.OpenDocuments {
			text += fmt.Sprintf("   • %s\n", fp)
		}
	}
	text += "\n"

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // Limit to first 10 files for readability
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		if tool.Usage != "" {
			text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		}
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += "\n🖼️  Supported Image Formats:\n"
		for _, format := range result.SupportedFormats {
			text += fmt.Sprintf("  • %s\n", format)
		}
	}

	text += "\n" + result.UsageGuidance

	return text
}
