// Package ingest populates the searchable page texts of a document at
// upload time. PDFs yield one text per page; plain text and markdown
// are flattened and paginated by size. EPUB content is stored as-is
// without extraction.
package ingest

import (
	"github.com/yctsai/readnest/internal/models"
)

// Result carries what extraction adds to a document record.
type Result struct {
	PageTexts  []string
	TotalPages int
	// Title is a best-effort suggestion from the content, empty when
	// the format offers none.
	Title string
}

// Extract runs the extractor matching fileType over the raw payload.
// EPUB returns an empty result: the record keeps the payload but gets
// no page texts.
func Extract(fileType models.FileType, data []byte) (*Result, error) {
	switch fileType {
	case models.FileTypePDF:
		return ExtractPDF(data)
	case models.FileTypeText:
		return ExtractText(data)
	default:
		return &Result{}, nil
	}
}
