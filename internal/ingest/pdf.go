package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// ExtractPDF pulls the text of every page. Page order in the result
// matches page order in the document.
func ExtractPDF(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrPayloadCorrupt, "PDF payload is empty, please re-upload the file")
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt, "cannot open PDF, please re-upload the file", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt, "cannot read PDF page count", err)
	}

	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt,
				fmt.Sprintf("cannot read PDF page %d", i), err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt,
				fmt.Sprintf("cannot extract PDF page %d", i), err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt,
				fmt.Sprintf("cannot extract text of PDF page %d", i), err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}

	return &Result{
		PageTexts:  texts,
		TotalPages: numPages,
	}, nil
}
