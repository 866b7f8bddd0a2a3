package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// pageCharBudget caps how much flattened text lands on one page.
// Paragraphs are never split across pages unless a single paragraph
// exceeds the budget on its own.
const pageCharBudget = 2000

// ExtractText flattens markdown or plain text and paginates it. The
// first heading, if any, becomes the suggested title.
func ExtractText(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrPayloadCorrupt, "text payload is empty, please re-upload the file")
	}

	plain := flatten(data)
	pages := paginate(plain)

	return &Result{
		PageTexts:  pages,
		TotalPages: len(pages),
		Title:      firstHeading(data),
	}, nil
}

// flatten renders the markdown AST back to readable plain text. Plain
// text without markup passes through mostly unchanged.
func flatten(source []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindText:
			seg := n.(*ast.Text).Segment
			b.Write(seg.Value(source))
			if n.(*ast.Text).SoftLineBreak() {
				b.WriteString(" ")
			}
		case ast.KindParagraph, ast.KindHeading:
			b.WriteString("\n\n")
		case ast.KindListItem:
			b.WriteString("\n- ")
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			b.WriteString("\n\n")
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// paginate packs paragraphs into pages of at most pageCharBudget
// characters. An oversized paragraph becomes its own page rather than
// being split.
func paginate(plain string) []string {
	if plain == "" {
		return nil
	}

	paragraphs := strings.Split(plain, "\n\n")
	var pages []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pages = append(pages, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) > pageCharBudget {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return pages
}

// firstHeading returns the text of the first markdown heading, if the
// document opens with one.
func firstHeading(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		return ""
	}
	return ""
}
