package google

import (
	"context"
	"strings"

	"google.golang.org/api/docs/v1"
)

// ExtractText fetches a document and flattens its body to plain text
func (w *Workspace) ExtractText(ctx context.Context, docID string) (string, error) {
	svc, err := w.services(ctx)
	if err != nil {
		return "", err
	}

	doc, err := svc.Docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError("fetching document", err)
	}
	return extractDocumentText(doc), nil
}

// extractDocumentText flattens a document body: paragraph runs concatenated
// with a newline per paragraph, table cells joined with " | " and a newline
// per row.
func extractDocumentText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeStructuralText(&b, doc.Body.Content)
	return strings.TrimSpace(b.String())
}

func writeStructuralText(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
			b.WriteString("\n")
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeStructuralText(b, cell.Content)
					b.WriteString(" | ")
				}
				b.WriteString("\n")
			}
		case el.TableOfContents != nil:
			writeStructuralText(b, el.TableOfContents.Content)
		}
	}
}

// documentEndIndex returns the largest end index in the body, the boundary
// for appended content. An empty body yields 1, the first valid index.
func documentEndIndex(doc *docs.Document) int64 {
	end := int64(1)
	if doc == nil || doc.Body == nil {
		return end
	}
	for _, el := range doc.Body.Content {
		if el.EndIndex > end {
			end = el.EndIndex
		}
	}
	return end
}

// utf16Len counts UTF-16 code units, the unit of all Docs API indices.
// Byte or rune counts drift as soon as a document contains non-BMP text.
func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
