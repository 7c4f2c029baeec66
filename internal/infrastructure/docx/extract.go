// Package docx extracts plain text from Word documents so uploaded rubrics
// can be parsed without a Word installation. Only the document body is read;
// styles, headers, and embedded media are ignored.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Common errors
var (
	ErrInvalidDocument = errors.New("docx: file is not a word document")
	ErrEmptyDocument   = errors.New("docx: document contains no text")
)

// documentPath is where the OOXML package stores the body
const documentPath = "word/document.xml"

// ExtractText reads a .docx archive and returns its text: body paragraphs
// first, then each table rendered as " | " separated rows, one table per
// block. Word's paragraph order inside tables is preserved per cell.
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == documentPath {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidDocument, documentPath)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("docx: opening document body: %w", err)
	}
	defer rc.Close()

	text, err := extractBodyText(rc)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// extractBodyText walks the body XML. Tables are consumed wholesale when
// encountered, so the outer loop only sees body-level paragraphs.
func extractBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var tables []string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "tbl":
			table, err := parseTable(dec)
			if err != nil {
				return "", err
			}
			if table != "" {
				tables = append(tables, table)
			}
		case "p":
			text, err := collectRunText(dec)
			if err != nil {
				return "", err
			}
			if s := strings.TrimSpace(text); s != "" {
				paragraphs = append(paragraphs, s)
			}
		}
	}

	blocks := append(paragraphs, tables...)
	return strings.Join(blocks, "\n"), nil
}

// parseTable renders one table, one line per row with cells joined by " | ".
// Empty cells and rows are dropped.
func parseTable(dec *xml.Decoder) (string, error) {
	var rows []string
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tr" {
				row, err := parseRow(dec)
				if err != nil {
					return "", err
				}
				if row != "" {
					rows = append(rows, row)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	return strings.Join(rows, "\n"), nil
}

func parseRow(dec *xml.Decoder) (string, error) {
	var cells []string
	depth := 1

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tc" {
				cell, err := collectCellText(dec)
				if err != nil {
					return "", err
				}
				if cell != "" {
					cells = append(cells, cell)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	return strings.Join(cells, " | "), nil
}

// collectRunText gathers the text runs inside one paragraph element
func collectRunText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	inText := false

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

// collectCellText gathers a table cell's text, one line per paragraph
func collectCellText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	inText := false

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" && depth > 0 {
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
