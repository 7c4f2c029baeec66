package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/docs/v1"
)

func paragraphElement(start, end int64, text string) *docs.StructuralElement {
	return &docs.StructuralElement{
		StartIndex: start,
		EndIndex:   end,
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{
				{StartIndex: start, EndIndex: end, TextRun: &docs.TextRun{Content: text}},
			},
		},
	}
}

func cellWith(start, end int64, text string) *docs.TableCell {
	return &docs.TableCell{
		Content: []*docs.StructuralElement{paragraphElement(start, end, text)},
	}
}

func TestExtractDocumentText_ParagraphsAndTables(t *testing.T) {
	doc := &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{EndIndex: 1, SectionBreak: &docs.SectionBreak{}},
				paragraphElement(1, 14, "Hello world.\n"),
				{
					StartIndex: 14,
					EndIndex:   30,
					Table: &docs.Table{
						TableRows: []*docs.TableRow{
							{TableCells: []*docs.TableCell{cellWith(15, 17, "A\n"), cellWith(18, 20, "B\n")}},
							{TableCells: []*docs.TableCell{cellWith(21, 23, "C\n"), cellWith(24, 26, "D\n")}},
						},
					},
				},
				paragraphElement(30, 42, "Conclusion.\n"),
			},
		},
	}

	want := "Hello world.\n\nA\n\n | B\n\n | \nC\n\n | D\n\n | \nConclusion."
	assert.Equal(t, want, extractDocumentText(doc))
}

func TestExtractDocumentText_Empty(t *testing.T) {
	assert.Equal(t, "", extractDocumentText(nil))
	assert.Equal(t, "", extractDocumentText(&docs.Document{}))
	assert.Equal(t, "", extractDocumentText(&docs.Document{Body: &docs.Body{}}))
}

func TestDocumentEndIndex(t *testing.T) {
	doc := &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{EndIndex: 1, SectionBreak: &docs.SectionBreak{}},
				paragraphElement(1, 29, "A paragraph of some length.\n"),
				paragraphElement(29, 60, "Another paragraph follows it.\n"),
			},
		},
	}

	assert.Equal(t, int64(60), documentEndIndex(doc))
	assert.Equal(t, int64(1), documentEndIndex(nil))
	assert.Equal(t, int64(1), documentEndIndex(&docs.Document{Body: &docs.Body{}}))
}

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"ascii", "hello", 5},
		{"empty", "", 0},
		{"accented bmp", "héllo", 5},
		{"surrogate pair", "a\U0001D11Eb", 4},
		{"emoji", "ok \U0001F600", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utf16Len(tt.in))
		})
	}
}
