package google

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"

	"github.com/gradeflow/backend/internal/domain/grading"
)

const (
	// minAnchorLength is the shortest substring (in runes) considered when a
	// cited passage is not found verbatim
	minAnchorLength = 10
	// anchorContextPadding widens the matched range on both sides so the
	// highlight covers the passage's surroundings
	anchorContextPadding = 50
)

// textSegment is one text run with its API-reported index range
type textSegment struct {
	text  string
	lower string
	start int64
	end   int64
}

// collectTextSegments flattens the body's text runs in reading order,
// descending into table cells, keeping the index ranges the API reported.
func collectTextSegments(doc *docs.Document) []textSegment {
	var segs []textSegment
	if doc == nil || doc.Body == nil {
		return segs
	}
	appendSegments(&segs, doc.Body.Content)
	return segs
}

func appendSegments(segs *[]textSegment, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil && pe.TextRun.Content != "" {
					*segs = append(*segs, textSegment{
						text:  pe.TextRun.Content,
						lower: strings.ToLower(pe.TextRun.Content),
						start: pe.StartIndex,
						end:   pe.EndIndex,
					})
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					appendSegments(segs, cell.Content)
				}
			}
		case el.TableOfContents != nil:
			appendSegments(segs, el.TableOfContents.Content)
		}
	}
}

// anchorRange is a located passage in document index space
type anchorRange struct {
	start int64
	end   int64
}

// matchRange locates a cited passage. The passage is whitespace-normalized
// and lowercased; an exact substring match is tried first, then the longest
// substring of at least minAnchorLength runes that occurs in the document.
// The result is padded by anchorContextPadding within document bounds.
func matchRange(segments []textSegment, location string) (anchorRange, bool) {
	if len(segments) == 0 {
		return anchorRange{}, false
	}

	search := strings.ToLower(strings.Join(strings.Fields(location), " "))
	if search == "" {
		return anchorRange{}, false
	}

	var full strings.Builder
	for _, seg := range segments {
		full.WriteString(seg.lower)
	}
	fullText := full.String()

	matchStart := strings.Index(fullText, search)
	matchLen := len(search)
	if matchStart < 0 {
		matchStart, matchLen = longestSubstringMatch(fullText, search)
		if matchStart < 0 {
			return anchorRange{}, false
		}
	}
	matchEnd := matchStart + matchLen

	start, end := int64(-1), int64(-1)
	pos := 0
	for _, seg := range segments {
		segEnd := pos + len(seg.lower)
		if start < 0 && matchStart >= pos && matchStart < segEnd {
			start = seg.start + utf16Len(seg.lower[:matchStart-pos])
		}
		if matchEnd > pos && matchEnd <= segEnd {
			end = seg.start + utf16Len(seg.lower[:matchEnd-pos])
			break
		}
		pos = segEnd
	}
	if start < 0 {
		return anchorRange{}, false
	}
	if end < 0 {
		end = start + utf16Len(search)
	}

	docEnd := segments[len(segments)-1].end
	start -= anchorContextPadding
	if start < 1 {
		start = 1
	}
	end += anchorContextPadding
	if end > docEnd {
		end = docEnd
	}
	if end <= start {
		return anchorRange{}, false
	}

	return anchorRange{start: start, end: end}, true
}

// longestSubstringMatch finds the longest run of the search text present in
// the document, scanning lengths from longest to shortest so the first hit
// wins. Returns byte offset and length in the document text, or -1.
func longestSubstringMatch(fullText, search string) (int, int) {
	runes := []rune(search)
	if len(runes) < minAnchorLength {
		return -1, -1
	}
	for length := len(runes); length >= minAnchorLength; length-- {
		for i := 0; i+length <= len(runes); i++ {
			sub := string(runes[i : i+length])
			if at := strings.Index(fullText, sub); at >= 0 {
				return at, len(sub)
			}
		}
	}
	return -1, -1
}

// insertComments writes the inline comments: each cited passage is located
// and highlighted, and the comment is attached through the Drive comments
// API with the passage quoted. Comments that cannot be anchored are still
// created; a rejected highlight batch only costs the highlights.
func (w *Workspace) insertComments(ctx context.Context, svc *Services, docID string, comments []grading.InlineComment) (int, error) {
	if len(comments) == 0 {
		return 0, nil
	}

	doc, err := svc.Docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return 0, wrapAPIError("fetching document", err)
	}
	segments := collectTextSegments(doc)

	var highlights []*docs.Request
	inserted := 0
	for _, c := range comments {
		content := strings.TrimSpace(c.Text)
		if content == "" {
			continue
		}
		if s := strings.TrimSpace(c.Suggestion); s != "" {
			content += "\n\nSuggestion: " + s
		}

		comment := &drive.Comment{Content: content}
		if loc := strings.TrimSpace(c.Location); loc != "" {
			if r, ok := matchRange(segments, loc); ok {
				highlights = append(highlights, highlightStyle(r.start, r.end))
				comment.QuotedFileContent = &drive.CommentQuotedFileContent{
					Value: strings.Join(strings.Fields(loc), " "),
				}
			} else {
				w.logger.Debug("Cited passage not found in document",
					zap.String("doc_id", docID),
					zap.String("passage", truncate(loc, 80)))
			}
		}

		if _, err := svc.Drive.Comments.Create(docID, comment).Fields("id").Context(ctx).Do(); err != nil {
			w.logger.Warn("Failed to create document comment",
				zap.String("doc_id", docID),
				zap.Error(err))
			continue
		}
		inserted++
	}

	if len(highlights) > 0 {
		_, err := svc.Docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
			Requests: highlights,
		}).Context(ctx).Do()
		if err != nil {
			// comments are already attached, highlights are best effort
			w.logger.Warn("Highlighting commented passages failed",
				zap.String("doc_id", docID),
				zap.Error(err))
		}
	}

	return inserted, nil
}

// highlightStyle marks a commented passage with a yellow background
func highlightStyle(start, end int64) *docs.Request {
	return &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range: &docs.Range{StartIndex: start, EndIndex: end},
			TextStyle: &docs.TextStyle{
				BackgroundColor: &docs.OptionalColor{
					Color: &docs.Color{
						RgbColor: &docs.RgbColor{Red: 1.0, Green: 0.9, Blue: 0.0},
					},
				},
			},
			Fields: "backgroundColor",
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
