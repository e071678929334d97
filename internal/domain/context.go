package domain

import (
	"fmt"
	"strings"
)

// PreviewRunes caps the text preview length in source summaries.
const PreviewRunes = 150

// BuildContext renders chunks into the numbered context block sent to the
// model: "Source {i}:\n{text}" joined by blank lines, in arrival order.
// No truncation happens here; callers bound size via top_k and the
// expansion window.
func BuildContext(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		parts = append(parts, fmt.Sprintf("Source %d:\n%s", i+1, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// ExtractSources builds 1-indexed source summaries from chunks. Video
// timestamps and document section titles are copied only when present.
func ExtractSources(chunks []Chunk) []SourceRef {
	sources := make([]SourceRef, 0, len(chunks))
	for i, c := range chunks {
		ref := SourceRef{
			Index:          i + 1,
			SourceID:       c.SourceID,
			CourseID:       c.CourseID,
			ChunkIndex:     c.ChunkIndex,
			RelevanceScore: c.Score,
			TextPreview:    Preview(c.Text),
		}
		if c.StartTime != "" {
			ref.StartTime = c.StartTime
		}
		if c.EndTime != "" {
			ref.EndTime = c.EndTime
		}
		if c.SectionTitle != "" {
			ref.SectionTitle = c.SectionTitle
		}
		sources = append(sources, ref)
	}
	return sources
}

// Preview truncates text to PreviewRunes runes with an ellipsis suffix.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewRunes {
		return text
	}
	return string(runes[:PreviewRunes]) + "..."
}
