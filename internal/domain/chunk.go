package domain

import (
	"fmt"
	"strconv"
)

// ContentType discriminates the two indexed content kinds.
type ContentType string

// Indexed content kinds.
const (
	ContentVideo    ContentType = "video"
	ContentDocument ContentType = "document"
)

// ChunkFields is the canonical select-field list requested from the
// search backend for every chunk query.
var ChunkFields = []string{
	"id", "content_type", "source_id", "course_id", "chunk_index",
	"text", "start_time", "end_time", "section_title", "created_date",
	"keywords", "topics", "file_name",
}

// Chunk is a single indexed content fragment. (source_id, course_id,
// chunk_index) locates it within its source; ID is the dedup key.
type Chunk struct {
	ID          string
	ContentType ContentType
	SourceID    string
	CourseID    string
	ChunkIndex  int
	Text        string

	// Video-only fields.
	StartTime string
	EndTime   string

	// Document-only field.
	SectionTitle string

	Keywords    string
	Topics      string
	FileName    string
	CreatedDate string

	// Score is the backend-assigned relevance score. It is only
	// comparable between results of the same search call.
	Score float64
}

// ChunkFromFields validates a backend field-map into a typed Chunk.
// The id field is required; everything else is optional.
func ChunkFromFields(fields map[string]any) (Chunk, error) {
	id := stringField(fields, "id")
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk field-map has no id")
	}

	c := Chunk{
		ID:           id,
		ContentType:  ContentType(stringField(fields, "content_type")),
		SourceID:     stringField(fields, "source_id"),
		CourseID:     stringField(fields, "course_id"),
		ChunkIndex:   intField(fields, "chunk_index"),
		Text:         stringField(fields, "text"),
		StartTime:    stringField(fields, "start_time"),
		EndTime:      stringField(fields, "end_time"),
		SectionTitle: stringField(fields, "section_title"),
		Keywords:     stringField(fields, "keywords"),
		Topics:       stringField(fields, "topics"),
		FileName:     stringField(fields, "file_name"),
		CreatedDate:  stringField(fields, "created_date"),
		Score:        floatField(fields, "@search.score"),
	}
	return c, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
