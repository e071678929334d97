package domain

import "testing"

func TestChunkFromFields_Full(t *testing.T) {
	fields := map[string]any{
		"id":            "chunk-1",
		"content_type":  "video",
		"source_id":     "lec-3",
		"course_id":     "cs101",
		"chunk_index":   float64(4), // JSON numbers decode as float64
		"text":          "lecture text",
		"start_time":    "00:12:00",
		"end_time":      "00:13:30",
		"file_name":     "lecture3.mp4",
		"@search.score": 2.71,
	}

	c, err := ChunkFromFields(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "chunk-1" || c.ContentType != ContentVideo {
		t.Errorf("identity mismatch: %+v", c)
	}
	if c.ChunkIndex != 4 {
		t.Errorf("chunk_index = %d, want 4", c.ChunkIndex)
	}
	if c.Score != 2.71 {
		t.Errorf("score = %v, want 2.71", c.Score)
	}
	if c.StartTime != "00:12:00" || c.EndTime != "00:13:30" {
		t.Errorf("timestamps mismatch: %+v", c)
	}
}

func TestChunkFromFields_MissingID(t *testing.T) {
	if _, err := ChunkFromFields(map[string]any{"text": "orphan"}); err == nil {
		t.Error("expected error for field-map without id")
	}
	if _, err := ChunkFromFields(map[string]any{"id": ""}); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := ChunkFromFields(map[string]any{"id": 42}); err == nil {
		t.Error("expected error for non-string id")
	}
}

func TestChunkFromFields_SparseMap(t *testing.T) {
	c, err := ChunkFromFields(map[string]any{"id": "only-id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != "only-id" {
		t.Errorf("id = %q", c.ID)
	}
	if c.ChunkIndex != 0 || c.Score != 0 || c.Text != "" {
		t.Errorf("missing fields should zero out: %+v", c)
	}
}

func TestChunkFromFields_ChunkIndexTypes(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"float64", float64(7), 7},
		{"int", 7, 7},
		{"int64", int64(7), 7},
		{"string", "7", 7},
		{"garbage string", "seven", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ChunkFromFields(map[string]any{"id": "x", "chunk_index": tt.val})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.ChunkIndex != tt.want {
				t.Errorf("chunk_index = %d, want %d", c.ChunkIndex, tt.want)
			}
		})
	}
}
