package chat

import (
	"context"

	"github.com/learnstack/coursechat/internal/domain"
)

// Retriever is the retrieval engine surface the orchestrator needs.
type Retriever interface {
	SearchWithContext(
		ctx context.Context, query string, k int, sourceID, courseID string,
	) []domain.Chunk
}

// Completer invokes the language model with an ordered message sequence.
type Completer interface {
	Complete(
		ctx context.Context, messages []domain.Message, temperature float32, maxTokens int,
	) (string, error)
}

// SyllabusReader loads the optional course syllabus.
type SyllabusReader interface {
	Get(ctx context.Context, courseID string) ([]byte, error)
}
