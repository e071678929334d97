package tutor

import (
	"context"

	"github.com/learnstack/coursechat/internal/domain"
)

// Retriever is the retrieval engine surface the tutor needs.
type Retriever interface {
	SemanticSearch(
		ctx context.Context, query string, topK int, sourceID, courseID string,
	) []domain.Chunk
}

// Completer invokes the language model with an ordered message sequence.
type Completer interface {
	Complete(
		ctx context.Context, messages []domain.Message, temperature float32, maxTokens int,
	) (string, error)
}

// PromptStore serves persona and user templates by kind and section.
type PromptStore interface {
	Get(kind, section string, vars map[string]string) string
}
