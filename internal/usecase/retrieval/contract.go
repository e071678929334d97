package retrieval

import (
	"context"

	"github.com/learnstack/coursechat/internal/domain"
)

// Repository defines the index access contract for retrieval.
type Repository interface {
	SearchText(
		ctx context.Context, query string, sourceID, courseID string, topK int,
	) ([]domain.Chunk, error)

	SearchHybrid(
		ctx context.Context, query string, vector []float32,
		sourceID, courseID string, pool int,
	) ([]domain.Chunk, error)

	SearchSemantic(
		ctx context.Context, query string, vector []float32,
		sourceID, courseID string, topK int,
	) ([]domain.Chunk, error)

	// GetByPosition returns the chunk at chunkIndex within one
	// (source_id, course_id) scope, or nil when absent.
	GetByPosition(
		ctx context.Context, sourceID, courseID string, chunkIndex int,
	) (*domain.Chunk, error)

	CountAll(ctx context.Context) (int, error)
	CountByType(ctx context.Context, ct domain.ContentType) (int, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
