// Package search adapts the raw index client into typed chunk queries:
// it builds filter expressions, requests the canonical field list and
// validates field-maps into domain.Chunk at the boundary.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/domain/search/filter"
	"github.com/learnstack/coursechat/internal/logger"
	"github.com/learnstack/coursechat/internal/transport/azsearch"
)

// backend is the consumer interface over the index client (ISP).
type backend interface {
	Search(ctx context.Context, q *azsearch.Query) (*azsearch.Response, error)
}

// Config holds backend-specific ranking settings.
type Config struct {
	// SemanticConfig names the backend semantic ranking configuration.
	SemanticConfig string
	// QueryLanguage is the natural-language locale of the corpus,
	// passed through as a semantic ranking hint.
	QueryLanguage string
}

// Repo implements usecase/retrieval.Repository.
type Repo struct {
	backend        backend
	semanticConfig string
	queryLanguage  string
}

// New creates a search repository.
func New(b backend, cfg Config) *Repo {
	semanticConfig := cfg.SemanticConfig
	if semanticConfig == "" {
		semanticConfig = "default"
	}
	return &Repo{
		backend:        b,
		semanticConfig: semanticConfig,
		queryLanguage:  cfg.QueryLanguage,
	}
}

// scopeFilter combines the optional source and course predicates with
// logical AND. Absent values are omitted entirely, never wildcarded.
func scopeFilter(sourceID, courseID string) filter.Expression {
	expr := filter.New()
	if sourceID != "" {
		expr = expr.And(filter.Eq("source_id", sourceID))
	}
	if courseID != "" {
		expr = expr.And(filter.Eq("course_id", courseID))
	}
	return expr
}

// SearchText runs a keyword-only query.
func (r *Repo) SearchText(
	ctx context.Context, query string, sourceID, courseID string, topK int,
) ([]domain.Chunk, error) {
	resp, err := r.backend.Search(ctx, &azsearch.Query{
		Search: query,
		Filter: scopeFilter(sourceID, courseID).String(),
		Select: domain.ChunkFields,
		Top:    topK,
		Count:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return r.toChunks(ctx, resp.Documents), nil
}

// SearchHybrid runs combined keyword + k-NN retrieval over a wide
// candidate pool. The backend's combined score is authoritative; callers
// slice the pool down to their top_k.
func (r *Repo) SearchHybrid(
	ctx context.Context, query string, vector []float32, sourceID, courseID string, pool int,
) ([]domain.Chunk, error) {
	resp, err := r.backend.Search(ctx, &azsearch.Query{
		Search: query,
		Filter: scopeFilter(sourceID, courseID).String(),
		Select: domain.ChunkFields,
		Top:    pool,
		Count:  true,
		Vector: &azsearch.VectorQuery{Vector: vector, K: pool, Fields: "vector"},
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return r.toChunks(ctx, resp.Documents), nil
}

// SearchSemantic runs backend-native semantic re-ranking plus k-NN
// restricted to exactly topK neighbors.
func (r *Repo) SearchSemantic(
	ctx context.Context, query string, vector []float32, sourceID, courseID string, topK int,
) ([]domain.Chunk, error) {
	resp, err := r.backend.Search(ctx, &azsearch.Query{
		Search:         query,
		Filter:         scopeFilter(sourceID, courseID).String(),
		Select:         domain.ChunkFields,
		Top:            topK,
		Vector:         &azsearch.VectorQuery{Vector: vector, K: topK, Fields: "vector"},
		Semantic:       true,
		SemanticConfig: r.semanticConfig,
		QueryLanguage:  r.queryLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return r.toChunks(ctx, resp.Documents), nil
}

// GetByPosition fetches the single chunk at chunkIndex within one
// (source_id, course_id) scope. Returns nil when no such chunk exists.
func (r *Repo) GetByPosition(
	ctx context.Context, sourceID, courseID string, chunkIndex int,
) (*domain.Chunk, error) {
	expr := filter.New(
		filter.Eq("source_id", sourceID),
		filter.Eq("course_id", courseID),
		filter.EqInt("chunk_index", chunkIndex),
	)
	resp, err := r.backend.Search(ctx, &azsearch.Query{
		Search: "*",
		Filter: expr.String(),
		Select: domain.ChunkFields,
		Top:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("chunk at index %d: %w", chunkIndex, err)
	}
	chunks := r.toChunks(ctx, resp.Documents)
	if len(chunks) == 0 {
		return nil, nil
	}
	return &chunks[0], nil
}

// CountAll returns the total number of indexed chunks.
func (r *Repo) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, filter.New())
}

// CountByType returns the number of chunks of one content type.
func (r *Repo) CountByType(ctx context.Context, ct domain.ContentType) (int, error) {
	return r.count(ctx, filter.New(filter.Eq("content_type", string(ct))))
}

func (r *Repo) count(ctx context.Context, expr filter.Expression) (int, error) {
	resp, err := r.backend.Search(ctx, &azsearch.Query{
		Search: "*",
		Filter: expr.String(),
		Top:    0,
		Count:  true,
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return resp.Count, nil
}

// toChunks converts backend field-maps to typed chunks, dropping records
// that fail validation.
func (r *Repo) toChunks(ctx context.Context, docs []map[string]any) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(docs))
	for _, doc := range docs {
		c, err := domain.ChunkFromFields(doc)
		if err != nil {
			logger.FromContext(ctx).Warn("skipping malformed search hit", zap.Error(err))
			continue
		}
		chunks = append(chunks, c)
	}
	return chunks
}
