// Package retrieval orchestrates the text, hybrid and semantic search
// strategies over the index with ordered fallback, and expands ranked
// results with their structurally-adjacent chunks.
//
// The engine never propagates upstream failures: every public method
// degrades along the fallback chain and returns an empty slice on total
// failure. Relevance scores are only comparable within one call; no
// normalization happens across strategies.
package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/logger"
	"github.com/learnstack/coursechat/internal/metrics"
)

// HybridPool is the candidate pool requested from the backend for hybrid
// search before slicing to the caller's top_k. The backend's combined
// score is authoritative; no re-ranking happens on our side.
const HybridPool = 50

// Service is the retrieval engine.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a retrieval engine.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// TextSearch runs keyword-only retrieval. It is the last-resort fallback
// and the strategy of choice when no embedding is available.
func (s *Service) TextSearch(
	ctx context.Context, query string, topK int, sourceID, courseID string,
) []domain.Chunk {
	chunks, err := s.repo.SearchText(ctx, query, sourceID, courseID, topK)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("text", "error").Inc()
		logger.FromContext(ctx).Error("text search failed", zap.Error(err))
		return []domain.Chunk{}
	}
	metrics.SearchRequestsTotal.WithLabelValues("text", "success").Inc()
	return chunks
}

// HybridSearch combines keyword matching with vector similarity over a
// wide candidate pool. When the query cannot be embedded it degrades to
// text search.
func (s *Service) HybridSearch(
	ctx context.Context, query string, topK int, sourceID, courseID string,
) []domain.Chunk {
	vector := s.embedQuery(ctx, query)
	if len(vector) == 0 {
		metrics.SearchFallbacksTotal.WithLabelValues("hybrid", "text").Inc()
		logger.FromContext(ctx).Warn("no query embedding, degrading hybrid to text search")
		return s.TextSearch(ctx, query, topK, sourceID, courseID)
	}

	chunks, err := s.repo.SearchHybrid(ctx, query, vector, sourceID, courseID, HybridPool)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("hybrid", "error").Inc()
		logger.FromContext(ctx).Error("hybrid search failed", zap.Error(err))
		return []domain.Chunk{}
	}
	metrics.SearchRequestsTotal.WithLabelValues("hybrid", "success").Inc()

	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks
}

// SemanticSearch runs backend-native semantic re-ranking plus vector
// similarity. Embedding failure degrades to text search; a semantic
// backend failure degrades to hybrid search.
func (s *Service) SemanticSearch(
	ctx context.Context, query string, topK int, sourceID, courseID string,
) []domain.Chunk {
	vector := s.embedQuery(ctx, query)
	if len(vector) == 0 {
		metrics.SearchFallbacksTotal.WithLabelValues("semantic", "text").Inc()
		logger.FromContext(ctx).Warn("no query embedding, degrading semantic to text search")
		return s.TextSearch(ctx, query, topK, sourceID, courseID)
	}

	chunks, err := s.repo.SearchSemantic(ctx, query, vector, sourceID, courseID, topK)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("semantic", "error").Inc()
		metrics.SearchFallbacksTotal.WithLabelValues("semantic", "hybrid").Inc()
		logger.FromContext(ctx).Warn("semantic search failed, degrading to hybrid", zap.Error(err))
		return s.HybridSearch(ctx, query, topK, sourceID, courseID)
	}
	metrics.SearchRequestsTotal.WithLabelValues("semantic", "success").Inc()
	return chunks
}

// SearchWithContext runs the primary strategy (semantic, with its
// fallback chain) and expands each ranked chunk with its index-1 and
// index+1 neighbors in the same (source_id, course_id) scope.
// Deduplication is by chunk id across the whole expansion: a chunk
// adjacent to two ranked results is emitted once, at its
// first-encountered position.
func (s *Service) SearchWithContext(
	ctx context.Context, query string, k int, sourceID, courseID string,
) []domain.Chunk {
	log := logger.FromContext(ctx)

	ranked := s.SemanticSearch(ctx, query, k, sourceID, courseID)
	if len(ranked) == 0 {
		log.Warn("no ranked results to expand", zap.String("query", query))
		return ranked
	}

	seen := make(map[string]bool, len(ranked)*3)
	expanded := make([]domain.Chunk, 0, len(ranked)*3)

	emit := func(c domain.Chunk) {
		if c.ID == "" || seen[c.ID] {
			return
		}
		seen[c.ID] = true
		expanded = append(expanded, c)
	}

	for _, chunk := range ranked {
		emit(chunk)
		for _, adj := range s.adjacent(ctx, chunk) {
			emit(adj)
		}
	}

	log.Debug("expanded search results",
		zap.Int("ranked", len(ranked)),
		zap.Int("total", len(expanded)),
	)
	return expanded
}

// adjacent fetches the chunks directly before and after the given chunk.
// A failed neighbor lookup is skipped, not fatal; expansion continues.
// Neighbor lookups are issued sequentially to bound backend load.
func (s *Service) adjacent(ctx context.Context, chunk domain.Chunk) []domain.Chunk {
	log := logger.FromContext(ctx)

	if chunk.SourceID == "" || chunk.CourseID == "" {
		log.Warn("chunk missing scope fields, skipping neighbor lookup",
			zap.String("id", chunk.ID))
		return nil
	}

	var neighbors []domain.Chunk

	if chunk.ChunkIndex > 0 {
		before, err := s.repo.GetByPosition(ctx, chunk.SourceID, chunk.CourseID, chunk.ChunkIndex-1)
		switch {
		case err != nil:
			log.Warn("neighbor lookup failed",
				zap.Int("chunk_index", chunk.ChunkIndex-1), zap.Error(err))
		case before != nil:
			neighbors = append(neighbors, *before)
		}
	}

	after, err := s.repo.GetByPosition(ctx, chunk.SourceID, chunk.CourseID, chunk.ChunkIndex+1)
	switch {
	case err != nil:
		log.Warn("neighbor lookup failed",
			zap.Int("chunk_index", chunk.ChunkIndex+1), zap.Error(err))
	case after != nil:
		neighbors = append(neighbors, *after)
	}

	return neighbors
}

// embedQuery returns the query embedding, or nil when the embedding
// service fails or produces an empty vector. The distinction does not
// matter to callers: both mean "no embedding available".
func (s *Service) embedQuery(ctx context.Context, query string) []float32 {
	vector, err := s.embed.Embed(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Error("query embedding failed", zap.Error(err))
		return nil
	}
	return vector
}
