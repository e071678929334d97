package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/domain"
	"github.com/learnstack/coursechat/internal/logger"
)

// Index status values.
const (
	IndexActive = "active"
	IndexEmpty  = "empty"
	IndexError  = "error"
)

// IndexStatus summarizes the indexed corpus.
type IndexStatus struct {
	Status         string `json:"status"`
	TotalChunks    int    `json:"total_chunks"`
	VideoChunks    int    `json:"video_chunks"`
	DocumentChunks int    `json:"document_chunks"`
	Error          string `json:"error,omitempty"`
}

// Status reports whether the index is reachable and how many chunks of
// each content type it holds. Per-type count failures degrade to zero.
func (s *Service) Status(ctx context.Context) IndexStatus {
	log := logger.FromContext(ctx)

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		log.Error("index status check failed", zap.Error(err))
		return IndexStatus{Status: IndexError, Error: err.Error()}
	}
	if total == 0 {
		return IndexStatus{Status: IndexEmpty}
	}

	videos, err := s.repo.CountByType(ctx, domain.ContentVideo)
	if err != nil {
		log.Warn("video chunk count failed", zap.Error(err))
	}
	documents, err := s.repo.CountByType(ctx, domain.ContentDocument)
	if err != nil {
		log.Warn("document chunk count failed", zap.Error(err))
	}

	return IndexStatus{
		Status:         IndexActive,
		TotalChunks:    total,
		VideoChunks:    videos,
		DocumentChunks: documents,
	}
}
