package health

import "context"

// StorePinger checks syllabus storage availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexChecker checks search index availability.
type IndexChecker interface {
	CountAll(ctx context.Context) (int, error)
}
