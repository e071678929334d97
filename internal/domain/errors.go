package domain

import "errors"

// Sentinel errors for the retrieval and chat pipeline.
var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed or missing request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidMode signals an unrecognized tutoring mode value.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a chat-completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrSearchBackendError signals a search-index backend failure.
	ErrSearchBackendError = errors.New("search backend error")
)
