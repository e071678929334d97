package mode

// Mode is the retrieval strategy.
type Mode string

// Search mode constants.
const (
	// Text is plain keyword search; last-resort fallback.
	Text Mode = "text"
	// Hybrid combines keyword matching with vector similarity.
	Hybrid Mode = "hybrid"
	// Semantic adds backend-native language-aware re-ranking.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == Hybrid || m == Semantic
}
