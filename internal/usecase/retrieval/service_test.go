package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/learnstack/coursechat/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	textResults     []domain.Chunk
	textErr         error
	hybridResults   []domain.Chunk
	hybridErr       error
	semanticResults []domain.Chunk
	semanticErr     error

	// byPosition maps "sourceID/courseID/index" to a chunk.
	byPosition   map[string]*domain.Chunk
	positionErrs map[int]error

	countAll     int
	countAllErr  error
	countByType  map[domain.ContentType]int
	countTypeErr error

	calls        []string
	positionAsks []int
	hybridPool   int
	hybridVector []float32
}

func posKey(sourceID, courseID string, idx int) string {
	return fmt.Sprintf("%s/%s/%d", sourceID, courseID, idx)
}

func (m *mockRepo) SearchText(
	_ context.Context, _ string, _, _ string, _ int,
) ([]domain.Chunk, error) {
	m.calls = append(m.calls, "text")
	return m.textResults, m.textErr
}

func (m *mockRepo) SearchHybrid(
	_ context.Context, _ string, vector []float32, _, _ string, pool int,
) ([]domain.Chunk, error) {
	m.calls = append(m.calls, "hybrid")
	m.hybridPool = pool
	m.hybridVector = vector
	return m.hybridResults, m.hybridErr
}

func (m *mockRepo) SearchSemantic(
	_ context.Context, _ string, _ []float32, _, _ string, _ int,
) ([]domain.Chunk, error) {
	m.calls = append(m.calls, "semantic")
	return m.semanticResults, m.semanticErr
}

func (m *mockRepo) GetByPosition(
	_ context.Context, sourceID, courseID string, chunkIndex int,
) (*domain.Chunk, error) {
	m.positionAsks = append(m.positionAsks, chunkIndex)
	if err, ok := m.positionErrs[chunkIndex]; ok {
		return nil, err
	}
	return m.byPosition[posKey(sourceID, courseID, chunkIndex)], nil
}

func (m *mockRepo) CountAll(_ context.Context) (int, error) {
	return m.countAll, m.countAllErr
}

func (m *mockRepo) CountByType(_ context.Context, ct domain.ContentType) (int, error) {
	if m.countTypeErr != nil {
		return 0, m.countTypeErr
	}
	return m.countByType[ct], nil
}

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	return m.vector, m.err
}

func chunkAt(id, sourceID, courseID string, idx int) domain.Chunk {
	return domain.Chunk{ID: id, SourceID: sourceID, CourseID: courseID, ChunkIndex: idx, Text: id}
}

func ids(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func assertIDs(t *testing.T, got []domain.Chunk, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("got %v, want %v", ids(got), want)
		}
	}
}

// --- TextSearch ---

func TestTextSearch_Success(t *testing.T) {
	repo := &mockRepo{textResults: []domain.Chunk{chunkAt("a", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{})

	got := svc.TextSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "a")
}

func TestTextSearch_BackendError_ReturnsEmpty(t *testing.T) {
	repo := &mockRepo{textErr: errors.New("backend down")}
	svc := New(repo, &mockEmbedder{})

	got := svc.TextSearch(context.Background(), "q", 5, "s", "c")
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

// --- HybridSearch ---

func TestHybridSearch_UsesWidePool(t *testing.T) {
	repo := &mockRepo{hybridResults: []domain.Chunk{chunkAt("a", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{vector: []float32{0.1, 0.2}})

	got := svc.HybridSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "a")
	if repo.hybridPool != HybridPool {
		t.Errorf("pool = %d, want %d", repo.hybridPool, HybridPool)
	}
	if len(repo.hybridVector) != 2 {
		t.Errorf("vector not passed through: %v", repo.hybridVector)
	}
}

func TestHybridSearch_SlicesToTopK(t *testing.T) {
	pool := make([]domain.Chunk, 10)
	for i := range pool {
		pool[i] = chunkAt(fmt.Sprintf("c%d", i), "s", "c", i)
	}
	repo := &mockRepo{hybridResults: pool}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.HybridSearch(context.Background(), "q", 3, "s", "c")
	assertIDs(t, got, "c0", "c1", "c2")
}

func TestHybridSearch_EmbedFailure_FallsBackToText(t *testing.T) {
	repo := &mockRepo{textResults: []domain.Chunk{chunkAt("t", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{err: errors.New("embed failed")})

	got := svc.HybridSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "t")
	if len(repo.calls) != 1 || repo.calls[0] != "text" {
		t.Errorf("calls = %v, want [text]", repo.calls)
	}
}

func TestHybridSearch_EmptyVector_FallsBackToText(t *testing.T) {
	repo := &mockRepo{textResults: []domain.Chunk{chunkAt("t", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{vector: []float32{}})

	got := svc.HybridSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "t")
}

func TestHybridSearch_BackendError_ReturnsEmpty(t *testing.T) {
	repo := &mockRepo{hybridErr: errors.New("backend down")}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.HybridSearch(context.Background(), "q", 5, "s", "c")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
}

// --- SemanticSearch ---

func TestSemanticSearch_Success(t *testing.T) {
	repo := &mockRepo{semanticResults: []domain.Chunk{chunkAt("a", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SemanticSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "a")
	if len(repo.calls) != 1 || repo.calls[0] != "semantic" {
		t.Errorf("calls = %v, want [semantic]", repo.calls)
	}
}

func TestSemanticSearch_EmbedFailure_FallsBackToText(t *testing.T) {
	repo := &mockRepo{textResults: []domain.Chunk{chunkAt("t", "s", "c", 0)}}
	svc := New(repo, &mockEmbedder{err: errors.New("embed failed")})

	got := svc.SemanticSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "t")
	if len(repo.calls) != 1 || repo.calls[0] != "text" {
		t.Errorf("calls = %v, want [text]", repo.calls)
	}
}

func TestSemanticSearch_BackendError_FallsBackToHybrid(t *testing.T) {
	repo := &mockRepo{
		semanticErr:   errors.New("semantic unsupported"),
		hybridResults: []domain.Chunk{chunkAt("h", "s", "c", 0)},
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SemanticSearch(context.Background(), "q", 5, "s", "c")
	assertIDs(t, got, "h")
	if len(repo.calls) != 2 || repo.calls[0] != "semantic" || repo.calls[1] != "hybrid" {
		t.Errorf("calls = %v, want [semantic hybrid]", repo.calls)
	}
}

func TestSemanticSearch_AllBackendsFail_ReturnsEmpty(t *testing.T) {
	repo := &mockRepo{
		semanticErr: errors.New("down"),
		hybridErr:   errors.New("down"),
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SemanticSearch(context.Background(), "q", 5, "s", "c")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
}

// --- SearchWithContext ---

func TestSearchWithContext_ExpandsNeighbors(t *testing.T) {
	ranked := chunkAt("r5", "s", "c", 5)
	before := chunkAt("n4", "s", "c", 4)
	after := chunkAt("n6", "s", "c", 6)

	repo := &mockRepo{
		semanticResults: []domain.Chunk{ranked},
		byPosition: map[string]*domain.Chunk{
			posKey("s", "c", 4): &before,
			posKey("s", "c", 6): &after,
		},
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	assertIDs(t, got, "r5", "n4", "n6")
}

func TestSearchWithContext_DeduplicatesAcrossExpansion(t *testing.T) {
	// Two adjacent ranked chunks: each is the other's neighbor.
	r5 := chunkAt("r5", "s", "c", 5)
	r6 := chunkAt("r6", "s", "c", 6)
	n4 := chunkAt("n4", "s", "c", 4)
	n7 := chunkAt("n7", "s", "c", 7)

	repo := &mockRepo{
		semanticResults: []domain.Chunk{r5, r6},
		byPosition: map[string]*domain.Chunk{
			posKey("s", "c", 4): &n4,
			posKey("s", "c", 5): &r5,
			posKey("s", "c", 6): &r6,
			posKey("s", "c", 7): &n7,
		},
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	// r6 is already emitted as r5's neighbor when the loop reaches it.
	assertIDs(t, got, "r5", "n4", "r6", "n7")
}

func TestSearchWithContext_FirstChunk_NoBeforeLookup(t *testing.T) {
	r0 := chunkAt("r0", "s", "c", 0)
	n1 := chunkAt("n1", "s", "c", 1)

	repo := &mockRepo{
		semanticResults: []domain.Chunk{r0},
		byPosition: map[string]*domain.Chunk{
			posKey("s", "c", 1): &n1,
		},
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	assertIDs(t, got, "r0", "n1")
	for _, idx := range repo.positionAsks {
		if idx < 0 {
			t.Errorf("looked up negative chunk index %d", idx)
		}
	}
	if len(repo.positionAsks) != 1 || repo.positionAsks[0] != 1 {
		t.Errorf("position lookups = %v, want [1]", repo.positionAsks)
	}
}

func TestSearchWithContext_NeighborFailure_Skipped(t *testing.T) {
	r5 := chunkAt("r5", "s", "c", 5)
	n6 := chunkAt("n6", "s", "c", 6)

	repo := &mockRepo{
		semanticResults: []domain.Chunk{r5},
		byPosition: map[string]*domain.Chunk{
			posKey("s", "c", 6): &n6,
		},
		positionErrs: map[int]error{4: errors.New("lookup failed")},
	}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	assertIDs(t, got, "r5", "n6")
}

func TestSearchWithContext_MissingScope_SkipsExpansion(t *testing.T) {
	orphan := domain.Chunk{ID: "orphan", ChunkIndex: 3, Text: "t"}

	repo := &mockRepo{semanticResults: []domain.Chunk{orphan}}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	assertIDs(t, got, "orphan")
	if len(repo.positionAsks) != 0 {
		t.Errorf("unexpected position lookups: %v", repo.positionAsks)
	}
}

func TestSearchWithContext_NoRankedResults(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
	if len(repo.positionAsks) != 0 {
		t.Errorf("unexpected position lookups: %v", repo.positionAsks)
	}
}

func TestSearchWithContext_AbsentNeighbors(t *testing.T) {
	// Neighbors that simply do not exist (nil, nil) are not errors.
	r3 := chunkAt("r3", "s", "c", 3)

	repo := &mockRepo{semanticResults: []domain.Chunk{r3}}
	svc := New(repo, &mockEmbedder{vector: []float32{1}})

	got := svc.SearchWithContext(context.Background(), "q", 5, "", "c")
	assertIDs(t, got, "r3")
	if len(repo.positionAsks) != 2 {
		t.Errorf("position lookups = %v, want probes at 2 and 4", repo.positionAsks)
	}
}
