package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/log"
)

// ============================================================================
// Mock implementations
// ============================================================================

// vocab spans the test corpus; one vector dimension per term plus a bias
// dimension so no vector is ever all zeros.
var vocab = []string{"cat", "dog", "invoice", "payroll", "deploy", "rollback"}

// mockEmbedder implements inference.Embedder with deterministic
// bag-of-words vectors, so cosine similarity reflects term overlap.
type mockEmbedder struct {
	embedErr  error
	callCount int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	if m.embedErr != nil {
		return nil, m.embedErr
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(vocab)+1)
		lower := strings.ToLower(text)
		for d, term := range vocab {
			v[d] = float32(strings.Count(lower, term))
		}
		v[len(vocab)] = 0.1 // bias
		vectors[i] = v
	}
	return vectors, nil
}

func newTestStore(t *testing.T, embedder *mockEmbedder) *Store {
	t.Helper()

	store, err := New(Config{Embedder: embedder, Logger: log.NewNop()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return store
}

// ============================================================================
// Tests
// ============================================================================

func TestStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &mockEmbedder{})

	docs := []Document{
		{ID: "1", Content: "The cat sat on the mat.", Metadata: map[string]string{"source": "pets.txt"}},
		{ID: "2", Content: "Payroll runs on the last business day.", Metadata: map[string]string{"source": "hr.txt"}},
		{ID: "3", Content: "Deploy on Tuesday, rollback on failure.", Metadata: map[string]string{"source": "ops.txt"}},
	}
	if err := store.AddBatch(ctx, docs); err != nil {
		t.Fatalf("AddBatch() error: %v", err)
	}

	if got := store.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	results, err := store.Search(ctx, "when does payroll run", WithTopK(1))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	if results[0].Document.ID != "2" {
		t.Errorf("top result = %q, want payroll document", results[0].Document.ID)
	}
	if results[0].Document.Metadata["source"] != "hr.txt" {
		t.Errorf("result metadata = %v", results[0].Document.Metadata)
	}
	if results[0].Similarity <= 0 {
		t.Errorf("similarity = %f, want > 0", results[0].Similarity)
	}
}

func TestStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &mockEmbedder{})

	docs := []Document{
		{ID: "1", Content: "cat care basics", Metadata: map[string]string{"source": "a.txt"}},
		{ID: "2", Content: "cat food guide", Metadata: map[string]string{"source": "b.txt"}},
	}
	if err := store.AddBatch(ctx, docs); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, "cat", WithTopK(5), WithFilter("source", "b.txt"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "2" {
		t.Errorf("filtered search = %+v, want only doc 2", results)
	}
}

func TestStore_SearchTopKClamped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &mockEmbedder{})

	if err := store.Add(ctx, Document{ID: "1", Content: "single dog note"}); err != nil {
		t.Fatal(err)
	}

	// topK larger than the collection must not error.
	results, err := store.Search(ctx, "dog", WithTopK(10))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() returned %d results, want 1", len(results))
	}
}

func TestStore_SearchEmptyStore(t *testing.T) {
	store := newTestStore(t, &mockEmbedder{})

	results, err := store.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search() on empty store error: %v", err)
	}
	if results != nil {
		t.Errorf("Search() on empty store = %v, want nil", results)
	}
}

func TestStore_SearchEmptyQuery(t *testing.T) {
	store := newTestStore(t, &mockEmbedder{})

	if _, err := store.Search(context.Background(), ""); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Search(\"\") = %v, want ErrEmptyQuery", err)
	}
}

func TestStore_AddBatchEmbedsOnce(t *testing.T) {
	embedder := &mockEmbedder{}
	store := newTestStore(t, embedder)

	docs := []Document{
		{ID: "1", Content: "one"},
		{ID: "2", Content: "two"},
		{ID: "3", Content: "three"},
	}
	if err := store.AddBatch(context.Background(), docs); err != nil {
		t.Fatal(err)
	}

	// One batched embedding call, not one per document.
	if embedder.callCount != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.callCount)
	}
}

func TestStore_AddBatchEmbedError(t *testing.T) {
	wantErr := errors.New("upstream down")
	store := newTestStore(t, &mockEmbedder{embedErr: wantErr})

	err := store.Add(context.Background(), Document{ID: "1", Content: "text"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Add() = %v, want wrapped upstream error", err)
	}
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, &mockEmbedder{})

	if err := store.Add(ctx, Document{ID: "1", Content: "cat"}); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 1 {
		t.Fatalf("Count() = %d before reset", store.Count())
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d after reset, want 0", store.Count())
	}

	// Store remains usable after reset.
	if err := store.Add(ctx, Document{ID: "2", Content: "dog"}); err != nil {
		t.Fatalf("Add() after reset error: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d after re-add, want 1", store.Count())
	}
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(Config{Dir: dir, Embedder: &mockEmbedder{}, Logger: log.NewNop()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := store.Add(ctx, Document{
		ID:       "1",
		Content:  "invoice processing handbook",
		Metadata: map[string]string{"source": "finance.txt"},
	}); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same directory sees the persisted documents.
	reopened, err := New(Config{Dir: dir, Embedder: &mockEmbedder{}, Logger: log.NewNop()})
	if err != nil {
		t.Fatalf("New() reopen error: %v", err)
	}
	if got := reopened.Count(); got != 1 {
		t.Fatalf("reopened Count() = %d, want 1", got)
	}

	results, err := reopened.Search(ctx, "invoice", WithTopK(1))
	if err != nil {
		t.Fatalf("Search() after reopen error: %v", err)
	}
	if len(results) != 1 || results[0].Document.Metadata["source"] != "finance.txt" {
		t.Errorf("persisted search = %+v", results)
	}
}

func TestNew_RequiresEmbedder(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() without embedder expected error")
	}
}
