// Package knowledge manages the persisted vector index of document
// chunks and its similarity search.
//
// The index is an embedded chromem-go database rooted at the configured
// index directory. Embeddings for new documents are generated in batches
// through the hosted inference API; query embeddings go through the
// collection's embedding function.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"github.com/docchat/docchat/internal/inference"
)

// collectionName is the single chromem collection holding document chunks.
const collectionName = "docchat"

// ErrEmptyQuery indicates a search was attempted with an empty query.
var ErrEmptyQuery = errors.New("empty query")

// Store manages knowledge documents with vector search capabilities.
// It handles embedding generation and cosine similarity search backed by
// a persistent chromem-go database.
//
// Store is safe for concurrent reads; Reset must not race with Add.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   inference.Embedder
	logger     *slog.Logger
}

// Config configures a Store.
type Config struct {
	// Dir is the index directory. Empty means an in-memory store (tests).
	Dir string

	// Embedder generates vectors for documents and queries.
	Embedder inference.Embedder

	Logger *slog.Logger
}

// New opens (or creates) the vector index.
func New(cfg Config) (*Store, error) {
	if cfg.Embedder == nil {
		return nil, errors.New("knowledge: embedder is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var db *chromem.DB
	var err error
	if cfg.Dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Dir, false)
		if err != nil {
			return nil, fmt.Errorf("opening index at %s: %w", cfg.Dir, err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, NewEmbeddingFunc(cfg.Embedder))
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		embedder:   cfg.Embedder,
		logger:     logger,
	}, nil
}

// Add adds a single document to the store, embedding its content.
func (s *Store) Add(ctx context.Context, doc Document) error {
	return s.AddBatch(ctx, []Document{doc})
}

// AddBatch adds documents to the store. Content is embedded in batches
// through the hosted API before insertion, which is far cheaper than one
// request per chunk.
func (s *Store) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding count mismatch: got %d for %d documents",
			len(vectors), len(docs))
	}

	records := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		meta := doc.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		records[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  meta,
			Embedding: vectors[i],
		}
	}

	if err := s.collection.AddDocuments(ctx, records, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	s.logger.Debug("added documents", "count", len(docs))
	return nil
}

// Search performs semantic search and returns the most similar documents,
// ordered by similarity score.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cfg := buildSearchConfig(opts)

	// chromem rejects nResults larger than the collection size.
	topK := min(cfg.topK, s.collection.Count())
	if topK == 0 {
		return nil, nil
	}

	rows, err := s.collection.Query(ctx, query, topK, cfg.filter, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			Document: Document{
				ID:       row.ID,
				Content:  row.Content,
				Metadata: row.Metadata,
			},
			Similarity: row.Similarity,
		})
	}

	return results, nil
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	return s.collection.Count()
}

// Reset drops and recreates the collection. The persisted index is
// removed from disk; callers rebuild it afterwards.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	collection, err := s.db.GetOrCreateCollection(collectionName, nil, NewEmbeddingFunc(s.embedder))
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	s.collection = collection

	s.logger.Debug("index reset")
	return nil
}
