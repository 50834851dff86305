// Package rag orchestrates the document question-answering pipeline:
// load documents, chunk, embed into the vector index, retrieve, and
// answer through the hosted chat model with citations.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/docchat/docchat/internal/document"
	"github.com/docchat/docchat/internal/inference"
	"github.com/docchat/docchat/internal/knowledge"
	"github.com/docchat/docchat/internal/splitter"
)

// ErrEmptyQuestion indicates Answer was called with a blank question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// snippetLimit bounds the snippet length in citations.
const snippetLimit = 280

// Searcher is the retrieval surface Service needs from the knowledge
// store. Defined by the consumer for testability.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	AddBatch(ctx context.Context, docs []knowledge.Document) error
	Count() int
	Reset() error
}

// Source is a citation pointing back at the document a chunk came from.
type Source struct {
	Source  string `json:"source"`
	Page    string `json:"page,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Answer is the response to a question: the model's reply plus the
// chunks it was grounded on.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service encapsulates document indexing and question answering.
//
// Safe for concurrent Answer calls; Rebuild serializes against other
// processes via a file lock on the index directory.
type Service struct {
	store    Searcher
	chat     inference.ChatModel
	loader   *document.Loader
	splitter *splitter.Splitter
	dataDir  string
	indexDir string
	topK     int
	logger   *slog.Logger
}

// Config configures a Service.
type Config struct {
	Store    Searcher
	Chat     inference.ChatModel
	Loader   *document.Loader
	Splitter *splitter.Splitter
	DataDir  string
	IndexDir string
	TopK     int
	Logger   *slog.Logger
}

// New creates the Service and ensures the index is populated: an
// existing persisted index is reused, otherwise the documents directory
// is loaded, chunked, embedded, and persisted.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Chat == nil || cfg.Loader == nil || cfg.Splitter == nil {
		return nil, errors.New("rag: store, chat, loader, and splitter are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}

	s := &Service{
		store:    cfg.Store,
		chat:     cfg.Chat,
		loader:   cfg.Loader,
		splitter: cfg.Splitter,
		dataDir:  cfg.DataDir,
		indexDir: cfg.IndexDir,
		topK:     topK,
		logger:   logger,
	}

	if count := s.store.Count(); count > 0 {
		logger.Info("reusing persisted index", "documents", count)
		return s, nil
	}

	if err := s.buildIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// IndexSize returns the number of indexed chunks.
func (s *Service) IndexSize() int {
	return s.store.Count()
}

// Rebuild drops the index and rebuilds it from the documents directory.
func (s *Service) Rebuild(ctx context.Context) error {
	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	return s.buildIndex(ctx)
}

// buildIndex loads, chunks, embeds, and stores the documents directory.
// A file lock on the index directory keeps concurrent processes from
// rebuilding the same index.
func (s *Service) buildIndex(ctx context.Context) error {
	unlock, err := s.lockIndexDir()
	if err != nil {
		return err
	}
	defer unlock()

	start := time.Now()

	docs, err := s.loader.LoadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}

	chunks, err := s.splitter.Split(docs)
	if err != nil {
		return fmt.Errorf("chunking documents: %w", err)
	}

	records := make([]knowledge.Document, len(chunks))
	now := time.Now()
	for i, chunk := range chunks {
		records[i] = knowledge.Document{
			ID:       uuid.NewString(),
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
			CreateAt: now,
		}
	}

	if err := s.store.AddBatch(ctx, records); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	s.logger.Info("index built",
		"documents", len(docs),
		"chunks", len(chunks),
		"elapsed", time.Since(start),
	)
	return nil
}

// lockIndexDir takes an exclusive file lock under the index directory.
// With no index directory configured (in-memory stores) it is a no-op.
func (s *Service) lockIndexDir() (func(), error) {
	if s.indexDir == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(s.indexDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	lock := flock.New(filepath.Join(s.indexDir, ".build.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking index directory: %w", err)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release index lock", "error", err)
		}
	}, nil
}

// Answer retrieves the chunks most similar to question and asks the chat
// model for a grounded reply. When retrieval finds nothing, it returns
// NoAnswer without calling the model.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	cleaned := strings.TrimSpace(question)
	if cleaned == "" {
		return Answer{}, ErrEmptyQuestion
	}

	results, err := s.store.Search(ctx, cleaned, knowledge.WithTopK(s.topK))
	if err != nil {
		return Answer{}, fmt.Errorf("retrieving context: %w", err)
	}
	if len(results) == 0 {
		return Answer{Answer: NoAnswer, Sources: []Source{}}, nil
	}

	reply, err := s.chat.Complete(ctx, buildSystemPrompt(results), cleaned)
	if err != nil {
		return Answer{}, fmt.Errorf("chat completion: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = NoAnswer
	}

	return Answer{
		Answer:  reply,
		Sources: sourcesFromResults(results),
	}, nil
}

// sourcesFromResults converts retrieval results into citations.
func sourcesFromResults(results []knowledge.Result) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		snippet := strings.ReplaceAll(r.Document.Content, "\n", " ")
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}

		sources = append(sources, Source{
			Source:  r.Document.Metadata[document.MetaSource],
			Page:    r.Document.Metadata[document.MetaPage],
			Snippet: snippet,
		})
	}
	return sources
}
