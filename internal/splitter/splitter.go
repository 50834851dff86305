// Package splitter chunks loaded documents into overlapping text
// segments sized for embedding.
package splitter

import (
	"fmt"
	"strconv"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/docchat/docchat/internal/document"
)

// MetaChunk is the metadata key carrying the chunk ordinal within its
// source document.
const MetaChunk = "chunk"

// Splitter splits documents into overlapping chunks using recursive
// character splitting (paragraphs first, then sentences, then words).
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// New creates a Splitter with the given chunk size and overlap (runes).
func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}

	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// Split chunks each document, copying its metadata onto every chunk and
// adding the chunk ordinal. Input order is preserved.
func (s *Splitter) Split(docs []document.Document) ([]document.Document, error) {
	var chunks []document.Document

	for _, doc := range docs {
		parts, err := s.inner.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("split document %q: %w",
				doc.Metadata[document.MetaSource], err)
		}

		for i, part := range parts {
			meta := make(map[string]string, len(doc.Metadata)+1)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta[MetaChunk] = strconv.Itoa(i)

			chunks = append(chunks, document.Document{
				Content:  part,
				Metadata: meta,
			})
		}
	}

	return chunks, nil
}
