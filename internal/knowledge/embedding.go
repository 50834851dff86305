package knowledge

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/docchat/docchat/internal/inference"
)

// NewEmbeddingFunc creates a chromem-go EmbeddingFunc from an
// inference.Embedder. The returned function bridges the hosted embedding
// API with chromem-go's requirements.
//
// Note: chromem-go automatically normalizes vectors, so no manual
// normalization is needed.
func NewEmbeddingFunc(embedder inference.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed failed: %w", err)
		}

		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}

		return vectors[0], nil
	}
}
