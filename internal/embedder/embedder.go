// Package embedder wraps a fixed-dimension text embedding model (spec §2:
// "the embedding model itself... is consumed as an opaque dependency").
//
// Grounded on internal/llm.EmbeddingGenerator's Embed(ctx, text) shape; the
// concrete local implementation below stands in for whatever real model a
// deployment wires up, the way the teacher's EnrichmentService accepts any
// llm.EmbeddingGenerator (ollama, openai, ...) behind the same interface.
package embedder

import (
	"context"

	"github.com/scrypster/continuity/pkg/types"
)

// Embedder produces fixed-width vector embeddings for memory content.
// Implementations must always return exactly types.EmbeddingDimension
// floats or an error; the Store and Retrieval Engine both assume that
// invariant holds for every non-nil embedding (spec invariant 7).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// EmbedAndAttach embeds m.Content and attaches the result to m, clearing the
// staleness bit. Callers use this after creating or editing a memory's
// content. Migration's re-embed path (internal/migration) also clears
// embedding_stale when it regenerates a vector.
func EmbedAndAttach(ctx context.Context, e Embedder, m *types.Memory) error {
	vec, err := e.Embed(ctx, m.Content)
	if err != nil {
		return err
	}
	m.Embedding = vec
	m.EmbeddingStale = false
	return nil
}

// MarkStale flags m's embedding as out of date with its current content,
// without touching the vector itself (spec §4.1: "a per-record bit, set
// when content is modified without a new embedding").
func MarkStale(m *types.Memory) {
	if m.Embedding != nil {
		m.EmbeddingStale = true
	}
}
