package embedder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/continuity/internal/embedder"
	"github.com/scrypster/continuity/pkg/types"
)

func TestLocalEmbedDeterministic(t *testing.T) {
	l := embedder.NewLocal()
	a, err := l.Embed(context.Background(), "fixed a race in the scheduler")
	require.NoError(t, err)
	b, err := l.Embed(context.Background(), "fixed a race in the scheduler")
	require.NoError(t, err)

	require.Len(t, a, types.EmbeddingDimension)
	require.Equal(t, a, b)
}

func TestLocalEmbedDiffersByContent(t *testing.T) {
	l := embedder.NewLocal()
	a, err := l.Embed(context.Background(), "one thing")
	require.NoError(t, err)
	b, err := l.Embed(context.Background(), "a completely different thing")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestEmbedAndAttachClearsStaleBit(t *testing.T) {
	l := embedder.NewLocal()
	m := &types.Memory{Content: "some content", EmbeddingStale: true}

	err := embedder.EmbedAndAttach(context.Background(), l, m)
	require.NoError(t, err)
	require.False(t, m.EmbeddingStale)
	require.Len(t, m.Embedding, types.EmbeddingDimension)
}

func TestMarkStaleOnlySetsFlagWhenEmbeddingPresent(t *testing.T) {
	m := &types.Memory{}
	embedder.MarkStale(m)
	require.False(t, m.EmbeddingStale)

	m.Embedding = make([]float32, types.EmbeddingDimension)
	embedder.MarkStale(m)
	require.True(t, m.EmbeddingStale)
}
