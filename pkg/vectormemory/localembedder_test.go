package vectormemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalHashEmbedderIsDeterministic(t *testing.T) {
	e := NewLocalHashEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "token shows strong momentum")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "token shows strong momentum")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 16)
}

func TestLocalHashEmbedderDiffersAcrossInputs(t *testing.T) {
	e := NewLocalHashEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "bullish signal")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "bearish signal")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestLocalHashEmbedderBatchMatchesIndividualEmbed(t *testing.T) {
	e := NewLocalHashEmbedder(8)
	ctx := context.Background()
	texts := []string{"one", "two", "three"}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		require.Equal(t, single, batch[i])
	}
}
