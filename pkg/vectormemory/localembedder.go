package vectormemory

import (
	"context"
	"crypto/sha256"
)

// LocalHashEmbedder is a deterministic, in-process stand-in for a real
// embedding API: it hashes the input text and spreads the digest bytes
// across a fixed-dimension vector. It preserves no real semantic
// similarity — two unrelated strings score near zero just as two
// related ones do — so it is suitable only for local development and
// tests, never for production signal ranking.
type LocalHashEmbedder struct {
	dimensions int
}

// NewLocalHashEmbedder constructs a LocalHashEmbedder producing vectors
// of the given dimension.
func NewLocalHashEmbedder(dimensions int) *LocalHashEmbedder {
	if dimensions <= 0 {
		dimensions = 32
	}
	return &LocalHashEmbedder{dimensions: dimensions}
}

func (e *LocalHashEmbedder) ProviderName() string { return "local-hash" }

func (e *LocalHashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	out := make([]float64, e.dimensions)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < e.dimensions; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		out[i] = float64(block[i%len(block)])/127.5 - 1
	}
	return out, nil
}

func (e *LocalHashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
