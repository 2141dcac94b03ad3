package embedder

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Generator turns provider failures into missing embeddings. A nil vector
// means no embedding could be produced for that text.
type Generator struct {
	options  Options
	embedder Embedder
}

func (g *Generator) Embed(ctx context.Context, text string) []float32 {
	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate embedding", "error", err)
		return nil
	}

	if len(vec) == 0 {
		slog.ErrorContext(ctx, "failed to generate embedding", "error", "empty vector")
		return nil
	}

	return vec
}

// EmbedBatch embeds texts concurrently. The result at position i always
// belongs to texts[i], whatever order the calls complete in.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	return g.EmbedBatchFunc(ctx, texts, nil)
}

// EmbedBatchFunc is EmbedBatch with a callback invoked once per finished
// text. done may be called from several goroutines at once.
func (g *Generator) EmbedBatchFunc(ctx context.Context, texts []string, done func()) [][]float32 {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out
	}

	var eg errgroup.Group
	eg.SetLimit(g.options.Concurrency)

	for i, text := range texts {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out[i] = g.Embed(ctx, text)
			if done != nil {
				done()
			}
			return nil
		})
	}

	_ = eg.Wait()

	return out
}

// Missing returns the positions that have no embedding.
func Missing(vectors [][]float32) []int {
	var idxs []int
	for i, v := range vectors {
		if v == nil {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func NewGenerator(embedder Embedder, opts ...Option) *Generator {
	if embedder == nil {
		panic("embedder is required")
	}

	options := NewOptions(opts...)

	if options.Concurrency <= 0 {
		options.Concurrency = 1
	}

	return &Generator{
		options:  options,
		embedder: embedder,
	}
}
