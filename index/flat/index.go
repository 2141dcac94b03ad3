package flat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/w-h-a/gameqa/index"
)

// flatIndex is an exact inner-product index. Vectors are normalized once,
// when they are added, so scores are cosine similarities.
type flatIndex struct {
	options  index.Options
	vectors  [][]float32
	metadata []string
	mtx      sync.RWMutex
}

func (f *flatIndex) Add(ctx context.Context, vectors [][]float32, metadata []string) error {
	if err := index.Validate(f.options.Dimension, vectors, metadata); err != nil {
		return err
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = index.Normalize(v)
	}

	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.vectors = append(f.vectors, normalized...)
	f.metadata = append(f.metadata, metadata...)

	slog.DebugContext(ctx, "added records to flat index", "added", len(vectors), "total", len(f.vectors))

	return nil
}

func (f *flatIndex) Search(ctx context.Context, query []float32, k int) ([]index.Result, error) {
	if len(query) != f.options.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", index.ErrDimensionMismatch, f.options.Dimension, len(query))
	}

	if k < 1 {
		return nil, nil
	}

	q := index.Normalize(query)

	f.mtx.RLock()
	defer f.mtx.RUnlock()

	candidates := make([]index.Result, 0, len(f.vectors))

	for i, v := range f.vectors {
		candidates = append(candidates, index.Result{
			Position: i,
			Text:     f.metadata[i],
			Score:    index.Dot(q, v),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates, nil
}

func (f *flatIndex) Len(ctx context.Context) (int, error) {
	f.mtx.RLock()
	defer f.mtx.RUnlock()
	return len(f.vectors), nil
}

func (f *flatIndex) Save(ctx context.Context, indexPath string, metadataPath string) error {
	f.mtx.RLock()
	defer f.mtx.RUnlock()

	if len(f.vectors) != len(f.metadata) {
		return fmt.Errorf("%w: %d vectors, %d metadata", index.ErrIndexMetadataMismatch, len(f.vectors), len(f.metadata))
	}

	// Both files are staged before either is renamed so a failed write never
	// leaves a new index next to old metadata.
	commitIndex, discardIndex, err := stageFile(indexPath, func(w io.Writer) error {
		return encodeVectors(w, f.options.Dimension, f.vectors)
	})
	if err != nil {
		return fmt.Errorf("save index %s: %w", indexPath, err)
	}
	defer discardIndex()

	commitMetadata, discardMetadata, err := stageFile(metadataPath, func(w io.Writer) error {
		return encodeMetadata(w, f.metadata)
	})
	if err != nil {
		return fmt.Errorf("save metadata %s: %w", metadataPath, err)
	}
	defer discardMetadata()

	if err := commitIndex(); err != nil {
		return fmt.Errorf("save index %s: %w", indexPath, err)
	}

	if err := commitMetadata(); err != nil {
		return fmt.Errorf("save metadata %s: %w", metadataPath, err)
	}

	slog.InfoContext(ctx, "saved flat index", "index", indexPath, "metadata", metadataPath, "records", len(f.vectors))

	return nil
}

// Load replaces the index contents with a snapshot pair. The current
// contents are kept if either file is unreadable or the pair is inconsistent.
func (f *flatIndex) Load(ctx context.Context, indexPath string, metadataPath string) error {
	dim, vectors, err := readVectors(indexPath)
	if err != nil {
		return fmt.Errorf("load index %s: %w", indexPath, err)
	}

	if dim != f.options.Dimension {
		return fmt.Errorf("load index %s: %w: expected %d, got %d", indexPath, index.ErrDimensionMismatch, f.options.Dimension, dim)
	}

	metadata, err := readMetadata(metadataPath)
	if err != nil {
		return fmt.Errorf("load metadata %s: %w", metadataPath, err)
	}

	if len(vectors) != len(metadata) {
		return fmt.Errorf("%w: %s has %d vectors, %s has %d entries", index.ErrIndexMetadataMismatch, indexPath, len(vectors), metadataPath, len(metadata))
	}

	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.vectors = vectors
	f.metadata = metadata

	slog.InfoContext(ctx, "loaded flat index", "index", indexPath, "metadata", metadataPath, "records", len(vectors))

	return nil
}

func NewIndex(opts ...index.Option) *flatIndex {
	options := index.NewOptions(opts...)

	if options.Dimension <= 0 {
		panic("index dimension must be positive")
	}

	return &flatIndex{
		options:  options,
		vectors:  [][]float32{},
		metadata: []string{},
		mtx:      sync.RWMutex{},
	}
}
