package index

import "context"

// Index stores record vectors with their metadata text at stable positions.
type Index interface {
	Add(ctx context.Context, vectors [][]float32, metadata []string) error
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Len(ctx context.Context) (int, error)
}

// Snapshotter is implemented by indexes that can be dumped to and restored
// from an index file plus a metadata file.
type Snapshotter interface {
	Save(ctx context.Context, indexPath string, metadataPath string) error
	Load(ctx context.Context, indexPath string, metadataPath string) error
}
