package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/w-h-a/gameqa/embedder"
	"github.com/w-h-a/gameqa/index"
	"github.com/w-h-a/gameqa/record"
)

var (
	ErrIncompleteEmbeddings = errors.New("incomplete embeddings")
	ErrNoRecords            = errors.New("no records to ingest")
)

// Store is the index the job builds and snapshots.
type Store interface {
	index.Index
	index.Snapshotter
}

// Mirror is a secondary index that is cleared and refilled on every run.
type Mirror interface {
	index.Index
	Reset(ctx context.Context) error
}

type Summary struct {
	Records      int
	IndexPath    string
	MetadataPath string
	Mirrored     bool
	Elapsed      time.Duration
}

// Service runs the offline ingestion job: parse, embed, index, snapshot.
// Any failure aborts the job before a snapshot is written.
type Service struct {
	options  Options
	parser   *record.Parser
	embedder *embedder.Generator
	store    Store
}

func (s *Service) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	records, err := s.parser.Parse(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse records: %w", err)
	}

	if len(records) == 0 {
		return Summary{}, ErrNoRecords
	}

	slog.InfoContext(ctx, "parsed records", "count", len(records))

	vectors := s.embed(ctx, records)

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	if missing := embedder.Missing(vectors); len(missing) > 0 {
		slog.ErrorContext(ctx, "records without embeddings", "count", len(missing), "first", missing[0])
		return Summary{}, fmt.Errorf("%w: %d of %d records", ErrIncompleteEmbeddings, len(missing), len(records))
	}

	if err := s.store.Add(ctx, vectors, records); err != nil {
		return Summary{}, fmt.Errorf("failed to build index: %w", err)
	}

	if err := s.store.Save(ctx, s.options.IndexPath, s.options.MetadataPath); err != nil {
		return Summary{}, fmt.Errorf("failed to save index: %w", err)
	}

	slog.InfoContext(ctx, "saved index", "index", s.options.IndexPath, "metadata", s.options.MetadataPath)

	summary := Summary{
		Records:      len(records),
		IndexPath:    s.options.IndexPath,
		MetadataPath: s.options.MetadataPath,
	}

	if s.options.Mirror != nil {
		if err := s.mirror(ctx, vectors, records); err != nil {
			return Summary{}, err
		}
		summary.Mirrored = true
	}

	summary.Elapsed = time.Since(start)

	return summary, nil
}

func (s *Service) embed(ctx context.Context, records []string) [][]float32 {
	if s.options.Progress == nil {
		return s.embedder.EmbedBatch(ctx, records)
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(s.options.Progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Embedding"),
	)

	var mtx sync.Mutex

	vectors := s.embedder.EmbedBatchFunc(ctx, records, func() {
		mtx.Lock()
		defer mtx.Unlock()
		_ = bar.Add(1)
	})

	_ = bar.Finish()

	return vectors
}

func (s *Service) mirror(ctx context.Context, vectors [][]float32, records []string) error {
	if err := s.options.Mirror.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset mirror: %w", err)
	}

	if err := s.options.Mirror.Add(ctx, vectors, records); err != nil {
		return fmt.Errorf("failed to fill mirror: %w", err)
	}

	slog.InfoContext(ctx, "mirrored index", "count", len(records))

	return nil
}

func New(
	parser *record.Parser,
	embedder *embedder.Generator,
	store Store,
	opts ...Option,
) *Service {
	if parser == nil {
		panic("parser is required")
	}

	if embedder == nil {
		panic("embedder is required")
	}

	if store == nil {
		panic("store is required")
	}

	options := NewOptions(opts...)

	return &Service{
		options:  options,
		parser:   parser,
		embedder: embedder,
		store:    store,
	}
}
