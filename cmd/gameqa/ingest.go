package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/w-h-a/gameqa/index"
	"github.com/w-h-a/gameqa/index/flat"
	"github.com/w-h-a/gameqa/index/postgres"
	"github.com/w-h-a/gameqa/internal/service/ingest"
	"github.com/w-h-a/gameqa/record"
)

type ingestCmd struct {
	FilePath   string `help:"CSV catalog to ingest" required:"" type:"existingfile" env:"GAMEQA_FILE_PATH"`
	PgLocation string `help:"Also load the records into this pgvector database" default:"" env:"GAMEQA_PG_LOCATION"`
	PgTable    string `help:"Table holding pgvector records" default:"game_records" env:"GAMEQA_PG_TABLE"`
	NoProgress bool   `help:"Do not draw a progress bar"`
}

func (c *ingestCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []ingest.Option{
		ingest.WithIndexPath(g.IndexPath),
		ingest.WithMetadataPath(g.MetadataPath),
	}

	if !c.NoProgress {
		opts = append(opts, ingest.WithProgress(os.Stderr))
	}

	if len(c.PgLocation) > 0 {
		pg := postgres.NewIndex(
			index.WithLocation(c.PgLocation),
			index.WithTable(c.PgTable),
			index.WithDimension(g.Dimension),
		)
		defer pg.Close()

		opts = append(opts, ingest.WithMirror(pg))
	}

	job := ingest.New(
		record.NewParser(record.WithLocation(c.FilePath)),
		g.newEmbedder(),
		flat.NewIndex(index.WithDimension(g.Dimension)),
		opts...,
	)

	summary, err := job.Run(ctx)
	if err != nil {
		return err
	}

	slog.InfoContext(
		ctx,
		"ingestion complete",
		"records", summary.Records,
		"index", summary.IndexPath,
		"metadata", summary.MetadataPath,
		"mirrored", summary.Mirrored,
		"elapsed", summary.Elapsed,
	)

	return nil
}
