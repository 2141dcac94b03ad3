package ingest

import (
	"context"
	"io"
)

type Option func(*Options)

type Options struct {
	IndexPath    string
	MetadataPath string
	Mirror       Mirror
	Progress     io.Writer
	Context      context.Context
}

func WithIndexPath(path string) Option {
	return func(o *Options) {
		o.IndexPath = path
	}
}

func WithMetadataPath(path string) Option {
	return func(o *Options) {
		o.MetadataPath = path
	}
}

// WithMirror also loads the ingested records into a second index, replacing
// whatever it held before.
func WithMirror(mirror Mirror) Option {
	return func(o *Options) {
		o.Mirror = mirror
	}
}

// WithProgress draws an embedding progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(o *Options) {
		o.Progress = w
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		IndexPath:    "data/index.bin",
		MetadataPath: "data/metadata.json",
		Context:      context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
