package record

import (
	"context"
	"io"
)

type Option func(*Options)

type Options struct {
	Location string
	Reader   io.Reader
	Context  context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithReader(r io.Reader) Option {
	return func(o *Options) {
		o.Reader = r
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
