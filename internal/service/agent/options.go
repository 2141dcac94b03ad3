package agent

import "context"

type Option func(*Options)

type Options struct {
	DefaultK   int
	KBuffer    int
	MaxContext int
	Context    context.Context
}

// WithDefaultK sets the result count used when a query names none.
func WithDefaultK(k int) Option {
	return func(o *Options) {
		o.DefaultK = k
	}
}

// WithKBuffer sets how many extra records are retrieved on top of the estimate.
func WithKBuffer(n int) Option {
	return func(o *Options) {
		o.KBuffer = n
	}
}

// WithMaxContext caps the number of records placed in the prompt.
func WithMaxContext(n int) Option {
	return func(o *Options) {
		o.MaxContext = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		DefaultK:   5,
		KBuffer:    2,
		MaxContext: 20,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
