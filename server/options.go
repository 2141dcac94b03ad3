package server

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Name           string
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	Context        context.Context
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithAddress(addr string) Option {
	return func(o *Options) {
		o.Address = addr
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

// WithRequestTimeout bounds the context every handler runs with.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Name:           "gameqa",
		Address:        ":8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   90 * time.Second,
		RequestTimeout: 60 * time.Second,
		Context:        context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
