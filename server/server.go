package server

import (
	"context"
	"net/http"
)

// Server exposes handlers over a network transport.
type Server interface {
	Options() Options
	Handle(method string, path string, handler http.Handler)
	Start() error
	Stop(ctx context.Context) error
	Address() string
}
