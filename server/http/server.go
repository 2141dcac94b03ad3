package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/w-h-a/gameqa/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type httpServer struct {
	options  server.Options
	router   *mux.Router
	server   *http.Server
	listener net.Listener
	mtx      sync.RWMutex
}

func (s *httpServer) Options() server.Options {
	return s.options
}

func (s *httpServer) Handle(method string, path string, handler http.Handler) {
	s.router.Handle(path, handler).Methods(method)
}

func (s *httpServer) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.server != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.options.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.handler(),
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return s.options.Context
		},
	}

	s.listener = listener
	s.server = srv

	// Serve on the local copy; Stop may clear s.server before this runs.
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
		}
	}()

	slog.Info("http server listening", "name", s.options.Name, "address", listener.Addr().String())

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.server == nil {
		return nil
	}

	err := s.server.Shutdown(ctx)

	s.server = nil
	s.listener = nil

	return err
}

func (s *httpServer) Address() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.listener == nil {
		return s.options.Address
	}

	return s.listener.Addr().String()
}

func (s *httpServer) handler() http.Handler {
	var h http.Handler = s.router

	if s.options.RequestTimeout > 0 {
		h = Timeout(s.options.RequestTimeout)(h)
	}

	if ms, ok := MiddlewareFrom(s.options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			h = ms[i](h)
		}
	}

	return otelhttp.NewHandler(h, s.options.Name)
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return &httpServer{
		options: options,
		router:  router,
		mtx:     sync.RWMutex{},
	}
}
