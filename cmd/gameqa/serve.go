package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/w-h-a/gameqa"
	"github.com/w-h-a/gameqa/cmd/gameqa/handler/answer"
	"github.com/w-h-a/gameqa/estimator"
	"github.com/w-h-a/gameqa/index"
	"github.com/w-h-a/gameqa/index/flat"
	"github.com/w-h-a/gameqa/index/postgres"
	"github.com/w-h-a/gameqa/internal/service/agent"
	"github.com/w-h-a/gameqa/internal/service/session"
	"github.com/w-h-a/gameqa/server"
	httpserver "github.com/w-h-a/gameqa/server/http"
)

type serveCmd struct {
	Address        string        `help:"Listen address" default:":8080" env:"GAMEQA_ADDRESS"`
	ReadTimeout    time.Duration `help:"HTTP read timeout" default:"10s" env:"GAMEQA_READ_TIMEOUT"`
	WriteTimeout   time.Duration `help:"HTTP write timeout" default:"90s" env:"GAMEQA_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `help:"Deadline for answering one request" default:"60s" env:"GAMEQA_REQUEST_TIMEOUT"`

	// Index config
	IndexBackend string `help:"Where vectors are searched" enum:"flat,postgres" default:"flat" env:"GAMEQA_INDEX_BACKEND"`
	PgLocation   string `help:"Postgres DSN for the pgvector backend" default:"" env:"GAMEQA_PG_LOCATION"`
	PgTable      string `help:"Table holding pgvector records" default:"game_records" env:"GAMEQA_PG_TABLE"`

	// Agent config
	Window     int `help:"Turns kept per session" default:"5" env:"GAMEQA_WINDOW"`
	DefaultK   int `help:"Results retrieved when the query names no count" default:"5" env:"GAMEQA_DEFAULT_K"`
	KBuffer    int `help:"Extra results retrieved on top of the estimate" default:"2" env:"GAMEQA_K_BUFFER"`
	MaxContext int `help:"Maximum records placed in the prompt" default:"20" env:"GAMEQA_MAX_CONTEXT"`
	MaxTokens  int `help:"Maximum tokens in a generated answer" default:"1024" env:"GAMEQA_MAX_TOKENS"`

	// Rate limit config
	RedisAddr  string        `help:"Redis address for rate limiting, empty disables it" default:"" env:"GAMEQA_REDIS_ADDR"`
	RateLimit  int           `help:"Requests allowed per client per window" default:"60" env:"GAMEQA_RATE_LIMIT"`
	RateWindow time.Duration `help:"Rate limit window" default:"1m" env:"GAMEQA_RATE_WINDOW"`
	TrustProxy bool          `help:"Key the rate limit on X-Forwarded-For, only behind a trusted proxy" env:"GAMEQA_TRUST_PROXY"`
}

func (c *serveCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, closeIndex, err := c.newIndex(ctx, g)
	if err != nil {
		return err
	}
	defer closeIndex()

	a := agent.New(
		g.newEmbedder(),
		idx,
		estimator.New(g.newGenerator(g.estimatorModel(), estimator.SystemPrompt, 16)),
		g.newGenerator(g.answerModel(), agent.SystemPrompt, c.MaxTokens),
		agent.WithDefaultK(c.DefaultK),
		agent.WithKBuffer(c.KBuffer),
		agent.WithMaxContext(c.MaxContext),
	)

	assistant := gameqa.New(a, session.New(c.Window), idx)

	h := answer.NewHandler(assistant)

	middleware := []func(http.Handler) http.Handler{httpserver.Logger}

	if len(c.RedisAddr) > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "redis unreachable, rate limit will let requests through", "address", c.RedisAddr, "error", err)
		}

		middleware = append(middleware, httpserver.RateLimit(rdb, c.RateLimit, c.RateWindow, c.TrustProxy))
	}

	srv := httpserver.NewServer(
		server.WithName("gameqa"),
		server.WithAddress(c.Address),
		server.WithReadTimeout(c.ReadTimeout),
		server.WithWriteTimeout(c.WriteTimeout),
		server.WithRequestTimeout(c.RequestTimeout),
		httpserver.WithMiddleware(middleware...),
	)

	srv.Handle(http.MethodPost, "/answer_query", http.HandlerFunc(h.Handle))
	srv.Handle(http.MethodGet, "/healthz", http.HandlerFunc(h.Health))
	srv.Handle(http.MethodGet, "/sessions", http.HandlerFunc(h.Sessions))

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func (c *serveCmd) newIndex(ctx context.Context, g *Globals) (index.Index, func(), error) {
	if c.IndexBackend == "postgres" {
		if len(c.PgLocation) == 0 {
			return nil, nil, fmt.Errorf("--pg-location is required for the postgres index backend")
		}

		pg := postgres.NewIndex(
			index.WithLocation(c.PgLocation),
			index.WithTable(c.PgTable),
			index.WithDimension(g.Dimension),
		)

		n, err := pg.Len(ctx)
		if err != nil {
			return nil, nil, err
		}

		slog.InfoContext(ctx, "using postgres index", "table", c.PgTable, "records", n)

		return pg, func() { _ = pg.Close() }, nil
	}

	f := flat.NewIndex(index.WithDimension(g.Dimension))

	if err := f.Load(ctx, g.IndexPath, g.MetadataPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load index snapshot (run `gameqa ingest` first): %w", err)
	}

	n, _ := f.Len(ctx)

	slog.InfoContext(ctx, "loaded index snapshot", "index", g.IndexPath, "metadata", g.MetadataPath, "records", n)

	return f, func() {}, nil
}
