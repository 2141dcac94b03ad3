package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/gameqa/server"
)

func TestServerRoutesAndMiddleware(t *testing.T) {
	var (
		order []string
		mtx   sync.Mutex
	)
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mtx.Lock()
				order = append(order, name)
				mtx.Unlock()
				next.ServeHTTP(w, r)
			})
		}
	}

	s := NewServer(
		server.WithAddress("127.0.0.1:0"),
		server.WithRequestTimeout(time.Second),
		WithMiddleware(tag("outer"), tag("inner")),
	)

	s.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Context().Deadline()
		WriteJSON(w, http.StatusOK, map[string]bool{"deadline": ok})
	}))

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	base := "http://" + s.Address()

	rsp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	defer rsp.Body.Close()

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&body))
	require.True(t, body["deadline"])

	mtx.Lock()
	require.Equal(t, []string{"outer", "inner"}, order)
	mtx.Unlock()

	missing, err := http.Get(base + "/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)

	wrongMethod, err := http.Post(base+"/ping", "application/json", nil)
	require.NoError(t, err)
	defer wrongMethod.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, wrongMethod.StatusCode)
}

func TestServerStartTwice(t *testing.T) {
	s := NewServer(server.WithAddress("127.0.0.1:0"))
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	require.Error(t, s.Start())
}

func TestServerStopRightAfterStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := NewServer(server.WithAddress("127.0.0.1:0"))
		require.NoError(t, s.Start())
		require.NoError(t, s.Stop(context.Background()))
	}
}

func TestServerRestart(t *testing.T) {
	s := NewServer(server.WithAddress("127.0.0.1:0"))
	s.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	rsp, err := http.Get("http://" + s.Address() + "/ping")
	require.NoError(t, err)
	rsp.Body.Close()
	require.Equal(t, http.StatusNoContent, rsp.StatusCode)
}

func TestLoggerAssignsRequestID(t *testing.T) {
	var seen string
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "abc", seen)
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", clientKey(req, false))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	require.Equal(t, "10.0.0.1", clientKey(req, false))
	require.Equal(t, "1.2.3.4", clientKey(req, true))
}

func TestRateLimitFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	h := RateLimit(client, 1, time.Minute, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit(t *testing.T) {
	addr := os.Getenv("GAMEQA_TEST_REDIS")
	if len(addr) == 0 {
		t.Skip("GAMEQA_TEST_REDIS not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	h := RateLimit(client, 2, time.Minute, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	remote := "192.0.2." + time.Now().Format("150405") + ":1"
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestWriteError(t *testing.T) {
	rsp := httptest.NewRecorder()
	WriteError(rsp, http.StatusBadRequest, "bad")

	raw, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, rsp.Code)
	require.Equal(t, "application/json", rsp.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"bad"}`, string(raw))
}
