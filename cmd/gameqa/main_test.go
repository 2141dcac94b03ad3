package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (command, string) {
	t.Helper()

	var c command
	parser, err := kong.New(&c, options()...)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	return c, kctx.Command()
}

func TestServeDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, cmd := parse(t)
	require.Equal(t, "serve", cmd)
	require.Equal(t, ":8080", c.Serve.Address)
	require.Equal(t, 60*time.Second, c.Serve.RequestTimeout)
	require.Equal(t, 2, c.Serve.KBuffer)
	require.Equal(t, 5, c.Serve.Window)
	require.Equal(t, "flat", c.Serve.IndexBackend)
	require.Equal(t, 1536, c.Dimension)
	require.Equal(t, "data/index.bin", c.IndexPath)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yml := "generator: anthropic\nk_buffer: 3\nlog_format: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gameqa.yaml"), []byte(yml), 0o644))

	c, _ := parse(t, "serve", "--address", ":9090")
	require.Equal(t, "anthropic", c.Generator)
	require.Equal(t, 3, c.Serve.KBuffer)
	require.Equal(t, "json", c.LogFormat)
	require.Equal(t, ":9090", c.Serve.Address)
}

func TestIngestRequiresFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var c command
	parser, err := kong.New(&c, options()...)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"ingest"})
	require.Error(t, err)

	csv := filepath.Join(dir, "games.csv")
	require.NoError(t, os.WriteFile(csv, []byte("name\n"), 0o644))

	c, cmd := parse(t, "ingest", "--file-path", csv, "--pg-location", "postgres://localhost/games")
	require.Equal(t, "ingest", cmd)
	require.Equal(t, csv, c.Ingest.FilePath)
	require.Equal(t, "postgres://localhost/games", c.Ingest.PgLocation)
}

func TestDefaultModels(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "google"} {
		require.NotEmpty(t, defaultModels[provider])
		require.NotEmpty(t, defaultEstimatorModels[provider])
	}
}

func TestModelSelection(t *testing.T) {
	t.Chdir(t.TempDir())

	c, _ := parse(t)
	require.Equal(t, "gpt-4o", c.answerModel())
	require.Equal(t, "gpt-4o-mini", c.estimatorModel())
	require.False(t, c.Serve.TrustProxy)

	c, _ = parse(t, "--generator", "anthropic", "--model", "claude-x", "serve", "--trust-proxy")
	require.Equal(t, "claude-x", c.answerModel())
	require.Equal(t, "claude-3-5-haiku-latest", c.estimatorModel())
	require.True(t, c.Serve.TrustProxy)

	c, _ = parse(t, "--estimator-model", "gpt-4.1-nano")
	require.Equal(t, "gpt-4o", c.answerModel())
	require.Equal(t, "gpt-4.1-nano", c.estimatorModel())
}
