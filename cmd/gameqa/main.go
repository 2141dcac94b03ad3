package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/w-h-a/gameqa/internal/config"
)

type Globals struct {
	Config kong.ConfigFlag `help:"Path to a YAML config file" placeholder:"PATH"`

	LogLevel  string `help:"Log level" enum:"debug,info,warn,error" default:"info" env:"GAMEQA_LOG_LEVEL"`
	LogFormat string `help:"Log format" enum:"text,json" default:"text" env:"GAMEQA_LOG_FORMAT"`

	// Embedder config
	Embedder         string `help:"Embedding provider" enum:"openai,google" default:"openai" env:"GAMEQA_EMBEDDER"`
	EmbeddingModel   string `help:"Model identifier for vector embeddings" default:"" env:"GAMEQA_EMBEDDING_MODEL"`
	EmbedConcurrency int    `help:"Concurrent embedding calls during ingestion" default:"8" env:"GAMEQA_EMBED_CONCURRENCY"`
	Dimension        int    `help:"Embedding vector dimension" default:"1536" env:"GAMEQA_DIMENSION"`

	// Generator config
	Generator      string `help:"Generative model provider" enum:"openai,anthropic,google" default:"openai" env:"GAMEQA_GENERATOR"`
	Model          string `help:"Model identifier for answers, empty for the provider default" default:"" env:"GAMEQA_MODEL"`
	EstimatorModel string `help:"Model identifier for result count estimation, empty for the provider default" default:"" env:"GAMEQA_ESTIMATOR_MODEL"`

	// Credentials
	OpenAIApiKey    string `name:"openai-api-key" help:"API key for OpenAI" env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `name:"openai-base-url" help:"Alternate OpenAI compatible endpoint" env:"OPENAI_BASE_URL"`
	AnthropicApiKey string `help:"API key for Anthropic" env:"ANTHROPIC_API_KEY"`
	GoogleApiKey    string `help:"API key for Google Gemini" env:"GOOGLE_API_KEY"`

	// Snapshot config
	IndexPath    string `help:"Index snapshot file" default:"data/index.bin" env:"GAMEQA_INDEX_PATH"`
	MetadataPath string `help:"Metadata snapshot file" default:"data/metadata.json" env:"GAMEQA_METADATA_PATH"`
}

type command struct {
	Globals `embed:""`

	Serve  serveCmd  `cmd:"" default:"withargs" help:"Serve the question answering API"`
	Ingest ingestCmd `cmd:"" help:"Build the index snapshot from a CSV catalog"`
}

var cli command

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx := kong.Parse(&cli, options()...)

	initLogger(cli.LogLevel, cli.LogFormat)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("gameqa"),
		kong.Description("Retrieval-augmented question answering over a game catalog."),
		kong.Configuration(config.YAML, "gameqa.yaml"),
		kong.UsageOnError(),
	}
}

func initLogger(level string, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
