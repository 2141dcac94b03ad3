package main

import (
	"github.com/w-h-a/gameqa/embedder"
	googleembedder "github.com/w-h-a/gameqa/embedder/google"
	openaiembedder "github.com/w-h-a/gameqa/embedder/openai"
	"github.com/w-h-a/gameqa/generator"
	"github.com/w-h-a/gameqa/generator/anthropic"
	googlegenerator "github.com/w-h-a/gameqa/generator/google"
	openaigenerator "github.com/w-h-a/gameqa/generator/openai"
)

var (
	defaultModels = map[string]string{
		"openai":    "gpt-4o",
		"anthropic": "claude-3-5-sonnet-latest",
		"google":    "gemini-1.5-pro",
	}

	defaultEstimatorModels = map[string]string{
		"openai":    "gpt-4o-mini",
		"anthropic": "claude-3-5-haiku-latest",
		"google":    "gemini-1.5-flash",
	}
)

func (g *Globals) answerModel() string {
	if len(g.Model) > 0 {
		return g.Model
	}
	return defaultModels[g.Generator]
}

func (g *Globals) estimatorModel() string {
	if len(g.EstimatorModel) > 0 {
		return g.EstimatorModel
	}
	return defaultEstimatorModels[g.Generator]
}

func (g *Globals) newEmbedder() *embedder.Generator {
	var e embedder.Embedder

	switch g.Embedder {
	case "google":
		e = googleembedder.NewEmbedder(
			embedder.WithApiKey(g.GoogleApiKey),
			embedder.WithModel(g.EmbeddingModel),
		)
	default:
		e = openaiembedder.NewEmbedder(
			embedder.WithApiKey(g.OpenAIApiKey),
			embedder.WithBaseURL(g.OpenAIBaseURL),
			embedder.WithModel(g.EmbeddingModel),
		)
	}

	return embedder.NewGenerator(e, embedder.WithConcurrency(g.EmbedConcurrency))
}

func (g *Globals) newGenerator(model string, systemPrompt string, maxTokens int) generator.Generator {
	opts := []generator.Option{
		generator.WithModel(model),
		generator.WithSystemPrompt(systemPrompt),
		generator.WithMaxTokens(maxTokens),
	}

	switch g.Generator {
	case "anthropic":
		return anthropic.NewGenerator(append(opts, generator.WithApiKey(g.AnthropicApiKey))...)
	case "google":
		return googlegenerator.NewGenerator(append(opts, generator.WithApiKey(g.GoogleApiKey))...)
	default:
		return openaigenerator.NewGenerator(append(opts,
			generator.WithApiKey(g.OpenAIApiKey),
			generator.WithBaseURL(g.OpenAIBaseURL),
		)...)
	}
}
