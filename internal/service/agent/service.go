package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/gameqa/embedder"
	"github.com/w-h-a/gameqa/estimator"
	"github.com/w-h-a/gameqa/generator"
	"github.com/w-h-a/gameqa/index"
	"github.com/w-h-a/gameqa/internal/service/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// SystemPrompt is the framing the answer generator should be built with.
	SystemPrompt = "You are a helpful assistant knowledgeable about video games."

	instructions = "You are a knowledgeable assistant answering questions about video games. Use the context below to answer the user's question accurately and informatively.\n" +
		"If you do not know the answer, do not use information outside of the context, just respond with you do not know. Sound natural in your answer as well!"
)

var (
	ErrEmbeddingUnavailable = errors.New("query embedding unavailable")
	ErrRetrievalFailure     = errors.New("retrieval failed")
	ErrGenerationFailure    = errors.New("answer generation failed")
)

var tracer = otel.Tracer("github.com/w-h-a/gameqa/internal/service/agent")

type Service struct {
	options   Options
	embedder  *embedder.Generator
	index     index.Index
	estimator *estimator.Estimator
	generator generator.Generator
}

// Answer grounds a generated answer in the records most similar to query.
// history is the already formatted chat history of the session.
func (s *Service) Answer(ctx context.Context, query string, history string) (string, error) {
	ctx, span := tracer.Start(ctx, "agent.Answer")
	defer span.End()

	records, err := s.retrieve(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("agent.context_records", len(records)))

	prompt := s.buildPrompt(query, records, history)

	rsp, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGenerationFailure, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(rsp), nil
}

func (s *Service) retrieve(ctx context.Context, query string) ([]string, error) {
	vec := s.embedder.Embed(ctx, query)
	if vec == nil {
		return nil, ErrEmbeddingUnavailable
	}

	total, err := s.index.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailure, err)
	}

	k := s.resolveK(ctx, query, total)

	results, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailure, err)
	}

	texts := index.Texts(results)
	if len(texts) > s.options.MaxContext {
		texts = texts[:s.options.MaxContext]
	}

	slog.InfoContext(ctx, "retrieved context", "k", k, "records", len(texts), "indexed", total)

	return texts, nil
}

// resolveK turns the estimator's hint into a usable k: estimate plus buffer,
// clamped to [1, total].
func (s *Service) resolveK(ctx context.Context, query string, total int) int {
	estimate := s.options.DefaultK
	if s.estimator != nil {
		estimate = s.estimator.Estimate(ctx, query, s.options.DefaultK)
	}
	// Bound the model's reply first so adding the buffer cannot overflow.
	estimate = estimator.Clamp(estimate, -total, total)
	return estimator.Clamp(estimate+s.options.KBuffer, 1, total)
}

func (s *Service) buildPrompt(query string, records []string, history string) string {
	var sb bytes.Buffer

	sb.WriteString(instructions)

	sb.WriteString("\n\nChat History:\n")
	sb.WriteString(history)

	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(records, "\n\n"))

	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(strings.TrimSpace(query))

	sb.WriteString("\n\nAnswer:\n")

	return sb.String()
}

// FormatHistory renders turns oldest first as alternating User/Bot lines.
func FormatHistory(turns []session.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("User: %s\nBot: %s", t.User, t.Bot))
	}
	return strings.Join(lines, "\n")
}

func New(
	embedder *embedder.Generator,
	index index.Index,
	estimator *estimator.Estimator,
	generator generator.Generator,
	opts ...Option,
) *Service {
	if embedder == nil {
		panic("embedder is required")
	}

	if index == nil {
		panic("index is required")
	}

	if generator == nil {
		panic("generator is required")
	}

	options := NewOptions(opts...)

	if options.DefaultK <= 0 {
		options.DefaultK = 5
	}

	if options.KBuffer < 0 {
		options.KBuffer = 0
	}

	if options.MaxContext <= 0 {
		options.MaxContext = 20
	}

	return &Service{
		options:   options,
		embedder:  embedder,
		index:     index,
		estimator: estimator,
		generator: generator,
	}
}
