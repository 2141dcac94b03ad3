package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/w-h-a/gameqa/generator"
)

// SystemPrompt is the instruction the estimator's generator should be built with.
const SystemPrompt = "You are an assistant that extracts information from user queries."

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// Estimator asks a model how many results a query is asking for. Its answer
// is a hint; callers clamp it before use.
type Estimator struct {
	generator generator.Generator
}

func (e *Estimator) Estimate(ctx context.Context, query string, defaultK int) int {
	rsp, err := e.generator.Generate(ctx, buildPrompt(query, defaultK))
	if err != nil {
		slog.WarnContext(ctx, "result count estimation failed, using default", "error", err, "default", defaultK)
		return defaultK
	}

	k, ok := Parse(rsp)
	if !ok {
		slog.WarnContext(ctx, "unparseable result count, using default", "reply", rsp, "default", defaultK)
		return defaultK
	}

	slog.DebugContext(ctx, "estimated result count", "k", k)

	return k
}

// Parse reads the integer a model replied with, accepting trailing noise
// such as "7." or "7 results".
func Parse(reply string) (int, bool) {
	s := strings.TrimSpace(reply)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	m := leadingInt.FindString(s)
	if len(m) == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}

	return n, true
}

func Clamp(k, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if k < lo {
		return lo
	}
	if k > hi {
		return hi
	}
	return k
}

func buildPrompt(query string, defaultK int) string {
	var sb strings.Builder

	sb.WriteString("You are an intelligent assistant that interprets user queries. Your task is to determine how many results the user is looking for based on their query.\n")
	sb.WriteString(fmt.Sprintf("If the user specifies a number of results, extract that number as an integer. If the user does not specify a number, return the default number of results: %d.\n\n", defaultK))
	sb.WriteString(fmt.Sprintf("User Query: %q\n\n", query))
	sb.WriteString("How many results is the user looking for? Return only the number of results as an integer and nothing more.\n")

	return sb.String()
}

func New(generator generator.Generator) *Estimator {
	if generator == nil {
		panic("generator is required")
	}

	return &Estimator{
		generator: generator,
	}
}
