package gameqa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/gameqa/index"
	"github.com/w-h-a/gameqa/internal/service/agent"
	"github.com/w-h-a/gameqa/internal/service/session"
)

var ErrInvalidRequest = errors.New("invalid request")

type Turn = session.Turn

type Reply struct {
	Result     string `json:"result"`
	ChatMemory []Turn `json:"chat_memory"`
}

// Assistant answers questions about the indexed catalog while keeping a
// short rolling history per session.
type Assistant struct {
	agent   *agent.Service
	session *session.Service
	index   index.Index
}

// Ask answers query within session sessionId, creating the session on first
// use. Requests for the same session are handled one at a time.
func (a *Assistant) Ask(ctx context.Context, sessionId string, query string) (Reply, error) {
	if len(strings.TrimSpace(sessionId)) == 0 {
		return Reply{}, fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	}

	if len(strings.TrimSpace(query)) == 0 {
		return Reply{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}

	var reply Reply

	err := a.session.Serialize(ctx, sessionId, func() error {
		if err := a.session.Create(sessionId); err == nil {
			slog.InfoContext(ctx, "created session", "session", sessionId)
		} else if !errors.Is(err, session.ErrSessionExists) {
			return err
		}

		turns, _ := a.session.Get(sessionId)

		result, err := a.agent.Answer(ctx, query, agent.FormatHistory(turns))
		if err != nil {
			return err
		}

		if err := a.session.Append(sessionId, query, result); err != nil {
			return err
		}

		turns, _ = a.session.Get(sessionId)

		reply = Reply{
			Result:     result,
			ChatMemory: turns,
		}

		return nil
	})
	if err != nil {
		return Reply{}, err
	}

	return reply, nil
}

func (a *Assistant) Sessions() []string {
	return a.session.ListSessionIds()
}

// Records reports how many records the index currently holds.
func (a *Assistant) Records(ctx context.Context) (int, error) {
	return a.index.Len(ctx)
}

func New(
	agent *agent.Service,
	session *session.Service,
	index index.Index,
) *Assistant {
	if agent == nil {
		panic("agent is required")
	}

	if session == nil {
		panic("session is required")
	}

	if index == nil {
		panic("index is required")
	}

	return &Assistant{
		agent:   agent,
		session: session,
		index:   index,
	}
}
