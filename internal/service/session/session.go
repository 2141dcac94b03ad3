package session

import "sync"

type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Session holds the recent turns of one conversation.
type Session struct {
	id    string
	turns []Turn
	mtx   sync.Mutex
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Turns() []Turn {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cpy := make([]Turn, len(s.turns))
	copy(cpy, s.turns)

	return cpy
}

func (s *Session) append(turn Turn, window int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.turns = append(s.turns, turn)

	for len(s.turns) > window {
		s.turns = s.turns[1:]
	}
}
