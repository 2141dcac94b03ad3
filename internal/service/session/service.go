package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

const DefaultWindow = 5

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// Service is the process-wide session memory. Sessions are never persisted
// and live until the process exits.
type Service struct {
	sessions map[string]*Session
	slots    map[string]chan struct{}
	window   int
	mtx      sync.RWMutex
}

func (s *Service) Exists(id string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Create starts an empty turn log. It never resets an existing session.
func (s *Service) Create(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.sessions[id]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	s.sessions[id] = &Session{
		id:    id,
		turns: []Turn{},
	}

	return nil
}

// Get returns a copy of the session's turns, oldest first.
func (s *Service) Get(id string) ([]Turn, bool) {
	session, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return session.Turns(), true
}

func (s *Service) Append(id string, user string, bot string) error {
	session, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	session.append(Turn{User: user, Bot: bot}, s.window)

	return nil
}

// Serialize runs fn while holding the request slot of session id. Calls for
// the same id run one at a time; different ids do not block each other. The
// slot exists independently of the turn log, so Serialize does not create
// the session.
func (s *Service) Serialize(ctx context.Context, id string, fn func() error) error {
	slot := s.slot(id)

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	defer func() { <-slot }()

	return fn()
}

func (s *Service) ListSessionIds() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

func (s *Service) lookup(id string) (*Session, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *Service) slot(id string) chan struct{} {
	s.mtx.RLock()
	slot, ok := s.slots[id]
	s.mtx.RUnlock()

	if ok {
		return slot
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if slot, ok := s.slots[id]; ok {
		return slot
	}

	slot = make(chan struct{}, 1)
	s.slots[id] = slot

	return slot
}

func New(window int) *Service {
	if window <= 0 {
		window = DefaultWindow
	}

	return &Service{
		sessions: map[string]*Session{},
		slots:    map[string]chan struct{}{},
		window:   window,
		mtx:      sync.RWMutex{},
	}
}
