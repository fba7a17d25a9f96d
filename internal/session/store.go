package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// Store keeps live sessions in an expiring LRU. Evicted or expired
// sessions are closed.
type Store struct {
	sessions *expirable.LRU[string, *Session]
	deps     Deps
	logger   zerolog.Logger
	mu       sync.Mutex
}

func NewStore(capacity int, ttl time.Duration, deps Deps, logger zerolog.Logger) *Store {
	s := &Store{
		deps:   deps,
		logger: logger,
	}
	s.sessions = expirable.NewLRU[string, *Session](capacity, func(id string, sess *Session) {
		sess.Close()
		s.logger.Debug().Str("session", id).Msg("session closed")
	}, ttl)
	return s
}

// Get returns a live session and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s.sessions.Add(id, sess)
	return sess, true
}

// GetOrCreate returns the session for id, creating one under a fresh id
// when id is unknown. created reports whether a new session was made.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess = New(uuid.NewString(), s.deps)
	s.sessions.Add(sess.ID, sess)
	s.logger.Debug().Str("session", sess.ID).Int("live", s.sessions.Len()).Msg("session created")
	return sess, true
}

func (s *Store) Len() int {
	return s.sessions.Len()
}

// Purge closes every session.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Purge()
}
