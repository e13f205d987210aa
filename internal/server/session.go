package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contactform/pkg/contact"
)

// session pairs one browser with its own controller. mu serializes every
// controller call because the controller itself does no locking.
type session struct {
	mu         sync.Mutex
	id         string
	csrf       string
	controller *contact.Controller
	lastSeen   time.Time
}

// SessionStore keeps sessions in memory and evicts idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	factory  func() *contact.Controller
}

// NewSessionStore returns a store whose sessions expire ttl after their last
// use. factory builds the controller for each new session.
func NewSessionStore(ttl time.Duration, factory func() *contact.Controller) *SessionStore {
	if factory == nil {
		factory = func() *contact.Controller { return contact.New() }
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		factory:  factory,
	}
}

// lookup returns the live session for id and refreshes its expiry.
func (s *SessionStore) lookup(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// create starts a session with a fresh controller.
func (s *SessionStore) create() *session {
	sess := &session{
		id:         uuid.NewString(),
		csrf:       uuid.NewString(),
		controller: s.factory(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = s.now()
	s.sessions[sess.id] = sess
	return sess
}

// Sweep removes expired sessions and reports how many were dropped.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked sessions, expired ones included until
// the next sweep.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// DefaultJanitorInterval is used when RunJanitor is given a non-positive
// interval.
const DefaultJanitorInterval = time.Minute

// RunJanitor sweeps every interval until ctx is done. onSweep, when set,
// receives the count of each sweep that removed something.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(int)) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *SessionStore) expired(sess *session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl
}
