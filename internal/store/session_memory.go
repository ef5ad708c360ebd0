package store

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
)

// MemorySessionStore keeps sessions in process memory with one lock per
// session id.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
}

// sessionEntry is guarded by lock, a one-slot channel so waiters can give up
// when their context ends.
type sessionEntry struct {
	lock    chan struct{}
	session *domain.Session
	// removed is set by the lock holder once the entry left the map; a waiter
	// that wakes up on a removed entry starts over with a fresh one.
	removed bool
}

func newSessionEntry(sess *domain.Session) *sessionEntry {
	return &sessionEntry{lock: make(chan struct{}, 1), session: sess}
}

func (e *sessionEntry) acquire(ctx context.Context) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *sessionEntry) tryAcquire() bool {
	select {
	case e.lock <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *sessionEntry) release() { <-e.lock }

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

func (s *MemorySessionStore) Acquire(ctx context.Context, id string) (*domain.Session, func(), error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok {
			e = newSessionEntry(domain.NewSession(id, s.now().UTC()))
			s.entries[id] = e
		}
		s.mu.Unlock()

		if err := e.acquire(ctx); err != nil {
			return nil, nil, err
		}
		if e.removed {
			e.release()
			continue
		}
		return e.session, e.release, nil
	}
}

// Save is a no-op beyond bookkeeping: the acquired session is the stored one.
func (s *MemorySessionStore) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemorySessionStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	delete(s.entries, id)
	e.removed = true
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()
	if e.removed {
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

// DeleteIdle skips sessions that are currently held by a request.
func (s *MemorySessionStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if !e.tryAcquire() {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			delete(s.entries, id)
			e.removed = true
			deleted++
		}
		e.release()
	}
	return deleted, nil
}

// Len returns the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
