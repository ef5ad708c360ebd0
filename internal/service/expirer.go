package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 5 * time.Minute
	defaultSessionTTL      = 30 * time.Minute
)

// SessionExpirer drops conversations that have been idle longer than the TTL
// so abandoned sessions do not accumulate.
type SessionExpirer struct {
	sessions domain.SessionStore
	logger   *zap.Logger

	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSessionExpirer(sessions domain.SessionStore, logger *zap.Logger) *SessionExpirer {
	return &SessionExpirer{
		sessions: sessions,
		logger:   logger,
		interval: defaultExpirerInterval,
		ttl:      defaultSessionTTL,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

func (s *SessionExpirer) SetInterval(d time.Duration) {
	s.interval = d
}

func (s *SessionExpirer) SetTTL(d time.Duration) {
	s.ttl = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *SessionExpirer) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *SessionExpirer) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *SessionExpirer) run(ctx context.Context) int64 {
	deleted, err := s.sessions.DeleteIdle(ctx, s.now().UTC().Add(-s.ttl))
	if err != nil {
		s.logger.Error("failed to delete idle sessions", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		s.logger.Info("deleted idle sessions", zap.Int64("count", deleted))
	}
	return deleted
}
