package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisSessionPrefix = "concierge:session:"
	redisLockPrefix    = "concierge:lock:"
	redisLockTTL       = 30 * time.Second
	redisLockPoll      = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it still carries our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisSessionStore shares sessions between server instances. Sessions
// expire through key TTL; the per-session lock is a SET NX key holding a
// random token. The holder refreshes the lock until it releases it, so a slow
// booking cannot let a second request in.
type RedisSessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, lockTTL: redisLockTTL}
}

// SetLockTTL bounds how long a lock outlives a crashed holder.
func (s *RedisSessionStore) SetLockTTL(d time.Duration) {
	if d > 0 {
		s.lockTTL = d
	}
}

func (s *RedisSessionStore) Acquire(ctx context.Context, id string) (*domain.Session, func(), error) {
	lockKey := redisLockPrefix + id
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("store: lock session %s: %w", id, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(redisLockPoll):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepLock(lockKey, token, stop, done)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, s.client, []string{lockKey}, token).Err()
		})
	}

	sess, err := s.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return domain.NewSession(id, time.Now().UTC()), release, nil
	}
	if err != nil {
		release()
		return nil, nil, err
	}
	return sess, release, nil
}

// keepLock pushes the lock expiry forward every third of its TTL until stop
// is closed or the lock is no longer ours.
func (s *RedisSessionStore) keepLock(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.lockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL/3)
			n, err := refreshScript.Run(ctx, s.client, []string{key}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store: encode session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, redisSessionPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) Remove(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisSessionPrefix+id).Err(); err != nil {
		return fmt.Errorf("store: remove session %s: %w", id, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.load(ctx, id)
}

// DeleteIdle is a no-op: Redis expires idle sessions by TTL.
func (s *RedisSessionStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Ping checks connectivity for the health endpoint.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) load(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: load session %s: %w", id, err)
	}
	sess := &domain.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("store: decode session %s: %w", id, err)
	}
	return sess, nil
}
