// Package cache provides an optional idempotency store for committed PPL
// config-set UIDs, so repeated `configure` runs against an already-current
// device can be short-circuited. Grounded on the teacher's
// valkey.Publisher: an optionally-connected client guarded by a mutex,
// nil-safe at every call site.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UIDStore records the last committed config-set UID per device address.
// A nil *UIDStore is always a valid receiver: Lookup reports a miss and
// Record is a no-op, matching the teacher's pattern of callers operating
// without checking for a connected publisher first.
type UIDStore struct {
	addr string
	ttl  time.Duration

	mu      sync.RWMutex
	client  *redis.Client
	running bool
}

// New creates a UIDStore targeting a Redis/Valkey instance at addr. Commit
// records expire after ttl (zero means no expiry).
func New(addr string, ttl time.Duration) *UIDStore {
	return &UIDStore{addr: addr, ttl: ttl}
}

// Connect dials the backing store and verifies it with a PING, matching
// valkey.Publisher.Start's connect-then-verify sequence.
func (s *UIDStore) Connect() error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	if s.running {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	client := redis.NewClient(&redis.Options{
		Addr:         s.addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("cache: connect to %s: %w", s.addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		client.Close()
		return nil
	}
	s.client = client
	s.running = true
	return nil
}

// Close disconnects the backing store. Safe to call on a nil or
// never-connected store.
func (s *UIDStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	client := s.client
	s.client = nil
	if client != nil {
		return client.Close()
	}
	return nil
}

func key(deviceIP string) string {
	return fmt.Sprintf("device:%s:config_uid", deviceIP)
}

// Record stores uid as the most recently committed config-set UID for
// deviceIP. A nil store, or one that never connected, is a silent no-op.
// The orchestrator calls this after every successful CommitConfigSet when
// a store is attached.
func (s *UIDStore) Record(ctx context.Context, deviceIP string, uid uint64) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	client := s.client
	running := s.running
	ttl := s.ttl
	s.mu.RUnlock()
	if !running || client == nil {
		return nil
	}
	return client.Set(ctx, key(deviceIP), strconv.FormatUint(uid, 10), ttl).Err()
}

// Lookup returns the last committed UID for deviceIP, if any. A nil store,
// a disconnected store, or a cache miss all report ok=false with a nil
// error -- the caller's job is to treat any of those as "reconfigure".
func (s *UIDStore) Lookup(ctx context.Context, deviceIP string) (uid uint64, ok bool, err error) {
	if s == nil {
		return 0, false, nil
	}
	s.mu.RLock()
	client := s.client
	running := s.running
	s.mu.RUnlock()
	if !running || client == nil {
		return 0, false, nil
	}

	val, err := client.Get(ctx, key(deviceIP)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache: lookup %s: %w", deviceIP, err)
	}
	parsed, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cache: corrupt cached uid for %s: %w", deviceIP, err)
	}
	return parsed, true, nil
}
