// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type entry struct {
	token     string
	expiresAt time.Time // zero means no expiry
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// MemoryStore is an in-process Store. Users are spread over independently
// locked shards so requests for different users rarely contend.
//
// With ttl == 0 entries live until consumed or overwritten, so a user who
// never submits a form keeps an entry forever.
type MemoryStore struct {
	shards [shardCount]*shard
	ttl    time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store. A positive ttl also starts a janitor
// goroutine that sweeps expired entries; call Close to stop it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	if ttl > 0 {
		go s.cleanupLoop(ttl)
	}
	return s
}

func (s *MemoryStore) shardFor(user string) *shard {
	h := fnv.New32a()
	h.Write([]byte(user))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Issue(_ context.Context, user string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	var exp time.Time
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}

	sh := s.shardFor(user)
	sh.mu.Lock()
	sh.entries[user] = entry{token: token, expiresAt: exp}
	sh.mu.Unlock()

	return token, nil
}

func (s *MemoryStore) Consume(_ context.Context, user, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	sh := s.shardFor(user)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[user]
	if !ok {
		return false, nil
	}
	if s.expired(e, s.now()) {
		delete(sh.entries, user)
		return false, nil
	}
	if e.token != token {
		return false, nil
	}
	delete(sh.entries, user)
	return true, nil
}

// Len returns the number of stored entries, expired ones included until
// the janitor removes them.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Sweep drops every expired entry and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for user, e := range sh.entries {
			if s.expired(e, now) {
				delete(sh.entries, user)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (s *MemoryStore) cleanupLoop(ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
