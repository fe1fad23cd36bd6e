package store

import (
	"hash/fnv"
	"sync"
	"time"

	"tenant-onboarding-backend/internal/models"
)

const (
	defaultShardCount      = 16
	defaultTTL             = 30 * time.Minute
	defaultCleanupInterval = 1 * time.Minute
)

type entry struct {
	session   *models.IngestionSession
	expiresAt time.Time
}

func (e *entry) expired() bool {
	return time.Now().After(e.expiresAt)
}

type shard struct {
	mu    sync.RWMutex
	items map[string]*entry
}

// SessionStore holds live ingestion sessions in memory. Sessions are
// transient: only submitted cheque details outlive the step, so an expired
// session simply means the agent starts the upload over.
type SessionStore struct {
	shards          []*shard
	shardCount      int
	ttl             time.Duration
	cleanupInterval time.Duration

	cleanupRunning bool
	cleanupMu      sync.Mutex
	cleanupStop    chan struct{}
	cleanupWg      sync.WaitGroup
}

func NewSessionStore(shardCount int, ttl time.Duration) *SessionStore {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{items: make(map[string]*entry)}
	}

	return &SessionStore{
		shards:          shards,
		shardCount:      shardCount,
		ttl:             ttl,
		cleanupInterval: defaultCleanupInterval,
		cleanupStop:     make(chan struct{}),
	}
}

func (s *SessionStore) getShard(key string) *shard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return s.shards[hash.Sum32()%uint32(s.shardCount)]
}

// Get returns the live session for the key, or false when it is missing or
// expired.
func (s *SessionStore) Get(key string) (*models.IngestionSession, bool) {
	sh := s.getShard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.items[key]
	if !ok || e.expired() {
		return nil, false
	}
	return e.session, true
}

// Put stores the session and refreshes its TTL.
func (s *SessionStore) Put(key string, session *models.IngestionSession) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.items[key] = &entry{
		session:   session,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// Touch extends the TTL of a live session without replacing it.
func (s *SessionStore) Touch(key string) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.items[key]; ok && !e.expired() {
		e.expiresAt = time.Now().Add(s.ttl)
	}
}

func (s *SessionStore) Delete(key string) {
	sh := s.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.items, key)
}

// CleanExpired removes all expired sessions.
func (s *SessionStore) CleanExpired() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.items {
			if e.expired() {
				delete(sh.items, key)
			}
		}
		sh.mu.Unlock()
	}
}

// Len reports the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.items)
		sh.mu.RUnlock()
	}
	return total
}

// StartCleanupWorker starts the background goroutine that evicts expired
// sessions periodically.
func (s *SessionStore) StartCleanupWorker() {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()

	if s.cleanupRunning {
		return
	}

	s.cleanupRunning = true
	s.cleanupStop = make(chan struct{})

	s.cleanupWg.Add(1)
	go s.cleanupWorker()
}

// StopCleanupWorker stops the background worker gracefully.
func (s *SessionStore) StopCleanupWorker() {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()

	if !s.cleanupRunning {
		return
	}

	close(s.cleanupStop)
	s.cleanupWg.Wait()
	s.cleanupRunning = false
}

func (s *SessionStore) cleanupWorker() {
	defer s.cleanupWg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cleanupStop:
			s.CleanExpired()
			return
		case <-ticker.C:
			s.CleanExpired()
		}
	}
}
