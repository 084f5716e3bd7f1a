package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"cinebot/models"
)

// Store keeps the per-user mapping from item handle to the catalog record
// last shown for that handle. Each user gets an independent bounded LRU, so
// one user's entries are never visible to, or evicted by, another user.
type Store struct {
	capacity int

	mu    sync.RWMutex
	users map[string]*lru.Cache[string, models.MediaItem]
}

// Stats summarises the store for the status API.
type Stats struct {
	Users   int `json:"users"`
	Entries int `json:"entries"`
}

// NewStore creates a session store holding at most capacity items per user.
// Once a user's cache is full the least recently touched handle is evicted
// and later lookups for it miss.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 256
	}
	return &Store{
		capacity: capacity,
		users:    make(map[string]*lru.Cache[string, models.MediaItem]),
	}
}

// Put stores or overwrites the record for a handle in the user's session.
func (s *Store) Put(user, handle string, item models.MediaItem) {
	s.userCache(user).Add(handle, item)
}

// Get resolves a handle in the user's session. A miss means the handle was
// never shown to this user, or has been evicted since.
func (s *Store) Get(user, handle string) (models.MediaItem, bool) {
	s.mu.RLock()
	cache, ok := s.users[user]
	s.mu.RUnlock()
	if !ok {
		return models.MediaItem{}, false
	}
	return cache.Get(handle)
}

// Stats reports how many users and entries the store currently tracks.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Users: len(s.users)}
	for _, cache := range s.users {
		stats.Entries += cache.Len()
	}
	return stats
}

func (s *Store) userCache(user string) *lru.Cache[string, models.MediaItem] {
	s.mu.RLock()
	cache, ok := s.users[user]
	s.mu.RUnlock()
	if ok {
		return cache
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cache, ok := s.users[user]; ok {
		return cache
	}
	// lru.New only fails for a non-positive size, which NewStore rules out.
	cache, _ = lru.New[string, models.MediaItem](s.capacity)
	s.users[user] = cache
	return cache
}
