package playback

import (
	"sync"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/scriba/internal/pkg/audio"
	"github.com/google/uuid"
)

// Handle is a browsable reference to a payload
type Handle struct {
	ID string
}

// Valid returns true if handle points to something
func (h Handle) Valid() bool {
	return h.ID != ""
}

// URL returns the path the page uses for a preview
func (h Handle) URL() string {
	if !h.Valid() {
		return ""
	}
	return "/playback/" + h.ID
}

// Store keeps payloads addressable by handle ID until released
type Store struct {
	lock  *sync.RWMutex
	items map[string]*audio.Payload
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{lock: &sync.RWMutex{}, items: map[string]*audio.Payload{}}
}

// Issue registers payload and returns a fresh handle
func (s *Store) Issue(p *audio.Payload) Handle {
	res := Handle{ID: uuid.New().String()}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.items[res.ID] = p
	goapp.Log.Debug().Str("ID", res.ID).Int("size", p.Size()).Msg("playback issued")
	return res
}

// Release drops the payload reference, a zero handle is ignored
func (s *Store) Release(h Handle) {
	if !h.Valid() {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.items, h.ID)
	goapp.Log.Debug().Str("ID", h.ID).Int("active", len(s.items)).Msg("playback released")
}

// Get returns payload by handle ID
func (s *Store) Get(id string) (*audio.Payload, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res, ok := s.items[id]
	return res, ok
}
