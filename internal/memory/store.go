// Package memory provides the in-memory conversation context store. History
// lives only in process memory and is lost on restart; durable storage is an
// explicitly excluded concern.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/shoptalk-ai/business-chatbot/internal/model"
)

// DefaultBound is the default number of turns retained per conversation.
const DefaultBound = 10

// Conversation is the bounded turn history for one conversation identifier.
// Appends and reads are serialized by a per-conversation mutex, so concurrent
// requests for the same identifier cannot interleave their turn pairs.
type Conversation struct {
	ID string

	mu    sync.Mutex
	turns []model.Turn
	bound int
}

// Append adds turns in order, evicting the oldest turns once the bound is
// exceeded. All turns passed in one call land contiguously.
func (c *Conversation) Append(turns ...model.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turns...)
	if excess := len(c.turns) - c.bound; excess > 0 {
		c.turns = append(c.turns[:0:0], c.turns[excess:]...)
	}
}

// Recent returns a copy of the last k turns in arrival order.
func (c *Conversation) Recent(k int) []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k <= 0 || len(c.turns) == 0 {
		return nil
	}
	if k > len(c.turns) {
		k = len(c.turns)
	}
	out := make([]model.Turn, k)
	copy(out, c.turns[len(c.turns)-k:])
	return out
}

// Turns returns a copy of the full retained history.
func (c *Conversation) Turns() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Store owns all conversation contexts, keyed by conversation identifier.
// The store-level lock guards only the map; turn mutation is guarded by each
// conversation's own mutex so a slow conversation never stalls the rest.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	bound         int
}

// NewStore creates a store retaining at most bound turns per conversation.
func NewStore(bound int) *Store {
	if bound <= 0 {
		bound = DefaultBound
	}
	return &Store{
		conversations: make(map[string]*Conversation),
		bound:         bound,
	}
}

// GetOrCreate returns the conversation for id, creating it on first use.
// An empty id gets a generated UUIDv7. Idempotent per id: the same id always
// yields the same conversation for the lifetime of the process.
func (s *Store) GetOrCreate(id string) *Conversation {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	s.mu.RLock()
	conv, ok := s.conversations[id]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[id]; ok {
		return conv
	}
	conv = &Conversation{ID: id, bound: s.bound}
	s.conversations[id] = conv
	return conv
}

// Get returns the conversation for id without creating it.
func (s *Store) Get(id string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	return conv, ok
}

// Clear removes a conversation, reporting whether it existed.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return false
	}
	delete(s.conversations, id)
	return true
}

// Len returns the number of conversations currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
