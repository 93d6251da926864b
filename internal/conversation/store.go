// Package conversation holds the in-process store for active conversations.
// The store is bounded by total cost and evicts conversations idle past a
// configurable TTL, and hands out a per-key lock so concurrent inbound
// messages for the same (conversation, user) pair are serialized.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sapira-io/triage/internal/domain"
)

// conversationCost is the eviction weight of one conversation entry.
// Transcripts are short text; a flat per-entry cost keeps accounting simple
// while still bounding the number of resident conversations.
const conversationCost = 4096

// Store is a TTL-bounded cache of active conversations
type Store struct {
	cache   *ristretto.Cache[string, *domain.Conversation]
	idleTTL time.Duration

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// NewStore creates a conversation store. maxCostBytes bounds the total cost
// of resident conversations; idleTTL evicts conversations with no activity.
func NewStore(maxCostBytes int64, idleTTL time.Duration) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *domain.Conversation]{
		NumCounters: maxCostBytes / conversationCost * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation cache: %w", err)
	}
	return &Store{
		cache:   cache,
		idleTTL: idleTTL,
		locks:   make(map[string]*keyLock),
	}, nil
}

// GetOrCreate returns the conversation for (conversationID, userID), creating
// it from the inbound message's identity fields on first contact. The second
// return value reports whether the conversation already existed.
//
// Ristretto admits writes asynchronously, so a freshly created conversation
// is pinned through Wait before returning; without it a burst of first
// messages could each see a miss.
func (s *Store) GetOrCreate(msg domain.InboundMessage) (*domain.Conversation, bool) {
	key := domain.Key(msg.ConversationID, msg.UserID)
	if conv, ok := s.cache.Get(key); ok {
		return conv, true
	}

	conv := domain.NewConversation(msg.ConversationID, msg.UserID, msg.UserName, msg.UserEmail, msg.ChannelID)
	s.cache.SetWithTTL(key, conv, conversationCost, s.idleTTL)
	s.cache.Wait()
	return conv, false
}

// Get returns the conversation for a key, if resident
func (s *Store) Get(conversationID, userID string) (*domain.Conversation, bool) {
	return s.cache.Get(domain.Key(conversationID, userID))
}

// Touch refreshes the idle TTL after activity on a conversation
func (s *Store) Touch(conv *domain.Conversation) {
	s.cache.SetWithTTL(conv.Key(), conv, conversationCost, s.idleTTL)
}

// Remove drops a conversation from the store
func (s *Store) Remove(conversationID, userID string) {
	s.cache.Del(domain.Key(conversationID, userID))
}

// Lock acquires the mutex for a conversation key and returns its unlock
// function. Two inbound messages for the same key are processed one after
// the other; messages for different keys do not contend.
func (s *Store) Lock(conversationID, userID string) func() {
	key := domain.Key(conversationID, userID)

	s.mu.Lock()
	kl, ok := s.locks[key]
	if !ok {
		kl = &keyLock{}
		s.locks[key] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.Lock()

	return func() {
		kl.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Close releases the store's resources
func (s *Store) Close() {
	s.cache.Close()
}
