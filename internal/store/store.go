// ABOUTME: In-memory time-windowed cache of chat messages and forum-thread metadata.
// ABOUTME: Messages live per channel in arrival order; stale entries are evicted against the message TTL.

package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultMessageTTL is how long an observed message stays retrievable.
// Threads carry no TTL of their own: a thread survives exactly as long as
// its channel holds at least one live message (see PruneAll).
const DefaultMessageTTL = 24 * time.Hour

// StoredMessage is a snapshot of one observed chat message. The store never
// mutates a stored message; it is appended and later discarded wholesale.
type StoredMessage struct {
	ID        string // unique within its channel; not enforced
	Content   string
	AuthorTag string
	Timestamp int64 // epoch milliseconds when the message was authored/observed
}

// ThreadMeta is metadata for one forum-style thread. A thread id doubles as
// a channel id in the message mapping; the thread's messages live there.
type ThreadMeta struct {
	ID        string
	Title     string
	ParentID  string // owning forum/category
	CreatedAt int64  // epoch milliseconds
	CreatedBy string
}

// Stats is a point-in-time summary of store contents plus lifetime eviction
// totals.
type Stats struct {
	Channels         int
	Messages         int
	Threads          int
	ExpiredMessages  uint64
	ReclaimedThreads uint64
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithTTL overrides DefaultMessageTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the time source used to compute prune cutoffs. Tests use
// this to drive expiry deterministically instead of sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Pass nothing to log via slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store holds recently observed messages keyed by channel id plus
// forum-thread metadata keyed by thread id, and evicts messages that fall
// outside the TTL window. A channel key exists only while it holds at least
// one message; pruning that empties a channel removes the key with it.
//
// All methods are safe for concurrent use. One lock covers both mappings,
// so every operation is atomic with respect to every other; a reader never
// observes a sweep half applied.
type Store struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	messages map[string][]StoredMessage // channel id → messages, arrival order
	threads  map[string]ThreadMeta      // thread id → metadata

	expiredMessages  uint64
	reclaimedThreads uint64
}

// New creates an empty store with the default 24h TTL and wall clock.
func New(opts ...Option) *Store {
	s := &Store{
		ttl:      DefaultMessageTTL,
		now:      time.Now,
		logger:   slog.Default(),
		messages: make(map[string][]StoredMessage),
		threads:  make(map[string]ThreadMeta),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	return s
}

// TTL returns the configured message TTL. Immutable after construction.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// AddMessage appends msg to the channel's sequence, creating the sequence if
// absent, then prunes that same channel. Arrival order is preserved among
// survivors. The freshly appended message gets no special treatment: if its
// timestamp already sits outside the TTL window, the prune discards it in
// the same call.
//
// The store is not a validation boundary: msg and channelID are accepted
// as-is and nothing here can fail.
func (s *Store) AddMessage(channelID string, msg StoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[channelID] = append(s.messages[channelID], msg)
	s.pruneChannelLocked(channelID, s.cutoff(s.now()))
}

// MessagesForChannel returns a copy of the channel's surviving messages in
// arrival order, or nil for an unknown channel. It is read-only: no prune
// runs, and mutating the returned slice does not touch the store.
func (s *Store) MessagesForChannel(channelID string) []StoredMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[channelID]
	if !ok {
		return nil
	}
	out := make([]StoredMessage, len(msgs))
	copy(out, msgs)
	return out
}

// AddThread inserts or overwrites the metadata entry keyed by meta.ID.
// No pruning side effect.
func (s *Store) AddThread(meta ThreadMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads[meta.ID] = meta
}

// Thread returns the metadata entry for id, if present.
func (s *Store) Thread(id string) (ThreadMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.threads[id]
	return meta, ok
}

// Threads returns a snapshot of all thread metadata, newest created first
// with id as tiebreak. The slice is the caller's to keep; later store
// mutations do not show through it.
func (s *Store) Threads() []ThreadMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ThreadMeta, 0, len(s.threads))
	for _, meta := range s.threads {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats reports current entry counts and lifetime eviction totals.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Channels:         len(s.messages),
		Threads:          len(s.threads),
		ExpiredMessages:  s.expiredMessages,
		ReclaimedThreads: s.reclaimedThreads,
	}
	for _, msgs := range s.messages {
		st.Messages += len(msgs)
	}
	return st
}

// cutoff converts a wall-clock instant into the oldest permissible message
// timestamp, in epoch milliseconds. Messages must be strictly newer to
// survive a prune.
func (s *Store) cutoff(now time.Time) int64 {
	return now.UnixMilli() - s.ttl.Milliseconds()
}
