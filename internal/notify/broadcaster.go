// ABOUTME: In-memory fan-out broadcaster for store change events.
// ABOUTME: Publishes message, thread, and eviction events to per-channel subscribers.

package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/brianluft/threadloaf-sub002/internal/store"
)

// TopicAll subscribes to every event regardless of channel.
const TopicAll = "*"

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// EventType identifies what happened to the store.
type EventType string

const (
	// EventMessageAdded fires when a fresh message lands in a channel.
	EventMessageAdded EventType = "message_added"
	// EventThreadAdded fires when thread metadata is first recorded or updated.
	EventThreadAdded EventType = "thread_added"
	// EventChannelPruned fires when a sweep drains a channel completely.
	EventChannelPruned EventType = "channel_pruned"
	// EventThreadReclaimed fires when a thread with no live messages is dropped.
	EventThreadReclaimed EventType = "thread_reclaimed"
)

// Event describes a single store mutation. Message and Thread are set only
// for the event types that carry them.
type Event struct {
	Type      EventType
	ChannelID string
	Message   *store.StoredMessage
	Thread    *store.ThreadMeta
}

// Broadcaster provides in-memory pub/sub over store events. Subscribers
// register for a channel id, or TopicAll for everything, and receive events
// as they are published. Slow subscribers lose events rather than stalling
// the publisher.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan Event // topic -> subID -> ch
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan Event),
		logger:      logger.With("component", "notify"),
	}
}

// Subscribe registers a subscriber for events on the given topic. Returns a
// channel that receives events and a subscription ID for later
// unsubscription. The subscription is automatically cleaned up when ctx is
// cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[topic]; !ok {
		b.subscribers[topic] = make(map[string]chan Event)
	}
	b.subscribers[topic][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "topic", topic, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(topic, subID)
	}()

	return ch, subID
}

// Publish sends an event to all subscribers of the given topic, plus all
// TopicAll subscribers. Non-blocking: events are dropped for subscribers
// whose channels are full.
func (b *Broadcaster) Publish(topic string, event Event) {
	b.mu.RLock()
	targets := make([]chan Event, 0, len(b.subscribers[topic])+len(b.subscribers[TopicAll]))
	for _, ch := range b.subscribers[topic] {
		targets = append(targets, ch)
	}
	if topic != TopicAll {
		for _, ch := range b.subscribers[TopicAll] {
			targets = append(targets, ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"topic", topic,
				"event_type", event.Type)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(topic, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[topic]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	// Empty topics leave the map entirely, same as drained channels in the store.
	if len(subs) == 0 {
		delete(b.subscribers, topic)
	}

	b.logger.Debug("subscriber removed", "topic", topic, "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, topic)
	}

	b.logger.Debug("broadcaster closed")
}
