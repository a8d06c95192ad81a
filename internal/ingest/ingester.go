// ABOUTME: Applies observed chat traffic to the store with duplicate suppression.
// ABOUTME: Accepted messages and threads are published as change events.

package ingest

import (
	"log/slog"

	"github.com/brianluft/threadloaf-sub002/internal/dedupe"
	"github.com/brianluft/threadloaf-sub002/internal/metrics"
	"github.com/brianluft/threadloaf-sub002/internal/notify"
	"github.com/brianluft/threadloaf-sub002/internal/store"
)

// Ingester is the write path between raw delivery callbacks and the store.
// Deliveries arrive at-least-once, so every message passes the dedupe cache
// before it is stored and announced.
type Ingester struct {
	store  *store.Store
	seen   *dedupe.Cache
	events *notify.Broadcaster
	logger *slog.Logger
}

// New creates an ingester. The ingester takes ownership of the dedupe
// cache and releases it on Close. Pass nil logger for default.
func New(st *store.Store, seen *dedupe.Cache, events *notify.Broadcaster, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		store:  st,
		seen:   seen,
		events: events,
		logger: logger.With("component", "ingest"),
	}
}

// ObserveMessage stores a delivered message unless it was already seen.
// Returns true when the message was accepted, false for a duplicate.
// Duplicates are dropped whole, matching the delivery contract: a redelivery
// carries the same content, so nothing is lost.
func (i *Ingester) ObserveMessage(channelID string, msg store.StoredMessage) bool {
	key := dedupe.Key(channelID, msg.ID)
	if i.seen.CheckAndMark(key) {
		metrics.DuplicateDeliveries.Inc()
		i.logger.Debug("duplicate message ignored",
			"channel_id", channelID,
			"message_id", msg.ID)
		return false
	}

	i.store.AddMessage(channelID, msg)
	metrics.MessagesObserved.Inc()

	i.logger.Debug("message stored",
		"channel_id", channelID,
		"message_id", msg.ID,
		"author", msg.AuthorTag)

	i.events.Publish(channelID, notify.Event{
		Type:      notify.EventMessageAdded,
		ChannelID: channelID,
		Message:   &msg,
	})
	return true
}

// ObserveThread records thread metadata. The store upsert always happens so
// renames and refreshes propagate; the added event and counter fire only on
// the first sighting within the dedupe window. Returns true for that first
// sighting.
func (i *Ingester) ObserveThread(meta store.ThreadMeta) bool {
	fresh := !i.seen.CheckAndMark(dedupe.Key("thread", meta.ID))

	i.store.AddThread(meta)

	if !fresh {
		metrics.DuplicateDeliveries.Inc()
		return false
	}

	metrics.ThreadsObserved.Inc()
	i.logger.Debug("thread recorded",
		"thread_id", meta.ID,
		"title", meta.Title)

	i.events.Publish(meta.ID, notify.Event{
		Type:      notify.EventThreadAdded,
		ChannelID: meta.ID,
		Thread:    &meta,
	})
	return true
}

// Close releases the dedupe cache.
func (i *Ingester) Close() {
	i.seen.Close()
}
