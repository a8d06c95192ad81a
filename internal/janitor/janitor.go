// ABOUTME: Background sweeper that expires messages and reclaims dead threads.
// ABOUTME: Runs the store-wide prune on a ticker and announces what it removed.

package janitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/brianluft/threadloaf-sub002/internal/metrics"
	"github.com/brianluft/threadloaf-sub002/internal/notify"
	"github.com/brianluft/threadloaf-sub002/internal/store"
)

// DefaultSweepInterval is how often the background sweep runs when no
// interval is configured.
const DefaultSweepInterval = time.Minute

// Janitor periodically prunes the store. Expiry also happens inline on the
// write path, so the sweep exists for channels and threads that stop
// receiving traffic and would otherwise hold stale data forever.
type Janitor struct {
	store    *store.Store
	events   *notify.Broadcaster
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// New creates a janitor and starts its background sweep loop. Callers must
// Close it to stop the loop. Pass nil logger for default.
func New(st *store.Store, events *notify.Broadcaster, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	j := &Janitor{
		store:    st,
		events:   events,
		interval: interval,
		logger:   logger.With("component", "janitor"),
		done:     make(chan struct{}),
	}
	go j.run()
	return j
}

// Sweep prunes the whole store once and publishes an event for every channel
// drained and every thread reclaimed. Safe to call from any goroutine at any
// time, including alongside the background loop.
func (j *Janitor) Sweep() store.PruneResult {
	start := time.Now()
	res := j.store.PruneAll()

	metrics.SweepsTotal.Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if res.Empty() {
		j.logger.Debug("sweep found nothing to remove")
		return res
	}

	metrics.MessagesExpired.Add(float64(res.ExpiredMessages))
	metrics.ChannelsPruned.Add(float64(len(res.PrunedChannels)))
	metrics.ThreadsReclaimed.Add(float64(len(res.ReclaimedThreads)))

	for _, channelID := range res.PrunedChannels {
		j.events.Publish(channelID, notify.Event{
			Type:      notify.EventChannelPruned,
			ChannelID: channelID,
		})
	}
	for _, threadID := range res.ReclaimedThreads {
		j.events.Publish(threadID, notify.Event{
			Type:      notify.EventThreadReclaimed,
			ChannelID: threadID,
		})
	}

	j.logger.Info("sweep complete",
		"expired_messages", res.ExpiredMessages,
		"pruned_channels", len(res.PrunedChannels),
		"reclaimed_threads", len(res.ReclaimedThreads),
		"duration", time.Since(start))
	return res
}

// run ticks until Close.
func (j *Janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-j.done:
			return
		}
	}
}

// Close stops the background sweep loop. Safe to call more than once.
func (j *Janitor) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.closed {
		close(j.done)
		j.closed = true
	}
}
