// ABOUTME: Pruning operations for the message/thread store.
// ABOUTME: Per-channel TTL eviction plus the global sweep that reclaims message-less threads.

package store

import "sort"

// PruneResult reports what one global sweep removed.
type PruneResult struct {
	// ExpiredMessages is the total number of messages discarded.
	ExpiredMessages int
	// PrunedChannels lists channel ids whose last message expired, removing
	// the channel key entirely. Sorted.
	PrunedChannels []string
	// ReclaimedThreads lists thread ids removed because their channel held
	// no live messages after the sweep. Sorted.
	ReclaimedThreads []string
}

// Empty reports whether the sweep removed nothing.
func (r PruneResult) Empty() bool {
	return r.ExpiredMessages == 0 && len(r.PrunedChannels) == 0 && len(r.ReclaimedThreads) == 0
}

// PruneChannel discards the channel's messages that have aged past the TTL
// cutoff, preserving the relative order of survivors. When nothing survives
// the channel key is removed along with the messages, so an empty sequence
// is never observable. Unknown channel ids are a no-op: no error, no key
// created. Returns the number of messages discarded.
func (s *Store) PruneChannel(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pruneChannelLocked(channelID, s.cutoff(s.now()))
}

// PruneAll sweeps every channel against a single clock snapshot, then
// removes every thread whose same-id channel holds no live messages after
// the sweep. A thread's own age never matters here: an hour-old thread with
// zero messages is reclaimed, a week-old thread with one live message stays.
func (s *Store) PruneAll() PruneResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One cutoff for the entire pass so a sweep never straddles the clock.
	cutoff := s.cutoff(s.now())

	var res PruneResult
	for channelID := range s.messages {
		removed := s.pruneChannelLocked(channelID, cutoff)
		res.ExpiredMessages += removed
		if _, live := s.messages[channelID]; !live {
			res.PrunedChannels = append(res.PrunedChannels, channelID)
		}
	}

	for threadID := range s.threads {
		if _, live := s.messages[threadID]; live {
			continue
		}
		delete(s.threads, threadID)
		s.reclaimedThreads++
		res.ReclaimedThreads = append(res.ReclaimedThreads, threadID)
	}

	sort.Strings(res.PrunedChannels)
	sort.Strings(res.ReclaimedThreads)

	if !res.Empty() {
		s.logger.Debug("global prune",
			"expired_messages", res.ExpiredMessages,
			"pruned_channels", len(res.PrunedChannels),
			"reclaimed_threads", len(res.ReclaimedThreads))
	}
	return res
}

// pruneChannelLocked retains only messages strictly newer than cutoff and
// deletes the channel key when the retained sequence is empty. Caller must
// hold mu. Returns the number of messages discarded.
func (s *Store) pruneChannelLocked(channelID string, cutoff int64) int {
	msgs, ok := s.messages[channelID]
	if !ok {
		return 0
	}

	kept := msgs[:0]
	for _, m := range msgs {
		if m.Timestamp > cutoff {
			kept = append(kept, m)
		}
	}

	removed := len(msgs) - len(kept)
	if removed == 0 {
		return 0
	}
	s.expiredMessages += uint64(removed)

	if len(kept) == 0 {
		delete(s.messages, channelID)
		return removed
	}
	s.messages[channelID] = kept
	return removed
}
