// ABOUTME: Tests for the background expiry sweeper.
// ABOUTME: Covers manual sweeps, event publication, the ticker loop, and shutdown.

package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brianluft/threadloaf-sub002/internal/notify"
	"github.com/brianluft/threadloaf-sub002/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testContext returns a context canceled at test end, standing in for
// testing.T.Context, which needs Go 1.24.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestJanitor wires a janitor with a long interval so only manual Sweep
// calls run, driven by a controllable store clock.
func newTestJanitor(t *testing.T) (*Janitor, *store.Store, *notify.Broadcaster, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := &now

	st := store.New(store.WithClock(func() time.Time { return *clock }))
	events := notify.NewBroadcaster(discardLogger())
	j := New(st, events, time.Hour, discardLogger())

	t.Cleanup(func() {
		j.Close()
		events.Close()
	})
	return j, st, events, clock
}

func TestJanitor_Sweep_RemovesExpired(t *testing.T) {
	j, st, _, clock := newTestJanitor(t)
	now := clock.UnixMilli()

	st.AddMessage("c1", store.StoredMessage{ID: "m1", Timestamp: now})
	st.AddMessage("c2", store.StoredMessage{ID: "m2", Timestamp: now})

	*clock = clock.Add(25 * time.Hour)

	res := j.Sweep()
	assert.Equal(t, 2, res.ExpiredMessages)
	assert.ElementsMatch(t, []string{"c1", "c2"}, res.PrunedChannels)
	assert.Empty(t, st.MessagesForChannel("c1"))
}

func TestJanitor_Sweep_PublishesEvictionEvents(t *testing.T) {
	j, st, events, clock := newTestJanitor(t)
	now := clock.UnixMilli()

	all, _ := events.Subscribe(testContext(t), notify.TopicAll)

	st.AddMessage("c1", store.StoredMessage{ID: "m1", Timestamp: now})
	st.AddThread(store.ThreadMeta{ID: "t1", Title: "quiet thread", CreatedAt: now})

	*clock = clock.Add(25 * time.Hour)
	j.Sweep()

	got := map[notify.EventType]string{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-all:
			got[ev.Type] = ev.ChannelID
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for eviction events")
		}
	}
	assert.Equal(t, "c1", got[notify.EventChannelPruned])
	assert.Equal(t, "t1", got[notify.EventThreadReclaimed])
}

func TestJanitor_Sweep_NothingToRemove(t *testing.T) {
	j, st, events, clock := newTestJanitor(t)

	all, _ := events.Subscribe(testContext(t), notify.TopicAll)
	st.AddMessage("c1", store.StoredMessage{ID: "m1", Timestamp: clock.UnixMilli()})

	res := j.Sweep()
	assert.True(t, res.Empty())
	assert.Len(t, st.MessagesForChannel("c1"), 1)

	select {
	case ev := <-all:
		t.Fatalf("no events expected for an empty sweep, got %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJanitor_BackgroundLoopSweeps(t *testing.T) {
	// A thread with no messages is reclaimed by the very first sweep, so
	// the loop can be observed without touching any clock.
	st := store.New()
	st.AddThread(store.ThreadMeta{ID: "t1", Title: "idle", CreatedAt: time.Now().UnixMilli()})

	events := notify.NewBroadcaster(discardLogger())
	j := New(st, events, 10*time.Millisecond, discardLogger())
	t.Cleanup(func() {
		j.Close()
		events.Close()
	})

	require.Eventually(t, func() bool {
		_, ok := st.Thread("t1")
		return !ok
	}, time.Second, 5*time.Millisecond, "background loop should sweep without manual calls")
}

func TestJanitor_DefaultInterval(t *testing.T) {
	st := store.New()
	events := notify.NewBroadcaster(discardLogger())
	j := New(st, events, 0, discardLogger())
	t.Cleanup(func() {
		j.Close()
		events.Close()
	})

	assert.Equal(t, DefaultSweepInterval, j.interval)
}

func TestJanitor_Close_Idempotent(t *testing.T) {
	st := store.New()
	events := notify.NewBroadcaster(discardLogger())
	defer events.Close()

	j := New(st, events, time.Hour, discardLogger())
	j.Close()
	j.Close()
}
