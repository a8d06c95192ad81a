// ABOUTME: Synthetic chat traffic for loafsim
// ABOUTME: Produces markdown messages, forum threads, duplicate and stale deliveries

package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/brianluft/threadloaf-sub002/internal/ingest"
	"github.com/brianluft/threadloaf-sub002/internal/store"
)

// Bodies lean on markdown so the preview path has something to chew on.
var bodies = []string{
	"**deploy** finished in 42s, dashboards look clean",
	"has anyone seen [the runbook](https://wiki.example.com/runbook)?",
	"```\nkubectl rollout status deploy/api\n```",
	"lgtm, shipping it 🚀",
	"# heads up\nmaintenance window starts at midnight UTC",
	"the `GOMAXPROCS` tweak helped, p99 down 12%",
	"retro notes:\n- keep the canary\n- drop the flaky check",
	"_quietly_ reverts the revert",
	"pager was a false alarm, the sensor flapped",
	"new build is **green** on all targets",
}

var authorTags = []string{
	"ava#0001",
	"brook#7745",
	"casey#3310",
	"devon#5521",
	"ember#0042",
}

var threadTitles = []string{
	"Incident writeup draft",
	"Canary rollout plan",
	"Flaky test hunt",
	"Schema migration window",
	"Release 1.8 checklist",
}

// generator drives one ingester with reproducible pseudo-random traffic.
// Everything funnels through the seeded rng, so two runs with the same
// scenario emit the same stream.
type generator struct {
	rng *rand.Rand
	scn *Scenario
	ing *ingest.Ingester

	channels []string
	threads  []string

	sent       int
	duplicates int
	stale      int
	spawned    int
}

func newGenerator(scn *Scenario, ing *ingest.Ingester) *generator {
	g := &generator{
		rng: rand.New(rand.NewSource(scn.Seed)),
		scn: scn,
		ing: ing,
	}
	for i := 1; i <= scn.Channels.Count; i++ {
		g.channels = append(g.channels, fmt.Sprintf("%s-%d", scn.Channels.Prefix, i))
	}
	return g
}

// tick emits one message, possibly spawning a thread for it, backdating its
// timestamp past the TTL, or redelivering it immediately afterwards.
func (g *generator) tick(ttl time.Duration) {
	now := time.Now().UnixMilli()
	author := authorTags[g.rng.Intn(len(authorTags))]
	target := g.channels[g.rng.Intn(len(g.channels))]

	if g.rng.Float64() < g.scn.Threads.SpawnRatio {
		target = g.spawnThread(target, author, now)
	} else if len(g.threads) > 0 && g.rng.Float64() < g.scn.Threads.TrafficRatio {
		target = g.threads[g.rng.Intn(len(g.threads))]
	}

	msg := store.StoredMessage{
		ID:        uuid.New().String(),
		Content:   bodies[g.rng.Intn(len(bodies))],
		AuthorTag: author,
		Timestamp: now,
	}

	if g.rng.Float64() < g.scn.Traffic.StaleRatio {
		// Backfill from before the retention window; it dies on arrival.
		msg.Timestamp = now - ttl.Milliseconds() - int64(g.rng.Intn(60_000)+1)
		g.stale++
	}

	g.ing.ObserveMessage(target, msg)
	g.sent++

	if g.rng.Float64() < g.scn.Traffic.DuplicateRatio {
		if !g.ing.ObserveMessage(target, msg) {
			g.duplicates++
		}
		g.sent++
	}
}

// spawnThread opens a forum thread under the given parent and returns its id
// so the current message lands inside it.
func (g *generator) spawnThread(parentID, author string, now int64) string {
	meta := store.ThreadMeta{
		ID:        uuid.New().String(),
		Title:     threadTitles[g.rng.Intn(len(threadTitles))],
		ParentID:  parentID,
		CreatedAt: now,
		CreatedBy: author,
	}
	g.ing.ObserveThread(meta)
	g.threads = append(g.threads, meta.ID)
	g.spawned++
	return meta.ID
}
