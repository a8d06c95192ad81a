// ABOUTME: Traffic simulator for the message store, replays synthetic channel chatter
// ABOUTME: Usage: loafsim [-config store.yaml] [-scenario scenario.toml]

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brianluft/threadloaf-sub002/internal/config"
	"github.com/brianluft/threadloaf-sub002/internal/dedupe"
	"github.com/brianluft/threadloaf-sub002/internal/ingest"
	"github.com/brianluft/threadloaf-sub002/internal/janitor"
	"github.com/brianluft/threadloaf-sub002/internal/metrics"
	"github.com/brianluft/threadloaf-sub002/internal/notify"
	"github.com/brianluft/threadloaf-sub002/internal/preview"
	"github.com/brianluft/threadloaf-sub002/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _              __     _
| | ___   __ _ / _|___(_)_ __ ___
| |/ _ \ / _' | |_/ __| | '_ ' _ \
| | (_) | (_| |  _\__ \ | | | | | |
|_|\___/ \__,_|_| |___/_|_| |_| |_|
`

func main() {
	configPath := flag.String("config", "", "store config file (YAML), defaults apply when empty")
	scenarioPath := flag.String("scenario", "", "traffic scenario file (TOML), built-in scenario when empty")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *scenarioPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, scenarioPath string) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	scn := DefaultScenario()
	if scenarioPath != "" {
		var err error
		scn, err = LoadScenario(scenarioPath)
		if err != nil {
			return fmt.Errorf("loading scenario: %w", err)
		}
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("TTL:      %s\n", cfg.Cache.MessageTTL)
	green.Print("    ▶ ")
	if cfg.Sweep.Enabled {
		fmt.Printf("Sweep:    every %s\n", cfg.Sweep.Interval)
	} else {
		fmt.Printf("Sweep:    disabled\n")
	}
	green.Print("    ▶ ")
	fmt.Printf("Dedupe:   %s window, %d entries\n", cfg.Cache.DedupeWindow, cfg.Cache.DedupeCapacity)
	green.Print("    ▶ ")
	fmt.Printf("Traffic:  every %s across %d channels\n", scn.Traffic.MessageInterval, scn.Channels.Count)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:  http://%s/metrics\n", cfg.Metrics.Addr)
	}
	fmt.Println()

	logger.Info("starting loafsim",
		"seed", scn.Seed,
		"ttl", cfg.Cache.MessageTTL,
		"channels", scn.Channels.Count,
	)

	return runSim(ctx, cfg, scn, logger)
}

func runSim(ctx context.Context, cfg *config.Config, scn *Scenario, logger *slog.Logger) error {
	st := store.New(
		store.WithTTL(cfg.Cache.MessageTTL),
		store.WithLogger(logger),
	)

	events := notify.NewBroadcaster(logger)
	defer events.Close()

	ing := ingest.New(st, dedupe.New(cfg.Cache.DedupeWindow, cfg.Cache.DedupeCapacity), events, logger)
	defer ing.Close()

	var jan *janitor.Janitor
	if cfg.Sweep.Enabled {
		jan = janitor.New(st, events, cfg.Sweep.Interval, logger)
		defer jan.Close()
	}

	if cfg.Metrics.Enabled {
		metrics.MustRegister()
		prometheus.MustRegister(metrics.NewStoreCollector(st))
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	go tailEvents(ctx, events)

	simCtx := ctx
	if scn.Traffic.Duration > 0 {
		var cancel context.CancelFunc
		simCtx, cancel = context.WithTimeout(ctx, scn.Traffic.Duration)
		defer cancel()
	}

	gen := newGenerator(scn, ing)

	ticker := time.NewTicker(scn.Traffic.MessageInterval)
	defer ticker.Stop()

	for {
		select {
		case <-simCtx.Done():
			if jan != nil {
				// Last sweep so the summary reflects a settled store.
				jan.Sweep()
			}
			printSummary(st, gen)
			return nil
		case <-ticker.C:
			gen.tick(cfg.Cache.MessageTTL)
		}
	}
}

// tailEvents prints one line per store event until the subscription channel
// closes, either on ctx cancellation or broadcaster shutdown.
func tailEvents(ctx context.Context, events *notify.Broadcaster) {
	ch, _ := events.Subscribe(ctx, notify.TopicAll)

	msgTag := color.CyanString("    msg")
	threadTag := color.GreenString(" thread")
	pruneTag := color.YellowString("  prune")
	reclaimTag := color.New(color.FgRed).Sprint("reclaim")

	for ev := range ch {
		switch ev.Type {
		case notify.EventMessageAdded:
			fmt.Printf("%s %s <%s> %s\n",
				msgTag,
				color.HiBlackString(shortID(ev.ChannelID)),
				ev.Message.AuthorTag,
				preview.Snippet(ev.Message.Content, 72))
		case notify.EventThreadAdded:
			fmt.Printf("%s %s %q by %s\n",
				threadTag,
				color.HiBlackString(shortID(ev.Thread.ParentID)),
				ev.Thread.Title,
				ev.Thread.CreatedBy)
		case notify.EventChannelPruned:
			fmt.Printf("%s %s drained\n", pruneTag, color.HiBlackString(shortID(ev.ChannelID)))
		case notify.EventThreadReclaimed:
			fmt.Printf("%s %s removed\n", reclaimTag, color.HiBlackString(shortID(ev.ChannelID)))
		}
	}
}

// shortID trims generated uuids down to a readable prefix. Scenario channel
// names pass through untouched.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:8]
	}
	return id
}

func printSummary(st *store.Store, gen *generator) {
	stats := st.Stats()
	green := color.New(color.FgGreen)

	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("Delivered: %d messages, %d duplicates dropped, %d stale on arrival\n",
		gen.sent, gen.duplicates, gen.stale)
	green.Print("    ▶ ")
	fmt.Printf("Live:      %d messages across %d channels\n", stats.Messages, stats.Channels)
	green.Print("    ▶ ")
	fmt.Printf("Threads:   %d spawned, %d live, %d reclaimed\n",
		gen.spawned, stats.Threads, stats.ReclaimedThreads)
	green.Print("    ▶ ")
	fmt.Printf("Expired:   %d messages\n", stats.ExpiredMessages)
}

// serveMetrics exposes the Prometheus scrape endpoint. Failures are logged
// rather than fatal so a port clash cannot kill a running simulation.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
