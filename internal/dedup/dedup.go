// Package dedup filters duplicate inbound events. Chat transports redeliver
// on flaky connections, and users double-send, so the engine suppresses
// repeats by transport message id and by (channel, text) within short
// wall-clock windows.
package dedup

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default windows. The id window covers transport redelivery; the text
// window only covers accidental double-sends, so it is much shorter.
const (
	DefaultIDTTL      = 10 * time.Second
	DefaultTextTTL    = 3 * time.Second
	DefaultSweepEvery = 30 * time.Second
)

// Gate records recently seen inbound signals and answers "already seen?".
// The inbound loop is single-threaded but the sweeper is not, so the maps
// are guarded.
type Gate struct {
	mu    sync.Mutex
	ids   map[string]time.Time
	texts map[string]time.Time

	idTTL   time.Duration
	textTTL time.Duration
	now     func() time.Time

	sweeper *cron.Cron
}

// GateOpts holds parameters for creating a Gate.
type GateOpts struct {
	IDTTL   time.Duration    // defaults to DefaultIDTTL
	TextTTL time.Duration    // defaults to DefaultTextTTL
	Now     func() time.Time // test clock; defaults to time.Now
}

// NewGate creates a Gate.
func NewGate(opts GateOpts) *Gate {
	idTTL := opts.IDTTL
	if idTTL <= 0 {
		idTTL = DefaultIDTTL
	}
	textTTL := opts.TextTTL
	if textTTL <= 0 {
		textTTL = DefaultTextTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		ids:     make(map[string]time.Time),
		texts:   make(map[string]time.Time),
		idTTL:   idTTL,
		textTTL: textTTL,
		now:     now,
	}
}

// SeenID reports whether the transport message id was already seen within
// the id window, recording it on first sight. Empty ids are never eligible.
func (g *Gate) SeenID(id string) bool {
	if id == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if first, ok := g.ids[id]; ok && now.Sub(first) < g.idTTL {
		return true
	}
	g.ids[id] = now
	return false
}

// SeenText reports whether the same text arrived on the channel within the
// text window, recording it on first sight. Purely numeric text is never
// duplicate-eligible: sending the same digit twice in a row is how users
// walk nested menu levels.
func (g *Gate) SeenText(channel, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || isNumeric(trimmed) {
		return false
	}
	key := channel + "\x00" + trimmed

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if first, ok := g.texts[key]; ok && now.Sub(first) < g.textTTL {
		return true
	}
	g.texts[key] = now
	return false
}

// Purge drops expired entries from both maps and returns how many were
// removed. Safe to call concurrently with SeenID/SeenText.
func (g *Gate) Purge() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for id, first := range g.ids {
		if now.Sub(first) >= g.idTTL {
			delete(g.ids, id)
			removed++
		}
	}
	for key, first := range g.texts {
		if now.Sub(first) >= g.textTTL {
			delete(g.texts, key)
			removed++
		}
	}
	return removed
}

// StartSweeping schedules Purge on a fixed interval, independent of message
// volume. Call StopSweeping on shutdown.
func (g *Gate) StartSweeping(every time.Duration) error {
	if g.sweeper != nil {
		return fmt.Errorf("dedup: sweeper already running")
	}
	if every <= 0 {
		every = DefaultSweepEvery
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() { g.Purge() }); err != nil {
		return fmt.Errorf("dedup: schedule sweep: %w", err)
	}
	c.Start()
	g.sweeper = c
	return nil
}

// StopSweeping stops the background sweep, if one was started.
func (g *Gate) StopSweeping() {
	if g.sweeper != nil {
		g.sweeper.Stop()
		g.sweeper = nil
	}
}

// isNumeric reports whether s consists only of ASCII digits.
func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
