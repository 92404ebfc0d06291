package metrics

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"text/tabwriter"
	"time"
)

// Collector accumulates per-process tunnel counters. One instance lives for
// the lifetime of the gateway; sessions report into it as they finish.
type Collector struct {
	mu sync.Mutex

	started time.Time

	// Session Tracking
	sessionsByProto map[string]int
	totalSessions   int

	// Relayed Volume
	bytesUp   int64
	bytesDown int64

	// Outbound Behavior
	relayFallbacks int

	// Error Tracking
	errorsByTag map[string]int
	totalErrors int
}

func New() *Collector {
	return &Collector{
		started:         time.Now(),
		sessionsByProto: make(map[string]int),
		errorsByTag:     make(map[string]int),
	}
}

// RecordSession counts one finished session and its relayed volume.
func (c *Collector) RecordSession(proto string, up, down int64, viaRelay bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionsByProto[proto]++
	c.totalSessions++
	c.bytesUp += up
	c.bytesDown += down
	if viaRelay {
		c.relayFallbacks++
	}
}

// RecordError counts one connection-fatal error by its log tag.
func (c *Collector) RecordError(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorsByTag[tag]++
	c.totalErrors++
}

// Report dumps the counters to stdout in a fixed-width table. Runs on
// shutdown; harmless to call while sessions are still live.
func (c *Collector) Report() {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\n--- GATEWAY METRICS (up %s) ---\n", time.Since(c.started).Round(time.Second))

	fmt.Fprintf(w, "Sessions:\t%d\n", c.totalSessions)
	for _, p := range sortedKeys(c.sessionsByProto) {
		fmt.Fprintf(w, "  %s:\t%d\n", p, c.sessionsByProto[p])
	}

	fmt.Fprintf(w, "Bytes uplink:\t%d\n", c.bytesUp)
	fmt.Fprintf(w, "Bytes downlink:\t%d\n", c.bytesDown)
	fmt.Fprintf(w, "Relay fallbacks:\t%d\n", c.relayFallbacks)

	fmt.Fprintf(w, "Errors:\t%d\n", c.totalErrors)
	for _, t := range sortedKeys(c.errorsByTag) {
		fmt.Fprintf(w, "  %s:\t%d\n", t, c.errorsByTag[t])
	}

	w.Flush()
	fmt.Println("")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
