package entropy

// #region imports
import (
	"fmt"
	"sync"
)

// #endregion

// #region metrics

// Metrics is an aggregate view of zone routing since the last reset.
type Metrics struct {
	ActiveCount    int     `json:"active_count"`
	PatternCount   int     `json:"pattern_count"`
	CrystalCount   int     `json:"crystal_count"`
	AvgEntropy     float64 `json:"avg_entropy"`
	LastTransition string  `json:"last_transition,omitempty"`
}

// #endregion

// #region tracker

// Tracker accumulates zone counts and a running entropy average.
// Safe for concurrent use.
type Tracker struct {
	mu             sync.Mutex
	counts         map[Zone]int
	totalEntropy   float64
	totalItems     int
	lastTransition string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{counts: make(map[Zone]int)}
}

// #endregion

// #region route

// Route classifies text, records the result, and returns the zone and entropy.
func (t *Tracker) Route(text string) (Zone, float64) {
	zone, e := Classify(text)
	t.mu.Lock()
	t.counts[zone]++
	t.totalEntropy += e
	t.totalItems++
	t.mu.Unlock()
	return zone, e
}

// RecordTransition notes a zone transition for the metrics payload.
func (t *Tracker) RecordTransition(from, to Zone) {
	t.mu.Lock()
	t.lastTransition = fmt.Sprintf("%s->%s", from, to)
	t.mu.Unlock()
}

// #endregion

// #region metrics-read

// Metrics returns the current aggregate counts.
func (t *Tracker) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	avg := 0.0
	if t.totalItems > 0 {
		avg = t.totalEntropy / float64(t.totalItems)
	}
	return Metrics{
		ActiveCount:    t.counts[ZoneActive],
		PatternCount:   t.counts[ZonePattern],
		CrystalCount:   t.counts[ZoneCrystal],
		AvgEntropy:     avg,
		LastTransition: t.lastTransition,
	}
}

// Distribution returns per-zone percentages of all routed items.
func (t *Tracker) Distribution() map[Zone]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, c := range t.counts {
		total += c
	}
	if total == 0 {
		total = 1
	}
	out := make(map[Zone]float64, len(t.counts))
	for zone, c := range t.counts {
		out[zone] = float64(c) / float64(total) * 100
	}
	return out
}

// Reset clears all counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.counts = make(map[Zone]int)
	t.totalEntropy = 0
	t.totalItems = 0
	t.lastTransition = ""
	t.mu.Unlock()
}

// #endregion
