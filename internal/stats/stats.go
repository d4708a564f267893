package stats

import (
	"sync"
	"time"

	"github.com/pefman/raid-odds/internal/engine"
)

// Totals counts engine usage since start-up (in-memory only).
type Totals struct {
	Rolls           int `json:"rolls"`
	Resolutions     int `json:"resolutions"`
	Outcomes        int `json:"outcomes"`
	Rounds          int `json:"rounds"`
	Simulations     int `json:"simulations"`
	SimulatedTrials int `json:"simulated_trials"`
}

// WidestResolution records the resolution that produced the most outcomes.
type WidestResolution struct {
	Tally    engine.Tally `json:"tally"`
	Outcomes int          `json:"outcomes"`
	States   int          `json:"states"`
	At       int64        `json:"at"`
}

var (
	statsMu sync.Mutex
	totals  Totals

	// Widest resolution per UTC day (YYYY-MM-DD).
	dailyMax = make(map[string]WidestResolution)

	now = time.Now
)

func RecordRoll() {
	statsMu.Lock()
	defer statsMu.Unlock()
	totals.Rolls++
}

// RecordResolution counts a resolution and updates today's widest one if
// this produced more outcomes (ties broken by states visited).
func RecordResolution(t engine.Tally, outcomes, states int) {
	statsMu.Lock()
	defer statsMu.Unlock()
	totals.Resolutions++
	totals.Outcomes += outcomes

	recordWidestLocked(WidestResolution{Tally: t, Outcomes: outcomes, States: states, At: now().Unix()})
}

func RecordRound() {
	statsMu.Lock()
	defer statsMu.Unlock()
	totals.Rounds++
}

func RecordSimulation(allocations, trials int) {
	statsMu.Lock()
	defer statsMu.Unlock()
	totals.Simulations++
	totals.SimulatedTrials += allocations * trials
}

func GetTotals() Totals {
	statsMu.Lock()
	defer statsMu.Unlock()
	return totals
}
