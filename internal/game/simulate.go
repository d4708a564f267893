package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/pefman/raid-odds/internal/engine"
)

// ErrInvalidTrials indicates a simulation asked for fewer than one trial.
var ErrInvalidTrials = errors.New("trials must be positive")

// TallyFrequency is how often one distinct tally came up.
type TallyFrequency struct {
	Tally engine.Tally `json:"tally"`
	Count int          `json:"count"`
}

// AllocationOdds is the empirical distribution of tallies for one
// allocation. Outcomes are listed in the order they were first rolled.
type AllocationOdds struct {
	Allocation  engine.Allocation         `json:"allocation"`
	Trials      int                       `json:"trials"`
	Outcomes    []TallyFrequency          `json:"outcomes"`
	MeanSymbols map[engine.Symbol]float64 `json:"meanSymbols"`

	index map[engine.Tally]int
}

func newAllocationOdds(a engine.Allocation) *AllocationOdds {
	return &AllocationOdds{Allocation: a, index: make(map[engine.Tally]int)}
}

func (o *AllocationOdds) record(t engine.Tally) {
	o.Trials++
	if i, ok := o.index[t]; ok {
		o.Outcomes[i].Count++
		return
	}
	o.index[t] = len(o.Outcomes)
	o.Outcomes = append(o.Outcomes, TallyFrequency{Tally: t, Count: 1})
}

func (o *AllocationOdds) finish() {
	var sums [engine.SymbolCount]int
	for _, f := range o.Outcomes {
		for _, sym := range engine.Symbols {
			sums[sym] += f.Tally.Get(sym) * f.Count
		}
	}
	o.MeanSymbols = make(map[engine.Symbol]float64, engine.SymbolCount)
	for _, sym := range engine.Symbols {
		if o.Trials > 0 {
			o.MeanSymbols[sym] = float64(sums[sym]) / float64(o.Trials)
		}
	}
}

// Count returns how many trials rolled t.
func (o *AllocationOdds) Count(t engine.Tally) int {
	if i, ok := o.lookup(t); ok {
		return o.Outcomes[i].Count
	}
	return 0
}

// Probability is the observed frequency of t.
func (o *AllocationOdds) Probability(t engine.Tally) float64 {
	if o.Trials == 0 {
		return 0
	}
	return float64(o.Count(t)) / float64(o.Trials)
}

func (o *AllocationOdds) lookup(t engine.Tally) (int, bool) {
	if o.index == nil {
		// Reports decoded from JSON have no index.
		o.index = make(map[engine.Tally]int, len(o.Outcomes))
		for i, f := range o.Outcomes {
			o.index[f.Tally] = i
		}
	}
	i, ok := o.index[t]
	return i, ok
}

// Selector returns a weighted selector over Outcomes, weighted by count.
func (o *AllocationOdds) Selector() *engine.WeightedSelector {
	sel := engine.NewWeightedSelector()
	for _, f := range o.Outcomes {
		// Counts are never negative.
		_, _ = sel.AddWeight(int64(f.Count))
	}
	return sel
}

// SampleTally draws a tally from the empirical distribution.
func (o *AllocationOdds) SampleTally(r *rand.Rand) (engine.Tally, error) {
	i, err := o.Selector().Sample(r)
	if err != nil {
		return engine.Tally{}, fmt.Errorf("sample %v: %w", o.Allocation, err)
	}
	return o.Outcomes[i].Tally, nil
}

// SimulationReport holds the empirical tally distribution of every
// allocation within a scenario's dice budget.
type SimulationReport struct {
	Scenario    Scenario          `json:"scenario"`
	Trials      int               `json:"trials"`
	DiceBudget  int               `json:"diceBudget"`
	Allocations []*AllocationOdds `json:"allocations"`
}

// Odds returns the distribution for a, if it was simulated.
func (r *SimulationReport) Odds(a engine.Allocation) (*AllocationOdds, bool) {
	for _, o := range r.Allocations {
		if o.Allocation == a {
			return o, true
		}
	}
	return nil, false
}

// SimulateOptions tunes Simulate.
type SimulateOptions struct {
	// Workers bounds how many allocations are rolled at once; <1 means 1.
	Workers int
	// Seed fixes the dice; 0 seeds from the clock.
	Seed int64
}

// Simulate rolls every allocation within s's dice budget trials times and
// tallies how often each distinct symbol tally occurs. Results for a given
// non-zero Seed do not depend on Workers.
func Simulate(ctx context.Context, s Scenario, trials int, opts SimulateOptions) (*SimulationReport, error) {
	if trials < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrials, trials)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	allocs := engine.EnumerateAllocations(s.DiceBudget())
	base := engine.NewRNG(opts.Seed)
	seeds := make([]int64, len(allocs))
	for i := range seeds {
		seeds[i] = base.Int63()
	}

	odds := make([]*AllocationOdds, len(allocs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, a := range allocs {
		g.Go(func() error {
			r := rand.New(rand.NewSource(seeds[i]))
			o := newAllocationOdds(a)
			for n := 0; n < trials; n++ {
				if n%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				o.record(engine.RollAllocation(r, a))
			}
			o.finish()
			odds[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	return &SimulationReport{
		Scenario:    s,
		Trials:      trials,
		DiceBudget:  s.DiceBudget(),
		Allocations: odds,
	}, nil
}
