package game

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/raid-odds/internal/engine"
)

func TestSimulateCoversEveryAllocation(t *testing.T) {
	s := Scenario{HealthyAttackingShips: 1, DamagedAttackingShips: 1}
	report, err := Simulate(context.Background(), s, 500, SimulateOptions{Workers: 3, Seed: 8})
	require.NoError(t, err)

	assert.Equal(t, 2, report.DiceBudget)
	assert.Equal(t, 500, report.Trials)
	require.Len(t, report.Allocations, engine.AllocationCount(2))

	for i, a := range engine.EnumerateAllocations(2) {
		odds := report.Allocations[i]
		assert.Equal(t, a, odds.Allocation)
		assert.Equal(t, 500, odds.Trials)

		total := 0
		seen := make(map[engine.Tally]bool)
		for _, f := range odds.Outcomes {
			assert.False(t, seen[f.Tally], "tally listed twice: %v", f.Tally)
			seen[f.Tally] = true
			assert.Positive(t, f.Count)
			total += f.Count
		}
		assert.Equal(t, 500, total)
	}

	none, ok := report.Odds(engine.Allocation{})
	require.True(t, ok)
	assert.Equal(t, []TallyFrequency{{Count: 500}}, none.Outcomes)
	assert.Equal(t, 1.0, none.Probability(engine.Tally{}))
}

func TestSimulateSeedIndependentOfWorkers(t *testing.T) {
	s := Scenario{HealthyAttackingShips: 3}
	one, err := Simulate(context.Background(), s, 200, SimulateOptions{Workers: 1, Seed: 21})
	require.NoError(t, err)
	many, err := Simulate(context.Background(), s, 200, SimulateOptions{Workers: 8, Seed: 21})
	require.NoError(t, err)

	for i := range one.Allocations {
		assert.Equal(t, one.Allocations[i].Outcomes, many.Allocations[i].Outcomes)
	}
}

func TestSimulateMeans(t *testing.T) {
	s := Scenario{HealthyAttackingShips: 1}
	report, err := Simulate(context.Background(), s, 30000, SimulateOptions{Seed: 4})
	require.NoError(t, err)

	skirmish, ok := report.Odds(engine.Allocation{Skirmish: 1})
	require.True(t, ok)
	assert.InDelta(t, 0.5, skirmish.MeanSymbols[engine.Hit], 0.03)
	assert.Zero(t, skirmish.MeanSymbols[engine.Key])
	assert.InDelta(t, 0.5, skirmish.Probability(engine.Tally{}.With(engine.Hit, 1)), 0.03)

	raid, ok := report.Odds(engine.Allocation{Raid: 1})
	require.True(t, ok)
	assert.InDelta(t, 2.0/3, raid.MeanSymbols[engine.Key], 0.03)
	assert.Len(t, raid.Outcomes, 5)
}

func TestSimulateRejectsTrials(t *testing.T) {
	for _, trials := range []int{0, -3} {
		_, err := Simulate(context.Background(), Scenario{HealthyAttackingShips: 1}, trials, SimulateOptions{})
		assert.ErrorIs(t, err, ErrInvalidTrials)
	}
}

func TestSimulateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, Scenario{HealthyAttackingShips: 2}, 10, SimulateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAllocationOddsSampleTally(t *testing.T) {
	odds := newAllocationOdds(engine.Allocation{Skirmish: 1})
	hit := engine.Tally{}.With(engine.Hit, 1)
	for i := 0; i < 3; i++ {
		odds.record(hit)
	}
	odds.record(engine.Tally{})
	odds.finish()

	assert.Equal(t, []int64{3, 1}, odds.Selector().Weights())

	r := engine.NewRNG(2)
	hits := 0
	for i := 0; i < 4000; i++ {
		got, err := odds.SampleTally(r)
		require.NoError(t, err)
		if got == hit {
			hits++
		}
	}
	assert.InDelta(t, 3000, hits, 200)

	_, err := newAllocationOdds(engine.Allocation{}).SampleTally(r)
	assert.ErrorIs(t, err, engine.ErrEmptySelector)
}

func TestAllocationOddsDecodedFromJSON(t *testing.T) {
	odds := newAllocationOdds(engine.Allocation{Raid: 1})
	odds.record(engine.Tally{}.With(engine.Intercept, 1))
	odds.record(engine.Tally{}.With(engine.Intercept, 1))
	odds.finish()

	b, err := json.Marshal(odds)
	require.NoError(t, err)

	var decoded AllocationOdds
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, 2, decoded.Count(engine.Tally{}.With(engine.Intercept, 1)))
	assert.Equal(t, 1.0, decoded.MeanSymbols[engine.Intercept])
}
