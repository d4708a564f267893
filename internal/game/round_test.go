package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/raid-odds/internal/engine"
)

func TestPlayRound(t *testing.T) {
	start := Scenario{
		HealthyAttackingShips:  3,
		HealthyDefendingShips:  1,
		DamagedDefendingShips:  1,
		HealthyDefendingCities: 1,
	}
	alloc := engine.Allocation{Assault: 1, Skirmish: 1, Raid: 1}
	resolver := NewResolver(NewBuildingCache(), 0)

	for seed := int64(1); seed <= 20; seed++ {
		round, err := PlayRound(engine.NewRNG(seed), resolver, start, alloc)
		require.NoError(t, err)

		assert.Equal(t, alloc, round.Allocation)
		assert.Equal(t, replayRoll(seed, alloc), round.Tally)
		require.NotEmpty(t, round.Outcomes)
		require.Less(t, round.Chosen, len(round.Outcomes))
		assert.Equal(t, round.Outcomes[round.Chosen], round.Next)
		assert.Positive(t, round.States)

		want, err := resolver.Resolve(start, round.Tally)
		require.NoError(t, err)
		assert.Equal(t, want, round.Outcomes)
	}
}

// replayRoll repeats the roll PlayRound makes first for seed.
func replayRoll(seed int64, a engine.Allocation) engine.Tally {
	return engine.RollAllocation(engine.NewRNG(seed), a)
}

func TestPickOutcome(t *testing.T) {
	r := engine.NewRNG(5)

	_, err := PickOutcome(r, nil)
	assert.ErrorIs(t, err, ErrNoOutcome)

	outcomes := []Scenario{{KeysAvailable: 1}, {KeysAvailable: 2}, {KeysAvailable: 3}}
	counts := make([]int, len(outcomes))
	for i := 0; i < 3000; i++ {
		idx, err := PickOutcome(r, outcomes)
		require.NoError(t, err)
		counts[idx]++
	}
	for _, c := range counts {
		assert.InDelta(t, 1000, c, 150)
	}
}
