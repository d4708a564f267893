package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollZeroDiceIsEmpty(t *testing.T) {
	r := NewRNG(1)
	for _, kind := range DieKinds {
		assert.True(t, Roll(r, kind, 0).IsZero(), kind.Name)
	}
}

func TestRollOnlyProducesFaceSymbols(t *testing.T) {
	r := NewRNG(7)

	skirmish := Roll(r, SkirmishDie, 50)
	assert.Equal(t, skirmish.Get(Hit), skirmish.Total())
	assert.LessOrEqual(t, skirmish.Get(Hit), 50)

	raid := Roll(r, RaidDie, 50)
	assert.Zero(t, raid.Get(Hit))
	assert.LessOrEqual(t, raid.Get(Key), 100)
	assert.LessOrEqual(t, raid.Get(Triangle), 50)

	assault := Roll(r, AssaultDie, 50)
	assert.Zero(t, assault.Get(Key))
	assert.Zero(t, assault.Get(Triangle))
	assert.LessOrEqual(t, assault.Get(Hit), 100)
}

func TestRollIsUniformOverFaces(t *testing.T) {
	// Half the skirmish faces carry a single hit.
	r := NewRNG(42)
	const n = 60000
	hits := Roll(r, SkirmishDie, n).Get(Hit)
	assert.InDelta(t, n/2, hits, 1500)

	// Raid faces carry 2,1,1,0,0,0 keys: mean 2/3 per die.
	keys := Roll(r, RaidDie, n).Get(Key)
	assert.InDelta(t, n*2/3, keys, 1500)
}

func TestRollAllocationIsDeterministicForSeed(t *testing.T) {
	a := Allocation{Assault: 3, Skirmish: 2, Raid: 4}
	first := RollAllocation(NewRNG(99), a)
	second := RollAllocation(NewRNG(99), a)
	assert.Equal(t, first, second)
}

func TestRollAllocationSumsKinds(t *testing.T) {
	seed := int64(5)
	a := Allocation{Assault: 2, Skirmish: 1, Raid: 3}

	r := NewRNG(seed)
	want := Roll(r, AssaultDie, 2)
	want = want.Add(Roll(r, SkirmishDie, 1))
	want = want.Add(Roll(r, RaidDie, 3))

	assert.Equal(t, want, RollAllocation(NewRNG(seed), a))
}

func TestTallyString(t *testing.T) {
	var tally Tally
	tally = tally.With(Hit, 2).With(Key, 1)
	assert.Equal(t, "fire=0 intercept=0 hit=2 triangle=0 key=1", tally.String())
}

func TestTallyJSON(t *testing.T) {
	tally := Tally{1, 0, 3, 2, 4}
	b, err := json.Marshal(tally)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fire":1,"intercept":0,"hit":3,"triangle":2,"key":4}`, string(b))

	var partial Tally
	require.NoError(t, json.Unmarshal([]byte(`{"hit":2}`), &partial))
	assert.Equal(t, Tally{}.With(Hit, 2), partial)

	err = json.Unmarshal([]byte(`{"laser":1}`), &partial)
	assert.Error(t, err)
}

func TestParseSymbol(t *testing.T) {
	for _, s := range Symbols {
		got, err := ParseSymbol(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSymbol("shield")
	assert.Error(t, err)
}

func TestNewSeedVaries(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
