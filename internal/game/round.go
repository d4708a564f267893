package game

import (
	"errors"
	"math/rand"

	"github.com/pefman/raid-odds/internal/engine"
)

// ErrNoOutcome indicates there was no successor scenario to choose from.
var ErrNoOutcome = errors.New("no outcome to choose from")

// Round is one played combat round: the roll, every successor it allows
// and the one picked to continue with.
type Round struct {
	Allocation engine.Allocation `json:"allocation"`
	Tally      engine.Tally      `json:"tally"`
	Outcomes   []Scenario        `json:"outcomes"`
	Chosen     int               `json:"chosen"`
	Next       Scenario          `json:"next"`
	States     int               `json:"states"`
}

// PlayRound rolls a, resolves the tally against s and picks one successor
// uniformly at random.
func PlayRound(r *rand.Rand, res *Resolver, s Scenario, a engine.Allocation) (Round, error) {
	tally := engine.RollAllocation(r, a)
	detail, err := res.ResolveDetailed(s, tally)
	if err != nil {
		return Round{}, err
	}
	chosen, err := PickOutcome(r, detail.Outcomes)
	if err != nil {
		return Round{}, err
	}
	return Round{
		Allocation: a,
		Tally:      tally,
		Outcomes:   detail.Outcomes,
		Chosen:     chosen,
		Next:       detail.Outcomes[chosen],
		States:     detail.States,
	}, nil
}

// PickOutcome chooses one of outcomes with equal probability and returns
// its index.
func PickOutcome(r *rand.Rand, outcomes []Scenario) (int, error) {
	sel := engine.NewWeightedSelector()
	for range outcomes {
		if _, err := sel.AddWeight(1); err != nil {
			return 0, err
		}
	}
	i, err := sel.Sample(r)
	if errors.Is(err, engine.ErrEmptySelector) {
		return 0, ErrNoOutcome
	}
	return i, err
}
