package game

import (
	"errors"
	"fmt"

	"github.com/pefman/raid-odds/internal/engine"
)

// ErrStateLimit indicates a resolution explored more partial states than
// the resolver allows.
var ErrStateLimit = errors.New("resolution exceeded state limit")

// DefaultMaxStates bounds a resolution when no limit is configured.
const DefaultMaxStates = 200000

// Resolver expands a rolled tally into every distinct battlefield state it
// can produce.
//
// Symbols resolve in priority order: fire, intercept, hit, triangle, key.
//   - Fire damages one attacking ship per symbol.
//   - Intercept triggers at most once per roll: if any was rolled, the
//     attacker takes one fire-like hit per healthy defending ship.
//   - Hit damages one defending ship per symbol. Once the defending fleet is
//     gone, remaining hits and triangles go to buildings together.
//   - Triangle damages buildings directly.
//   - Key is credited to the attacker only if some attacking ship survives.
//
// Destroying a ship credits the opposing side with a trophy; reducing a
// building credits the attacker; destroying a city provokes an outrage.
type Resolver struct {
	// Cache memoises building damage. Nil gives each Resolve call its own.
	Cache *BuildingCache
	// MaxStates caps the distinct partial states explored per call. Zero
	// disables the cap.
	MaxStates int
}

// NewResolver returns a resolver sharing cache across calls.
func NewResolver(cache *BuildingCache, maxStates int) *Resolver {
	return &Resolver{Cache: cache, MaxStates: maxStates}
}

// branch is a partial resolution: the battlefield so far and the symbols
// still to apply.
type branch struct {
	scenario  Scenario
	remaining engine.Tally
}

// Resolution is the outcome of Resolve with search bookkeeping.
type Resolution struct {
	Outcomes []Scenario
	// States is the number of distinct partial states visited.
	States int
}

// Resolve returns every distinct scenario reachable by applying t to s, in
// breadth-first discovery order. s is never modified.
func (r *Resolver) Resolve(s Scenario, t engine.Tally) ([]Scenario, error) {
	res, err := r.ResolveDetailed(s, t)
	if err != nil {
		return nil, err
	}
	return res.Outcomes, nil
}

// ResolveDetailed is Resolve, also reporting how many states were visited.
func (r *Resolver) ResolveDetailed(s Scenario, t engine.Tally) (Resolution, error) {
	cache := r.Cache
	if cache == nil {
		cache = NewBuildingCache()
	}

	start := branch{scenario: s, remaining: t}
	seen := map[branch]struct{}{start: {}}
	finals := make(map[Scenario]struct{})
	var outcomes []Scenario

	queue := []branch{start}
	for head := 0; head < len(queue); head++ {
		// Drop the consumed prefix once it dominates the queue.
		if head > 1024 && head*2 > len(queue) {
			n := copy(queue, queue[head:])
			clear(queue[n:])
			queue = queue[:n]
			head = 0
		}
		b := queue[head]

		if b.remaining.IsZero() {
			if _, dup := finals[b.scenario]; !dup {
				finals[b.scenario] = struct{}{}
				outcomes = append(outcomes, b.scenario)
			}
			continue
		}

		nexts, err := step(b, cache, r.MaxStates)
		if err != nil {
			return Resolution{}, err
		}
		for _, next := range nexts {
			if _, dup := seen[next]; dup {
				continue
			}
			if r.MaxStates > 0 && len(seen) >= r.MaxStates {
				return Resolution{}, fmt.Errorf("%w: more than %d states", ErrStateLimit, r.MaxStates)
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return Resolution{Outcomes: outcomes, States: len(seen)}, nil
}

// step applies one symbol of the highest-priority kind left in b and
// returns every resulting branch. limit bounds building damage results.
func step(b branch, cache *BuildingCache, limit int) ([]branch, error) {
	rem := b.remaining
	s := b.scenario

	switch {
	case rem.Get(engine.Fire) > 0:
		return damageAttacker(s, rem), nil

	case rem.Get(engine.Intercept) > 0:
		rem = rem.With(engine.Intercept, 0)
		rem = rem.With(engine.Fire, rem.Get(engine.Fire)+s.HealthyDefendingShips)
		return []branch{{scenario: s, remaining: rem}}, nil

	case rem.Get(engine.Hit) > 0:
		if s.DefendingShips() > 0 {
			return damageDefender(s, rem), nil
		}
		spill := rem.Get(engine.Hit) + rem.Get(engine.Triangle)
		rem = rem.With(engine.Hit, 0).With(engine.Triangle, 0)
		return damageBuildings(s, rem, spill, cache, limit)

	case rem.Get(engine.Triangle) > 0:
		spill := rem.Get(engine.Triangle)
		return damageBuildings(s, rem.With(engine.Triangle, 0), spill, cache, limit)

	default:
		if s.AttackingShips() > 0 {
			s.KeysAvailable += rem.Get(engine.Key)
		}
		return []branch{{scenario: s, remaining: rem.With(engine.Key, 0)}}, nil
	}
}

func damageAttacker(s Scenario, rem engine.Tally) []branch {
	if s.AttackingShips() == 0 {
		return []branch{{scenario: s, remaining: rem.With(engine.Fire, 0)}}
	}
	rem = rem.With(engine.Fire, rem.Get(engine.Fire)-1)

	out := make([]branch, 0, 2)
	if s.HealthyAttackingShips > 0 {
		n := s
		n.HealthyAttackingShips--
		n.DamagedAttackingShips++
		out = append(out, branch{scenario: n, remaining: rem})
	}
	if s.DamagedAttackingShips > 0 {
		n := s
		n.DamagedAttackingShips--
		n.DefenderTrophies++
		out = append(out, branch{scenario: n, remaining: rem})
	}
	return out
}

func damageDefender(s Scenario, rem engine.Tally) []branch {
	rem = rem.With(engine.Hit, rem.Get(engine.Hit)-1)

	out := make([]branch, 0, 2)
	if s.HealthyDefendingShips > 0 {
		n := s
		n.HealthyDefendingShips--
		n.DamagedDefendingShips++
		out = append(out, branch{scenario: n, remaining: rem})
	}
	if s.DamagedDefendingShips > 0 {
		n := s
		n.DamagedDefendingShips--
		n.AttackerTrophies++
		out = append(out, branch{scenario: n, remaining: rem})
	}
	return out
}

func damageBuildings(s Scenario, rem engine.Tally, hits int, cache *BuildingCache, limit int) ([]branch, error) {
	results, err := cache.lookup(hits, s.Buildings(), limit)
	if err != nil {
		return nil, err
	}
	out := make([]branch, 0, len(results))
	for _, res := range results {
		n := s.withBuildings(res.Inventory)
		n.OutragesProvoked += res.Outrages
		n.AttackerTrophies += res.Trophies
		out = append(out, branch{scenario: n, remaining: rem})
	}
	return out, nil
}
