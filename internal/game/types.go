package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pefman/raid-odds/internal/engine"
)

var (
	// ErrInvalidScenario indicates a scenario with a count out of range.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrInvalidTally indicates a tally with a symbol count out of range.
	ErrInvalidTally = errors.New("invalid tally")
	// ErrInvalidAllocation indicates an allocation with a negative dice count
	// or more dice than the attacker has ships.
	ErrInvalidAllocation = errors.New("invalid allocation")
)

// MaxCount bounds every count Validate and ValidateTally accept, keeping
// building damage enumeration for one request small.
const MaxCount = 1000

// Goal is the attacker's stated intent for the round. The engine carries it
// through resolution untouched.
type Goal int

const (
	GoalCompleteDestruction Goal = iota
	GoalLossMinimization
	GoalKeyMaximization
)

var goalNames = [...]string{"complete destruction", "loss minimization", "key maximization"}

func (g Goal) String() string {
	if g < 0 || int(g) >= len(goalNames) {
		return fmt.Sprintf("Goal(%d)", int(g))
	}
	return goalNames[g]
}

func (g Goal) MarshalText() ([]byte, error) {
	if g < 0 || int(g) >= len(goalNames) {
		return nil, fmt.Errorf("unknown goal %d", int(g))
	}
	return []byte(goalNames[g]), nil
}

func (g *Goal) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	if name == "" {
		*g = GoalCompleteDestruction
		return nil
	}
	for i, n := range goalNames {
		if n == name {
			*g = Goal(i)
			return nil
		}
	}
	return fmt.Errorf("unknown goal %q", name)
}

// Scenario is a battlefield snapshot. Healthy pieces have two hit points,
// damaged pieces one. It is a comparable value type; copies never share state.
type Scenario struct {
	HealthyAttackingShips      int  `json:"healthyAttackingShips"`
	DamagedAttackingShips      int  `json:"damagedAttackingShips"`
	HealthyDefendingShips      int  `json:"healthyDefendingShips"`
	DamagedDefendingShips      int  `json:"damagedDefendingShips"`
	HealthyDefendingCities     int  `json:"healthyDefendingCities"`
	DamagedDefendingCities     int  `json:"damagedDefendingCities"`
	HealthyDefendingSpaceports int  `json:"healthyDefendingSpaceports"`
	DamagedDefendingSpaceports int  `json:"damagedDefendingSpaceports"`
	AttackerActionPips         int  `json:"attackerActionPips"`
	Goal                       Goal `json:"goal"`

	// Accumulated while resolving.
	KeysAvailable    int `json:"keysAvailable"`
	OutragesProvoked int `json:"outragesProvoked"`
	AttackerTrophies int `json:"attackerTrophies"`
	DefenderTrophies int `json:"defenderTrophies"`
}

// AttackingShips counts surviving attacker ships.
func (s Scenario) AttackingShips() int { return s.HealthyAttackingShips + s.DamagedAttackingShips }

// DefendingShips counts surviving defender ships.
func (s Scenario) DefendingShips() int { return s.HealthyDefendingShips + s.DamagedDefendingShips }

// DefendingFleetHitPoints is the number of hits the defending fleet absorbs
// before it is gone.
func (s Scenario) DefendingFleetHitPoints() int {
	return 2*s.HealthyDefendingShips + s.DamagedDefendingShips
}

// DiceBudget is the most dice the attacker may roll: one per surviving ship.
func (s Scenario) DiceBudget() int { return s.AttackingShips() }

// Buildings returns the defender's building inventory.
func (s Scenario) Buildings() Inventory {
	return Inventory{
		HealthyCities:     s.HealthyDefendingCities,
		DamagedCities:     s.DamagedDefendingCities,
		HealthySpaceports: s.HealthyDefendingSpaceports,
		DamagedSpaceports: s.DamagedDefendingSpaceports,
	}
}

// withBuildings returns a copy of s carrying inv as its buildings.
func (s Scenario) withBuildings(inv Inventory) Scenario {
	s.HealthyDefendingCities = inv.HealthyCities
	s.DamagedDefendingCities = inv.DamagedCities
	s.HealthyDefendingSpaceports = inv.HealthySpaceports
	s.DamagedDefendingSpaceports = inv.DamagedSpaceports
	return s
}

// Validate reports the first count in s that is negative or above MaxCount.
func (s Scenario) Validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"healthyAttackingShips", s.HealthyAttackingShips},
		{"damagedAttackingShips", s.DamagedAttackingShips},
		{"healthyDefendingShips", s.HealthyDefendingShips},
		{"damagedDefendingShips", s.DamagedDefendingShips},
		{"healthyDefendingCities", s.HealthyDefendingCities},
		{"damagedDefendingCities", s.DamagedDefendingCities},
		{"healthyDefendingSpaceports", s.HealthyDefendingSpaceports},
		{"damagedDefendingSpaceports", s.DamagedDefendingSpaceports},
		{"attackerActionPips", s.AttackerActionPips},
		{"keysAvailable", s.KeysAvailable},
		{"outragesProvoked", s.OutragesProvoked},
		{"attackerTrophies", s.AttackerTrophies},
		{"defenderTrophies", s.DefenderTrophies},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > MaxCount {
			return fmt.Errorf("%w: %s is %d, want 0..%d", ErrInvalidScenario, f.name, f.v, MaxCount)
		}
	}
	if s.Goal < 0 || int(s.Goal) >= len(goalNames) {
		return fmt.Errorf("%w: goal %d", ErrInvalidScenario, int(s.Goal))
	}
	return nil
}

// ValidateTally reports the first symbol count in t that is negative or
// above MaxCount.
func ValidateTally(t engine.Tally) error {
	for _, sym := range engine.Symbols {
		if n := t.Get(sym); n < 0 || n > MaxCount {
			return fmt.Errorf("%w: %s is %d, want 0..%d", ErrInvalidTally, sym, n, MaxCount)
		}
	}
	return nil
}

// ValidateAllocation checks a is non-negative and fits within the dice
// budget of s.
func ValidateAllocation(s Scenario, a engine.Allocation) error {
	if a.Assault < 0 || a.Skirmish < 0 || a.Raid < 0 {
		return fmt.Errorf("%w: negative dice in %v", ErrInvalidAllocation, a)
	}
	if a.Dice() > s.DiceBudget() {
		return fmt.Errorf("%w: %d dice exceeds budget of %d", ErrInvalidAllocation, a.Dice(), s.DiceBudget())
	}
	return nil
}
