package engine

import "fmt"

// Allocation splits a dice budget across the three die kinds.
type Allocation struct {
	Assault  int `json:"assault"`
	Skirmish int `json:"skirmish"`
	Raid     int `json:"raid"`
}

// Dice is the number of dice the allocation rolls.
func (a Allocation) Dice() int { return a.Assault + a.Skirmish + a.Raid }

func (a Allocation) String() string {
	return fmt.Sprintf("(%d,%d,%d)", a.Assault, a.Skirmish, a.Raid)
}

// EnumerateAllocations returns every allocation rolling between 0 and
// maxDice dice, ordered by total dice, then assault, then skirmish.
func EnumerateAllocations(maxDice int) []Allocation {
	if maxDice < 0 {
		return nil
	}
	out := make([]Allocation, 0, AllocationCount(maxDice))
	for total := 0; total <= maxDice; total++ {
		for assault := 0; assault <= total; assault++ {
			for skirmish := 0; skirmish <= total-assault; skirmish++ {
				out = append(out, Allocation{
					Assault:  assault,
					Skirmish: skirmish,
					Raid:     total - assault - skirmish,
				})
			}
		}
	}
	return out
}

// AllocationCount is len(EnumerateAllocations(maxDice)).
func AllocationCount(maxDice int) int {
	if maxDice < 0 {
		return 0
	}
	n := maxDice
	return (n + 1) * (n + 2) * (n + 3) / 6
}
