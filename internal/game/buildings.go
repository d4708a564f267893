package game

import (
	"fmt"
	"sync"
)

// Inventory counts the defender's buildings by category and health.
type Inventory struct {
	HealthyCities     int `json:"healthyCities"`
	DamagedCities     int `json:"damagedCities"`
	HealthySpaceports int `json:"healthySpaceports"`
	DamagedSpaceports int `json:"damagedSpaceports"`
}

// Cities counts surviving cities.
func (i Inventory) Cities() int { return i.HealthyCities + i.DamagedCities }

// Spaceports counts surviving spaceports.
func (i Inventory) Spaceports() int { return i.HealthySpaceports + i.DamagedSpaceports }

// HitPoints is the number of hits needed to destroy every building.
func (i Inventory) HitPoints() int {
	return 2*i.HealthyCities + i.DamagedCities + 2*i.HealthySpaceports + i.DamagedSpaceports
}

// BuildingDamageResult is one final state reachable by spending a hit
// budget on buildings.
type BuildingDamageResult struct {
	Inventory Inventory `json:"inventory"`
	// Outrages counts cities destroyed.
	Outrages int `json:"outrages"`
	// Trophies counts buildings reduced by at least one step.
	Trophies int `json:"trophies"`
}

type buildingKey struct {
	hits int
	inv  Inventory
}

// BuildingCache memoises building damage results by (hits, inventory).
// It is safe for concurrent use; its lifetime is whatever its owner's is.
type BuildingCache struct {
	mu      sync.Mutex
	results map[buildingKey][]BuildingDamageResult
	hits    int
	misses  int
}

// NewBuildingCache returns an empty cache.
func NewBuildingCache() *BuildingCache {
	return &BuildingCache{results: make(map[buildingKey][]BuildingDamageResult)}
}

// BuildingDamage returns every distinct way hits can damage or destroy the
// buildings in inv. The returned slice belongs to the caller.
func (c *BuildingCache) BuildingDamage(hits int, inv Inventory) []BuildingDamageResult {
	// Without a limit the solver cannot fail.
	shared, _ := c.lookup(hits, inv, 0)
	out := make([]BuildingDamageResult, len(shared))
	copy(out, shared)
	return out
}

// lookup returns the cached slice itself; callers must not modify it.
// A positive limit fails with ErrStateLimit when there are more results;
// over-limit solves are not cached.
func (c *BuildingCache) lookup(hits int, inv Inventory, limit int) ([]BuildingDamageResult, error) {
	key := buildingKey{hits: hits, inv: inv}
	c.mu.Lock()
	if res, ok := c.results[key]; ok {
		c.hits++
		c.mu.Unlock()
		if limit > 0 && len(res) > limit {
			return nil, fmt.Errorf("%w: building damage has %d results, limit %d", ErrStateLimit, len(res), limit)
		}
		return res, nil
	}
	c.misses++
	c.mu.Unlock()

	res, err := solveBuildingDamage(hits, inv, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.results == nil {
		c.results = make(map[buildingKey][]BuildingDamageResult)
	}
	c.results[key] = res
	c.mu.Unlock()
	return res, nil
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Stats returns the current entry count and hit/miss counters.
func (c *BuildingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.results), Hits: c.hits, Misses: c.misses}
}

// Reset drops every cached entry.
func (c *BuildingCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[buildingKey][]BuildingDamageResult)
	c.hits, c.misses = 0, 0
}

func solveBuildingDamage(hits int, inv Inventory, limit int) ([]BuildingDamageResult, error) {
	if hits <= 0 {
		return []BuildingDamageResult{{Inventory: inv}}, nil
	}
	if hits >= inv.HitPoints() {
		return []BuildingDamageResult{{
			Outrages: inv.Cities(),
			Trophies: inv.Cities() + inv.Spaceports(),
		}}, nil
	}

	var out []BuildingDamageResult
	full := false
	eachCategoryState(inv.HealthyCities, inv.DamagedCities, 0, hits, func(c categoryState) bool {
		rest := hits - c.cost
		eachCategoryState(inv.HealthySpaceports, inv.DamagedSpaceports, rest, rest, func(p categoryState) bool {
			if limit > 0 && len(out) >= limit {
				full = true
				return false
			}
			out = append(out, BuildingDamageResult{
				Inventory: Inventory{
					HealthyCities:     c.healthy,
					DamagedCities:     c.damaged,
					HealthySpaceports: p.healthy,
					DamagedSpaceports: p.damaged,
				},
				Outrages: inv.Cities() - (c.healthy + c.damaged),
				Trophies: c.reduced + p.reduced,
			})
			return true
		})
		return !full
	})
	if full {
		return nil, fmt.Errorf("%w: building damage exceeds %d results", ErrStateLimit, limit)
	}
	return out, nil
}

// categoryState is a surviving (healthy, damaged) pair for one building
// category, with the hit points it took to reach it.
type categoryState struct {
	healthy int
	damaged int
	cost    int
	reduced int
}

// eachCategoryState visits the surviving states of a category that starts
// with h healthy and d damaged buildings and costs between minCost and
// maxCost hit points, stopping early when fn returns false. Damaged
// survivors may include healthy buildings that took a single hit;
// surviving damaged buildings are counted as the originally damaged ones
// first when deciding how many buildings were reduced.
//
// Losing k healthy buildings costs at least k, so only k <= maxCost is
// visited and the work is bounded by the hit budget, not the inventory.
func eachCategoryState(h, d, minCost, maxCost int, fn func(categoryState) bool) {
	for k := 0; k <= min(h, maxCost); k++ {
		// cost = 2k + d - dd
		hi := min(d+k, d+2*k-minCost)
		lo := max(0, d+2*k-maxCost)
		for dd := hi; dd >= lo; dd-- {
			ok := fn(categoryState{
				healthy: h - k,
				damaged: dd,
				cost:    2*k + d - dd,
				reduced: k + max(0, d-dd),
			})
			if !ok {
				return
			}
		}
	}
}
