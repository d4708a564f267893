package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pefman/raid-odds/internal/engine"
	"github.com/pefman/raid-odds/internal/game"
	"github.com/pefman/raid-odds/internal/models"
	"github.com/pefman/raid-odds/internal/stats"
)

func engineSeed() (int64, error) { return engine.NewSeed() }

// rng picks the request's seed: the configured one, then the caller's, then
// a fresh random one.
func (s *server) rng(requested int64) (*rand.Rand, int64, error) {
	seed := s.cfg.RNGSeed
	if seed == 0 {
		seed = requested
	}
	if seed == 0 {
		var err error
		if seed, err = s.seedFunc(); err != nil {
			return nil, 0, err
		}
	}
	return rand.New(rand.NewSource(seed)), seed, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// GET /api/dice
func (s *server) handleDice(w http.ResponseWriter, r *http.Request) {
	out := make([]models.DieInfo, 0, len(engine.DieKinds))
	for _, kind := range engine.DieKinds {
		info := models.DieInfo{Name: kind.Name}
		for _, face := range kind.Faces {
			info.Faces = append(info.Faces, append([]engine.Symbol{}, face...))
		}
		out = append(out, info)
	}
	writeJSON(w, out)
}

// GET /api/allocations/{dice}
func (s *server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["dice"])
	if err != nil || n > maxDiceBudget {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("dice must be between 0 and %d", maxDiceBudget))
		return
	}
	writeJSON(w, models.AllocationsResponse{MaxDice: n, Allocations: engine.EnumerateAllocations(n)})
}

// POST /api/roll
func (s *server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req models.RollRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a := req.Allocation
	if a.Assault < 0 || a.Skirmish < 0 || a.Raid < 0 || a.Dice() > maxDiceBudget {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: dice must be non-negative and at most %d", game.ErrInvalidAllocation, maxDiceBudget))
		return
	}
	rng, seed, err := s.rng(req.Seed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tally := engine.RollAllocation(rng, a)
	stats.RecordRoll()
	writeJSON(w, models.RollResponse{Allocation: a, Tally: tally, Seed: seed})
}

// POST /api/resolve
func (s *server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Scenario.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := game.ValidateTally(req.Tally); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.resolver.ResolveDetailed(req.Scenario, req.Tally)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats.RecordResolution(req.Tally, len(res.Outcomes), res.States)
	s.log.Debug().
		Str("tally", req.Tally.String()).
		Int("outcomes", len(res.Outcomes)).
		Int("states", res.States).
		Msg("resolved")
	writeJSON(w, models.ResolveResponse{Outcomes: res.Outcomes, States: res.States})
}

// POST /api/simulate
func (s *server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Scenario.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Trials > s.cfg.MaxTrials {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("trials must be at most %d", s.cfg.MaxTrials))
		return
	}
	if req.Scenario.DiceBudget() > maxDiceBudget {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("dice budget must be at most %d", maxDiceBudget))
		return
	}
	_, seed, err := s.rng(req.Seed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := game.Simulate(r.Context(), req.Scenario, req.Trials, game.SimulateOptions{
		Workers: s.cfg.Workers,
		Seed:    seed,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats.RecordSimulation(len(report.Allocations), report.Trials)
	writeJSON(w, report)
}

// POST /api/round
func (s *server) handleRound(w http.ResponseWriter, r *http.Request) {
	var req models.RoundRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Scenario.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := game.ValidateAllocation(req.Scenario, req.Allocation); err != nil {
		s.fail(w, r, err)
		return
	}
	rng, seed, err := s.rng(req.Seed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	round, err := game.PlayRound(rng, s.resolver, req.Scenario, req.Allocation)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats.RecordRoll()
	stats.RecordResolution(round.Tally, len(round.Outcomes), round.States)
	stats.RecordRound()
	writeJSON(w, models.RoundResponse{Round: round, Seed: seed})
}

// GET /api/stats/cache
func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cache.Stats())
}
