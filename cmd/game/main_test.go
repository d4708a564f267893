package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/raid-odds/internal/api"
	"github.com/pefman/raid-odds/internal/config"
	"github.com/pefman/raid-odds/internal/engine"
	"github.com/pefman/raid-odds/internal/game"
	"github.com/pefman/raid-odds/internal/models"
)

// fakeAPI answers rounds by destroying one damaged defender ship.
type fakeAPI struct {
	healthy bool

	mu     sync.Mutex
	rounds []models.RoundRequest
}

func (f *fakeAPI) Dice(ctx context.Context) ([]models.DieInfo, error) {
	return []models.DieInfo{{Name: "assault"}}, nil
}

func (f *fakeAPI) Allocations(ctx context.Context, maxDice int) ([]engine.Allocation, error) {
	return engine.EnumerateAllocations(maxDice), nil
}

func (f *fakeAPI) Round(ctx context.Context, req models.RoundRequest) (models.RoundResponse, error) {
	if req.Allocation.Dice() > req.Scenario.DiceBudget() {
		return models.RoundResponse{}, &api.StatusError{Code: http.StatusBadRequest, Message: "invalid allocation"}
	}
	f.mu.Lock()
	f.rounds = append(f.rounds, req)
	f.mu.Unlock()
	next := req.Scenario
	if next.DamagedDefendingShips > 0 {
		next.DamagedDefendingShips--
		next.AttackerTrophies++
	}
	return models.RoundResponse{
		Round: game.Round{Allocation: req.Allocation, Outcomes: []game.Scenario{next}, Next: next},
		Seed:  req.Seed,
	}, nil
}

func (f *fakeAPI) Simulate(ctx context.Context, req models.SimulateRequest) (*game.SimulationReport, error) {
	return &game.SimulationReport{Scenario: req.Scenario, Trials: req.Trials}, nil
}

func (f *fakeAPI) Healthy(ctx context.Context) bool { return f.healthy }

func startFrontend(t *testing.T, fake *fakeAPI) *httptest.Server {
	t.Helper()
	cfg := config.Game{APITimeout: time.Second}
	srv := httptest.NewServer(newFrontend(fake, cfg, zerolog.Nop()).routes())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func exchange(t *testing.T, conn *websocket.Conn, typ string, data any) wsIn {
	t.Helper()
	require.NoError(t, conn.WriteJSON(models.WsMsg{Type: typ, Data: data}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var in wsIn
	require.NoError(t, conn.ReadJSON(&in))
	return in
}

func TestRoundContinuesFromPreviousScenario(t *testing.T) {
	fake := &fakeAPI{}
	conn := dial(t, startFrontend(t, fake))

	alloc := engine.Allocation{Assault: 1}

	in := exchange(t, conn, models.MsgRound, map[string]any{"allocation": alloc})
	assert.Equal(t, models.MsgError, in.Type)

	start := game.Scenario{HealthyAttackingShips: 1, DamagedDefendingShips: 2}
	in = exchange(t, conn, models.MsgRound, roundIn{Scenario: &start, Allocation: alloc, Seed: 9})
	require.Equal(t, models.MsgRound, in.Type, string(in.Data))
	var resp models.RoundResponse
	require.NoError(t, json.Unmarshal(in.Data, &resp))
	assert.Equal(t, 1, resp.Next.DamagedDefendingShips)
	assert.Equal(t, int64(9), resp.Seed)

	in = exchange(t, conn, models.MsgRound, roundIn{Allocation: alloc})
	require.Equal(t, models.MsgRound, in.Type)
	require.NoError(t, json.Unmarshal(in.Data, &resp))
	assert.Equal(t, 0, resp.Next.DamagedDefendingShips)
	assert.Equal(t, 2, resp.Next.AttackerTrophies)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.rounds, 2)
	assert.Equal(t, 1, fake.rounds[1].Scenario.DamagedDefendingShips)
}

func TestAllocationsMessage(t *testing.T) {
	conn := dial(t, startFrontend(t, &fakeAPI{}))

	in := exchange(t, conn, models.MsgAllocations, nil)
	assert.Equal(t, models.MsgError, in.Type)

	in = exchange(t, conn, models.MsgAllocations, map[string]int{"maxDice": 2})
	require.Equal(t, models.MsgAllocations, in.Type)
	var resp models.AllocationsResponse
	require.NoError(t, json.Unmarshal(in.Data, &resp))
	assert.Len(t, resp.Allocations, 10)

	start := game.Scenario{HealthyAttackingShips: 1, DamagedAttackingShips: 2}
	in = exchange(t, conn, models.MsgRound, roundIn{Scenario: &start})
	require.Equal(t, models.MsgRound, in.Type)

	in = exchange(t, conn, models.MsgAllocations, nil)
	require.Equal(t, models.MsgAllocations, in.Type)
	require.NoError(t, json.Unmarshal(in.Data, &resp))
	assert.Equal(t, 3, resp.MaxDice)
	assert.Len(t, resp.Allocations, engine.AllocationCount(3))
}

func TestAllocationsRejectsNegativeBudget(t *testing.T) {
	conn := dial(t, startFrontend(t, &fakeAPI{}))

	in := exchange(t, conn, models.MsgAllocations, map[string]int{"maxDice": -1})
	require.Equal(t, models.MsgError, in.Type)
	var msg string
	require.NoError(t, json.Unmarshal(in.Data, &msg))
	assert.Contains(t, msg, "non-negative")

	in = exchange(t, conn, models.MsgAllocations, map[string]int{"maxDice": 0})
	require.Equal(t, models.MsgAllocations, in.Type)
	var resp models.AllocationsResponse
	require.NoError(t, json.Unmarshal(in.Data, &resp))
	assert.Len(t, resp.Allocations, 1)
}

func TestAPIErrorsReachClient(t *testing.T) {
	conn := dial(t, startFrontend(t, &fakeAPI{}))

	start := game.Scenario{HealthyAttackingShips: 1}
	in := exchange(t, conn, models.MsgRound, roundIn{Scenario: &start, Allocation: engine.Allocation{Raid: 3}})
	require.Equal(t, models.MsgError, in.Type)
	var msg string
	require.NoError(t, json.Unmarshal(in.Data, &msg))
	assert.Equal(t, "invalid allocation", msg)
}

func TestDiceAndSimulateMessages(t *testing.T) {
	conn := dial(t, startFrontend(t, &fakeAPI{}))

	in := exchange(t, conn, models.MsgDice, nil)
	require.Equal(t, models.MsgDice, in.Type)
	var dice []models.DieInfo
	require.NoError(t, json.Unmarshal(in.Data, &dice))
	assert.Equal(t, "assault", dice[0].Name)

	in = exchange(t, conn, models.MsgSimulate, models.SimulateRequest{Trials: 25})
	require.Equal(t, models.MsgSimulate, in.Type)
	var report game.SimulationReport
	require.NoError(t, json.Unmarshal(in.Data, &report))
	assert.Equal(t, 25, report.Trials)

	in = exchange(t, conn, "bogus", nil)
	assert.Equal(t, models.MsgError, in.Type)
}

func TestHTTPEndpoints(t *testing.T) {
	srv := startFrontend(t, &fakeAPI{healthy: false})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/version")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	resp.Body.Close()
	assert.Equal(t, buildVersion, v["version"])

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
