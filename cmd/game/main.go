package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pefman/raid-odds/internal/api"
	"github.com/pefman/raid-odds/internal/config"
	"github.com/pefman/raid-odds/internal/engine"
	"github.com/pefman/raid-odds/internal/game"
	"github.com/pefman/raid-odds/internal/logging"
	"github.com/pefman/raid-odds/internal/models"
)

// Build metadata (override via -ldflags "-X main.buildVersion=... -X main.buildTime=...")
var (
	buildVersion = "dev"
	buildTime    = ""
)

// battleAPI is the subset of the API client the front end needs.
type battleAPI interface {
	Dice(ctx context.Context) ([]models.DieInfo, error)
	Allocations(ctx context.Context, maxDice int) ([]engine.Allocation, error)
	Round(ctx context.Context, req models.RoundRequest) (models.RoundResponse, error)
	Simulate(ctx context.Context, req models.SimulateRequest) (*game.SimulationReport, error)
	Healthy(ctx context.Context) bool
}

type frontend struct {
	api       battleAPI
	log       zerolog.Logger
	timeout   time.Duration
	publicDir string
	upgrader  websocket.Upgrader
}

func newFrontend(client battleAPI, cfg config.Game, logger zerolog.Logger) *frontend {
	return &frontend{
		api:       client,
		log:       logger,
		timeout:   cfg.APITimeout,
		publicDir: cfg.PublicDir,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (f *frontend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", f.serveIndex)
	mux.HandleFunc("/ws", f.handleWS)
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"version": buildVersion,
			"time":    buildTime,
		})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
		defer cancel()
		status, code := "ok", http.StatusOK
		if !f.api.Healthy(ctx) {
			status, code = "battle api unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	if f.publicDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(f.publicDir))))
	}
	return mux
}

func (f *frontend) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, strings.ReplaceAll(indexHTML, "{{BUILD_VERSION}}", buildVersion))
}

// ----------------- WebSocket per session -----------------

// session is one browser connection. It remembers the scenario the last
// round left behind so a client can keep rolling against it.
type session struct {
	id   string
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	current *game.Scenario
}

func (s *session) send(m models.WsMsg) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(m); err != nil {
		s.log.Warn().Err(err).Msg("ws: write")
	}
}

func (s *session) sendError(err error) {
	msg := err.Error()
	var se *api.StatusError
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}
	s.send(models.WsMsg{Type: models.MsgError, Data: msg})
}

func (f *frontend) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn().Err(err).Msg("ws: upgrade")
		return
	}
	id := uuid.NewString()
	sess := &session{id: id, conn: conn, log: f.log.With().Str("session", id).Logger()}
	sess.log.Info().Str("from", r.RemoteAddr).Msg("ws: connect")
	go f.wsReader(sess)
}

type clientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// roundIn plays a round. Scenario may be omitted to continue from the
// scenario the previous round produced.
type roundIn struct {
	Scenario   *game.Scenario    `json:"scenario,omitempty"`
	Allocation engine.Allocation `json:"allocation"`
	Seed       int64             `json:"seed,omitempty"`
}

func (f *frontend) wsReader(s *session) {
	defer func() {
		_ = s.conn.Close()
		s.log.Info().Msg("ws: closed")
	}()
	for {
		var in clientIn
		if err := s.conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("ws: read")
			}
			return
		}
		s.log.Debug().Str("type", in.Type).Msg("ws: recv")
		f.dispatch(s, in)
	}
}

func (f *frontend) dispatch(s *session, in clientIn) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	switch in.Type {
	case models.MsgDice:
		dice, err := f.api.Dice(ctx)
		if err != nil {
			s.sendError(err)
			return
		}
		s.send(models.WsMsg{Type: models.MsgDice, Data: dice})

	case models.MsgAllocations:
		// Without a body, list the choices for the current scenario.
		var body struct {
			MaxDice *int `json:"maxDice"`
		}
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &body); err != nil {
				s.sendError(fmt.Errorf("bad allocations request: %w", err))
				return
			}
		}
		maxDice := 0
		switch {
		case body.MaxDice != nil:
			maxDice = *body.MaxDice
		case s.current != nil:
			maxDice = s.current.DiceBudget()
		default:
			s.sendError(errors.New("no scenario: give maxDice or play a round first"))
			return
		}
		if maxDice < 0 {
			s.sendError(fmt.Errorf("maxDice must be non-negative, got %d", maxDice))
			return
		}
		list, err := f.api.Allocations(ctx, maxDice)
		if err != nil {
			s.sendError(err)
			return
		}
		s.send(models.WsMsg{Type: models.MsgAllocations, Data: models.AllocationsResponse{MaxDice: maxDice, Allocations: list}})

	case models.MsgRound:
		var body roundIn
		if err := json.Unmarshal(in.Data, &body); err != nil {
			s.sendError(fmt.Errorf("bad round request: %w", err))
			return
		}
		if body.Scenario != nil {
			sc := *body.Scenario
			s.current = &sc
		}
		if s.current == nil {
			s.sendError(errors.New("no scenario: send one with the first round"))
			return
		}
		resp, err := f.api.Round(ctx, models.RoundRequest{
			Scenario:   *s.current,
			Allocation: body.Allocation,
			Seed:       body.Seed,
		})
		if err != nil {
			s.sendError(err)
			return
		}
		next := resp.Next
		s.current = &next
		s.log.Info().
			Str("allocation", resp.Allocation.String()).
			Str("tally", resp.Tally.String()).
			Int("outcomes", len(resp.Outcomes)).
			Int64("seed", resp.Seed).
			Msg("round")
		s.send(models.WsMsg{Type: models.MsgRound, Data: resp})

	case models.MsgSimulate:
		var req models.SimulateRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			s.sendError(fmt.Errorf("bad simulate request: %w", err))
			return
		}
		report, err := f.api.Simulate(ctx, req)
		if err != nil {
			s.sendError(err)
			return
		}
		s.send(models.WsMsg{Type: models.MsgSimulate, Data: report})

	default:
		s.sendError(fmt.Errorf("unknown message type %q", in.Type))
	}
}

func main() {
	cfg, err := config.LoadGame()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogConsole)
	client := api.NewClient(api.Config{BaseURL: cfg.APIBase, Timeout: cfg.APITimeout})

	f := newFrontend(client, cfg, logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().Str("addr", addr).Str("battle_api", cfg.APIBase).Str("version", buildVersion).Msg("raid odds front end listening")
	if err := http.ListenAndServe(addr, f.routes()); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Raid Odds {{BUILD_VERSION}}</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #111; color: #ddd; }
fieldset { border: 1px solid #444; margin-bottom: 1em; }
input { width: 4em; }
pre { background: #1b1b1b; padding: 1em; max-height: 30em; overflow: auto; }
</style>
</head>
<body>
<h1>Raid Odds <small>{{BUILD_VERSION}}</small></h1>
<fieldset id="scenario"><legend>Scenario</legend></fieldset>
<fieldset><legend>Dice</legend>
assault <input id="assault" type="number" min="0" value="1">
skirmish <input id="skirmish" type="number" min="0" value="0">
raid <input id="raid" type="number" min="0" value="0">
seed <input id="seed" type="number" value="0">
</fieldset>
<button id="round">Roll round</button>
<button id="continue">Continue</button>
<button id="simulate">Simulate</button>
<pre id="out"></pre>
<script>
const fields = ["healthyAttackingShips","damagedAttackingShips","healthyDefendingShips","damagedDefendingShips",
  "healthyDefendingCities","damagedDefendingCities","healthyDefendingSpaceports","damagedDefendingSpaceports","attackerActionPips"];
const box = document.getElementById("scenario");
for (const f of fields) {
  const l = document.createElement("label");
  l.textContent = f + " ";
  const i = document.createElement("input");
  i.type = "number"; i.min = "0"; i.value = "0"; i.id = f;
  l.appendChild(i); box.appendChild(l); box.appendChild(document.createElement("br"));
}
const num = id => parseInt(document.getElementById(id).value || "0", 10);
const scenario = () => Object.fromEntries(fields.map(f => [f, num(f)]));
const allocation = () => ({assault: num("assault"), skirmish: num("skirmish"), raid: num("raid")});
const out = document.getElementById("out");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = ev => {
  const m = JSON.parse(ev.data);
  if (m.type === "round") {
    for (const f of fields) document.getElementById(f).value = m.data.next[f];
  }
  out.textContent = JSON.stringify(m, null, 2);
};
const send = (type, data) => ws.send(JSON.stringify({type, data}));
document.getElementById("round").onclick = () => send("round", {scenario: scenario(), allocation: allocation(), seed: num("seed")});
document.getElementById("continue").onclick = () => send("round", {allocation: allocation(), seed: num("seed")});
document.getElementById("simulate").onclick = () => send("simulate", {scenario: scenario(), trials: 1000, seed: num("seed")});
</script>
</body>
</html>
`
