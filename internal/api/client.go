package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pefman/raid-odds/internal/engine"
	"github.com/pefman/raid-odds/internal/game"
	"github.com/pefman/raid-odds/internal/models"
)

// Allocation lists never change for a given budget; cache them briefly to
// spare the API repeated enumerations.
const allocationCacheTTL = 5 * time.Minute

// Config holds API configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Code)
	}
	return fmt.Sprintf("api status %d: %s", e.Code, e.Message)
}

type cachedAllocations struct {
	list []engine.Allocation
	at   time.Time
}

// Client talks to the battle API.
type Client struct {
	config Config
	http   *http.Client

	allocMu    sync.RWMutex
	allocCache map[int]cachedAllocations
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Client{
		config:     cfg,
		http:       &http.Client{Timeout: cfg.Timeout},
		allocCache: make(map[int]cachedAllocations),
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Dice fetches the face tables.
func (c *Client) Dice(ctx context.Context) ([]models.DieInfo, error) {
	var out []models.DieInfo
	if err := c.do(ctx, http.MethodGet, "/api/dice", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Allocations fetches every allocation of up to maxDice dice.
func (c *Client) Allocations(ctx context.Context, maxDice int) ([]engine.Allocation, error) {
	c.allocMu.RLock()
	cached, ok := c.allocCache[maxDice]
	c.allocMu.RUnlock()
	if ok && time.Since(cached.at) < allocationCacheTTL {
		return cached.list, nil
	}

	var out models.AllocationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/allocations/"+strconv.Itoa(maxDice), nil, &out); err != nil {
		return nil, err
	}

	c.allocMu.Lock()
	c.allocCache[maxDice] = cachedAllocations{list: out.Allocations, at: time.Now()}
	c.allocMu.Unlock()
	return out.Allocations, nil
}

func (c *Client) Roll(ctx context.Context, req models.RollRequest) (models.RollResponse, error) {
	var out models.RollResponse
	err := c.do(ctx, http.MethodPost, "/api/roll", req, &out)
	return out, err
}

func (c *Client) Resolve(ctx context.Context, req models.ResolveRequest) (models.ResolveResponse, error) {
	var out models.ResolveResponse
	err := c.do(ctx, http.MethodPost, "/api/resolve", req, &out)
	return out, err
}

func (c *Client) Simulate(ctx context.Context, req models.SimulateRequest) (*game.SimulationReport, error) {
	var out game.SimulationReport
	if err := c.do(ctx, http.MethodPost, "/api/simulate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Round(ctx context.Context, req models.RoundRequest) (models.RoundResponse, error) {
	var out models.RoundResponse
	err := c.do(ctx, http.MethodPost, "/api/round", req, &out)
	return out, err
}

// Healthy reports whether the API answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/healthz", nil, nil) == nil
}
