package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// API configures the battle API server.
type API struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogConsole bool   `env:"LOG_CONSOLE" envDefault:"true"`

	// MaxStates caps partial states per resolution; 0 disables the cap.
	MaxStates int `env:"RESOLVE_MAX_STATES" envDefault:"200000"`
	MaxTrials int `env:"SIMULATE_MAX_TRIALS" envDefault:"100000"`
	Workers   int `env:"SIMULATE_WORKERS" envDefault:"4"`
	// RNGSeed pins every request to one seed; 0 draws a fresh one per request.
	RNGSeed int64 `env:"RNG_SEED" envDefault:"0"`
}

// Game configures the websocket front end.
type Game struct {
	Port       int           `env:"GAME_PORT" envDefault:"8081"`
	APIBase    string        `env:"BATTLE_API_BASE" envDefault:"http://localhost:8080"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"8s"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	LogConsole bool          `env:"LOG_CONSOLE" envDefault:"true"`
	PublicDir  string        `env:"PUBLIC_DIR" envDefault:"public"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadAPI parses and checks the API configuration.
func LoadAPI() (API, error) {
	var cfg API
	if err := ParseEnv(&cfg); err != nil {
		return API{}, err
	}
	if cfg.MaxStates < 0 {
		return API{}, fmt.Errorf("RESOLVE_MAX_STATES must be >= 0, got %d", cfg.MaxStates)
	}
	if cfg.MaxTrials < 1 {
		return API{}, fmt.Errorf("SIMULATE_MAX_TRIALS must be >= 1, got %d", cfg.MaxTrials)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// LoadGame parses the websocket front end configuration.
func LoadGame() (Game, error) {
	var cfg Game
	if err := ParseEnv(&cfg); err != nil {
		return Game{}, err
	}
	return cfg, nil
}
