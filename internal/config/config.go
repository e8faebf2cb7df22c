// Package config loads the YAML file of tunables shared by the commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amalg/proutman/internal/game"
)

// Config is the whole file. Sections left out keep their defaults.
type Config struct {
	Game   game.GameConfig `yaml:"game"`
	Server ServerConfig    `yaml:"server"`
	Stats  StatsConfig     `yaml:"stats"`
	Replay ReplayConfig    `yaml:"replay"`
}

// ServerConfig covers the game listener and the HTTP side.
type ServerConfig struct {
	Port        int     `yaml:"port"`
	Proto       string  `yaml:"proto"` // tcp or kcp
	HTTPAddr    string  `yaml:"http_addr"`
	ActionRate  float64 `yaml:"action_rate"` // actions per second per client
	ActionBurst int     `yaml:"action_burst"`

	// DiscoveryPort is the UDP port the room is advertised on, 0 to disable.
	DiscoveryPort int `yaml:"discovery_port"`
}

// StatsConfig selects where session statistics go. A non-empty PostgresDSN
// wins over Path.
type StatsConfig struct {
	Path        string `yaml:"path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ReplayConfig controls match recording.
type ReplayConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	SampleRate int    `yaml:"sample_rate"` // keep one frame in this many
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Game: game.DefaultConfig(),
		Server: ServerConfig{
			Port:        9999,
			Proto:       "tcp",
			HTTPAddr:    ":8080",
			ActionRate:  30,
			ActionBurst: 10,

			DiscoveryPort: 9998,
		},
		Stats: StatsConfig{
			Path: "bomberman_stats.json",
		},
		Replay: ReplayConfig{
			Enabled:    false,
			Dir:        "replays",
			SampleRate: 10,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the values the game cannot run without.
func (c Config) Validate() error {
	g := c.Game
	switch {
	case g.Width < 5 || g.Height < 5:
		return fmt.Errorf("%w: board must be at least 5x5, got %dx%d", ErrInvalid, g.Width, g.Height)
	case g.Width != g.Height || g.Width%2 == 0:
		// Even sizes put the far spawns on pillars.
		return fmt.Errorf("%w: board must be square with an odd side, got %dx%d", ErrInvalid, g.Width, g.Height)
	case g.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalid)
	case g.BombTimer <= 0 || g.FireDuration <= 0 || g.CacaDuration <= 0:
		return fmt.Errorf("%w: bomb_timer, fire_duration and caca_duration must be positive", ErrInvalid)
	case g.SoftWallDensity < 0 || g.SoftWallDensity > 1:
		return fmt.Errorf("%w: soft_wall_density %.2f out of [0,1]", ErrInvalid, g.SoftWallDensity)
	case g.PowerUpChance < 0 || g.PowerUpChance > 1:
		return fmt.Errorf("%w: powerup_chance %.2f out of [0,1]", ErrInvalid, g.PowerUpChance)
	case g.MaxPlayers < 1 || g.MaxPlayers > 4:
		return fmt.Errorf("%w: max_players must be 1-4, got %d", ErrInvalid, g.MaxPlayers)
	case g.InitialBombs > g.MaxBombs || g.InitialRange > g.MaxRange || g.InitialSpeed > g.MaxSpeed:
		return fmt.Errorf("%w: initial stats exceed their caps", ErrInvalid)
	case g.BombMachine.Enabled && g.BombMachine.Interval <= 0:
		return fmt.Errorf("%w: bomb_machine.interval must be positive", ErrInvalid)
	}

	switch c.Server.Proto {
	case "tcp", "kcp":
	default:
		return fmt.Errorf("%w: unknown proto %q", ErrInvalid, c.Server.Proto)
	}
	if c.Replay.Enabled && c.Replay.SampleRate < 1 {
		return fmt.Errorf("%w: replay.sample_rate must be at least 1", ErrInvalid)
	}
	return nil
}
