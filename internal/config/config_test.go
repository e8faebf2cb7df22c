package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg.Game.Width != 13 || cfg.Server.Port != 9999 || cfg.Server.Proto != "tcp" {
			t.Errorf("Load(%q) should give defaults, got %+v", path, cfg)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeFile(t, `
game:
  width: 15
  bomb_timer: 2s
  bomb_machine:
    enabled: true
    interval: 5s
server:
  proto: kcp
replay:
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Game.Width != 15 {
		t.Errorf("width = %d, want 15", cfg.Game.Width)
	}
	if cfg.Game.Height != 13 {
		t.Errorf("height should keep its default, got %d", cfg.Game.Height)
	}
	if cfg.Game.BombTimer != 2*time.Second {
		t.Errorf("bomb_timer = %v, want 2s", cfg.Game.BombTimer)
	}
	if !cfg.Game.BombMachine.Enabled || cfg.Game.BombMachine.Interval != 5*time.Second {
		t.Errorf("unexpected bomb machine %+v", cfg.Game.BombMachine)
	}
	if cfg.Game.BombMachine.Range != 3 {
		t.Errorf("bomb machine range should keep its default, got %d", cfg.Game.BombMachine.Range)
	}
	if cfg.Server.Proto != "kcp" || cfg.Server.Port != 9999 {
		t.Errorf("unexpected server section %+v", cfg.Server)
	}
	if !cfg.Replay.Enabled || cfg.Replay.Dir != "replays" {
		t.Errorf("unexpected replay section %+v", cfg.Replay)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"density": "game:\n  soft_wall_density: 1.5\n",
		"proto":   "server:\n  proto: udp\n",
		"tick":    "game:\n  tick_rate: 0\n",
		"caps":    "game:\n  initial_bombs: 9\n",
		"even":    "game:\n  width: 12\n  height: 12\n",
		"square":  "game:\n  width: 13\n  height: 21\n",
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, body)); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeFile(t, "game: [1, 2"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if errors.Is(err, ErrInvalid) {
		t.Error("parse errors are not validation errors")
	}
}
