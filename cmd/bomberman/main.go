// Command bomberman plays headless matches between heuristic bots and records
// their statistics and replays.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/amalg/proutman/internal/agent"
	"github.com/amalg/proutman/internal/config"
	"github.com/amalg/proutman/internal/game"
	"github.com/amalg/proutman/internal/match"
	"github.com/amalg/proutman/internal/stats"
)

var botNames = []string{"Bomby", "Fuse", "Kaboom", "Proutor"}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	bots := flag.Int("bots", 2, "Number of bots (1-4)")
	games := flag.Int("games", 1, "Number of matches to play")
	seed := flag.Int64("seed", 0, "Base seed for boards and bots, 0 for time-based")
	maxFrames := flag.Int64("max-frames", 30*60*5, "Abandon a match after this many frames")
	realtime := flag.Bool("realtime", false, "Run at the configured tick rate instead of flat out")
	record := flag.Bool("record", false, "Save a replay of every match")
	verbose := flag.Bool("v", false, "Print engine logs")
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *record {
		cfg.Replay.Enabled = true
	}
	if *bots < 1 || *bots > len(botNames) {
		fmt.Fprintf(os.Stderr, "bots must be between 1 and %d\n", len(botNames))
		os.Exit(1)
	}
	cfg.Game.MaxPlayers = max(cfg.Game.MaxPlayers, *bots)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	store, err := stats.OpenStore(cfg.Stats.PostgresDSN, cfg.Stats.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open stats store: %v\n", err)
		os.Exit(1)
	}
	svc, err := stats.NewService(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stats: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	base := *seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	for i := 0; i < *games; i++ {
		gameCfg := cfg.Game
		gameCfg.Seed = base + int64(i)

		res, ok := play(gameCfg, cfg.Replay, svc, *bots, *maxFrames, *realtime)
		if !ok {
			fmt.Printf("game %d: abandoned after %d frames\n", i+1, *maxFrames)
			continue
		}
		winner := res.Record.Winner
		if res.Record.Draw() {
			winner = "draw"
		}
		fmt.Printf("game %d: %s in %d frames", i+1, winner, res.Record.Frames)
		if res.ReplayPath != "" {
			fmt.Printf(" (replay %s)", res.ReplayPath)
		}
		fmt.Println()
	}

	snap := svc.Snapshot()
	fmt.Printf("\n%d games, %d draws\n", snap.TotalGames, snap.Draws)
	for _, name := range botNames[:*bots] {
		if t, ok := snap.Players[name]; ok {
			fmt.Printf("  %-8s %3d wins  %5.1f%%  best streak %d\n", name, t.Wins, 100*snap.WinRate(name), t.BestStreak)
		}
	}
}

// play runs one match to the end. ok is false when maxFrames ran out first.
func play(cfg game.GameConfig, replays config.ReplayConfig, svc *stats.Service, bots int, maxFrames int64, realtime bool) (match.Result, bool) {
	engine := game.NewEngine(cfg)
	for i := 0; i < bots; i++ {
		id := fmt.Sprintf("bot-%d", i+1)
		if err := engine.AddBot(id, botNames[i], agent.NewHeuristic(cfg.Seed+int64(i))); err != nil {
			log.Printf("[ENGINE] failed to add %s: %v", id, err)
		}
	}

	observer := match.NewObserver(svc, replays)
	observer.Attach(engine)

	// One lobby tick so the observer keeps the starting board.
	engine.Step(0)
	if err := engine.StartGame(); err != nil {
		log.Printf("[ENGINE] %v", err)
		return match.Result{}, false
	}

	dt := engine.TickInterval()
	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(dt)
		defer ticker.Stop()
	}

	for frame := int64(0); frame < maxFrames; frame++ {
		select {
		case <-observer.Done():
			return observer.Result(), true
		default:
		}
		if ticker != nil {
			<-ticker.C
		}
		engine.Step(dt)
	}

	select {
	case <-observer.Done():
		return observer.Result(), true
	default:
		return match.Result{}, false
	}
}
