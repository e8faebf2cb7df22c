package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/proutman/internal/agent"
	"github.com/amalg/proutman/internal/config"
	"github.com/amalg/proutman/internal/discovery"
	"github.com/amalg/proutman/internal/game"
	"github.com/amalg/proutman/internal/match"
	"github.com/amalg/proutman/internal/network"
	"github.com/amalg/proutman/internal/stats"
	"github.com/amalg/proutman/internal/ui"
	"github.com/amalg/proutman/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 9999, "Port to listen on")
	proto := flag.String("proto", "tcp", "Transport: tcp or kcp")
	httpAddr := flag.String("http", ":8080", "Stats and spectator HTTP address, empty to disable")
	name := flag.String("name", "Host", "Your player name")
	width := flag.Int("width", 13, "Board width (odd number)")
	height := flag.Int("height", 13, "Board height (odd number)")
	maxPlayers := flag.Int("max-players", 4, "Maximum number of players")
	record := flag.Bool("record", false, "Save a replay of the match")
	bots := flag.Int("bots", 0, "Heuristic bots to add to the lobby")
	discoveryPort := flag.Int("discovery-port", 9998, "UDP port to advertise the room on, 0 to disable")
	logFile := flag.String("log", "", "Log file path (default: discard server logs)")
	flag.Parse()

	// Redirect log output before any server code runs. Any stderr output
	// corrupts Bubbletea's terminal rendering.
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "proto":
			cfg.Server.Proto = *proto
		case "http":
			cfg.Server.HTTPAddr = *httpAddr
		case "width":
			cfg.Game.Width = *width
		case "height":
			cfg.Game.Height = *height
		case "max-players":
			cfg.Game.MaxPlayers = *maxPlayers
		case "record":
			cfg.Replay.Enabled = *record
		case "discovery-port":
			cfg.Server.DiscoveryPort = *discoveryPort
		}
	})

	// Ensure odd dimensions for proper wall grid
	if cfg.Game.Width%2 == 0 {
		cfg.Game.Width++
	}
	if cfg.Game.Height%2 == 0 {
		cfg.Game.Height++
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	store, err := stats.OpenStore(cfg.Stats.PostgresDSN, cfg.Stats.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open stats store: %v\n", err)
		os.Exit(1)
	}
	statsSvc, err := stats.NewService(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stats: %v\n", err)
		os.Exit(1)
	}
	defer statsSvc.Close()

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Server.Port))
	server := network.NewServer(addr, cfg.Game, network.ServerOptions{
		Proto:       cfg.Server.Proto,
		ActionRate:  cfg.Server.ActionRate,
		ActionBurst: cfg.Server.ActionBurst,
	})

	for i := 0; i < *bots; i++ {
		id := fmt.Sprintf("bot-%d", i+1)
		if err := server.Engine().AddBot(id, fmt.Sprintf("Bot %d", i+1), agent.NewHeuristic(time.Now().UnixNano()+int64(i))); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add %s: %v\n", id, err)
			os.Exit(1)
		}
	}

	observer := match.NewObserver(statsSvc, cfg.Replay)
	server.Engine().OnAction(observer.Action)
	server.OnTick(observer.Tick)

	var webSrv *web.Server
	if cfg.Server.HTTPAddr != "" {
		engine := server.Engine()
		webSrv = web.NewServer(statsSvc.Snapshot, engine.GetStateCopy)
		server.OnTick(func(state game.GameState, _ []game.Event) {
			webSrv.Broadcast(state)
		})
		if err := webSrv.Start(cfg.Server.HTTPAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start web server: %v\n", err)
			os.Exit(1)
		}
	}

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	var advertiser *discovery.Broadcaster
	if cfg.Server.DiscoveryPort != 0 {
		engine := server.Engine()
		advertiser = discovery.NewBroadcaster(cfg.Server.DiscoveryPort, func() discovery.RoomInfo {
			state := engine.GetStateCopy()
			return discovery.RoomInfo{
				Host:        *name,
				GamePort:    cfg.Server.Port,
				Proto:       cfg.Server.Proto,
				PlayerCount: len(state.Players),
				MaxPlayers:  cfg.Game.MaxPlayers,
				Running:     state.Status != game.StatusLobby,
			}
		})
		if err := advertiser.Start(); err != nil {
			log.Printf("[DISCOVERY] %v", err)
			advertiser = nil
		}
	}

	shutdown := func() {
		if advertiser != nil {
			advertiser.Stop()
		}
		server.Stop()
		if webSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			webSrv.Shutdown(ctx)
		}
	}

	// Give the listener time to be fully ready
	time.Sleep(200 * time.Millisecond)

	// Connect as the host player (local loopback)
	clientAddr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Server.Port))
	client, err := network.NewClient(cfg.Server.Proto, clientAddr, *name)
	if err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "Failed to connect as host: %v\n", err)
		os.Exit(1)
	}

	// Print connection info for other players
	fmt.Printf("💩 Proutman server on port %d (%s)\n", cfg.Server.Port, cfg.Server.Proto)
	printLocalAddrs(cfg.Server.Port)
	if webSrv != nil {
		fmt.Printf("Stats and spectators on http://%s/stats and ws://%s/ws\n", webSrv.Addr(), webSrv.Addr())
	}
	fmt.Printf("\nConnected as %s. Starting TUI...\n", *name)

	// Small pause so the user can read the IPs
	time.Sleep(500 * time.Millisecond)

	// Handle OS signals for clean shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		client.Close()
		shutdown()
		statsSvc.Close()
		os.Exit(0)
	}()

	// The TUI takes over the terminal completely
	model := ui.NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		client.Close()
		shutdown()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean shutdown after TUI exits
	client.Close()
	shutdown()
}

// printLocalAddrs prints all local network addresses for players to connect to.
func printLocalAddrs(port int) {
	fmt.Println("Players can connect using:")
	fmt.Printf("  127.0.0.1:%d (this machine)\n", port)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				fmt.Printf("  %s:%d\n", ipnet.IP.String(), port)
			}
		}
	}
}
