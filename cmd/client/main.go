package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amalg/proutman/internal/discovery"
	"github.com/amalg/proutman/internal/network"
	"github.com/amalg/proutman/internal/ui"
)

func main() {
	addr := flag.String("addr", "", "Server address (e.g., 192.168.1.5:9999), empty to search the LAN")
	name := flag.String("name", "Player", "Your player name")
	proto := flag.String("proto", network.ProtoTCP, "Transport: tcp or kcp")
	discoveryPort := flag.Int("discovery-port", discovery.DefaultPort, "UDP port rooms are advertised on")
	wait := flag.Duration("wait", 5*time.Second, "How long to search the LAN for a room")
	flag.Parse()

	// Client logs would corrupt the TUI
	log.SetOutput(io.Discard)

	if *addr == "" {
		room, err := findRoom(*discoveryPort, *wait)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			fmt.Fprintln(os.Stderr, "Usage: client [--addr <host:port>] [--name <name>] [--proto tcp|kcp]")
			fmt.Fprintln(os.Stderr, "  Example: client --addr 192.168.1.5:9999 --name Alice")
			os.Exit(1)
		}
		fmt.Printf("Found %s's room at %s (%d/%d players)\n", room.Host, room.Addr, room.PlayerCount, room.MaxPlayers)
		*addr = room.Addr
		*proto = room.Proto
	}

	fmt.Printf("Connecting to %s (%s) as %s...\n", *addr, *proto, *name)

	client, err := network.NewClient(*proto, *addr, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Connected! Player ID: %s\n", client.PlayerID())
	fmt.Println("Starting TUI...")
	time.Sleep(500 * time.Millisecond)

	model := ui.NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// findRoom waits up to wait for a joinable room on the LAN.
func findRoom(port int, wait time.Duration) (discovery.RoomInfo, error) {
	l, err := discovery.Listen(port)
	if err != nil {
		return discovery.RoomInfo{}, err
	}
	defer l.Close()

	fmt.Printf("Searching the LAN for a game (%s)...\n", wait)
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return l.WaitJoinable(ctx)
}
