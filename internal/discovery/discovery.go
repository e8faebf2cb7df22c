// Package discovery advertises hosted games on the LAN over UDP broadcast and
// finds them from the client side.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultPort is the UDP port rooms are advertised on.
	DefaultPort = 9998
	// BroadcastInterval is how often hosts advertise their room.
	BroadcastInterval = 1 * time.Second
	// RoomExpiry is how long a room stays visible after its last broadcast.
	RoomExpiry = 4 * time.Second
)

// RoomInfo describes a hosted game.
type RoomInfo struct {
	Host        string `json:"host"`
	GamePort    int    `json:"game_port"`
	Proto       string `json:"proto"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Running     bool   `json:"running"`

	// Addr is filled in by the listener from the sender's IP.
	Addr string `json:"-"`
}

// Joinable reports whether a new player can still enter the room.
func (r RoomInfo) Joinable() bool {
	return !r.Running && (r.MaxPlayers == 0 || r.PlayerCount < r.MaxPlayers)
}

// Broadcaster advertises a room until stopped. The info func is polled
// before every packet so counts stay current.
type Broadcaster struct {
	port     int
	info     func() RoomInfo
	done     chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster advertises info on the given UDP port.
func NewBroadcaster(port int, info func() RoomInfo) *Broadcaster {
	return &Broadcaster{
		port: port,
		info: info,
		done: make(chan struct{}),
	}
}

// Start opens the socket and broadcasts in the background.
func (b *Broadcaster) Start() error {
	// ListenPacket rather than DialUDP: a dialled socket cannot reach
	// 255.255.255.255 on Linux without SO_BROADCAST.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("broadcast socket: %w", err)
	}
	go b.loop(conn)
	return nil
}

// Stop halts broadcasting. Safe to call more than once.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

func (b *Broadcaster) loop(conn net.PacketConn) {
	defer conn.Close()

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	for {
		b.send(conn)
		select {
		case <-b.done:
			return
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) send(conn net.PacketConn) {
	data, err := json.Marshal(b.info())
	if err != nil {
		log.Printf("[DISCOVERY] Failed to encode room: %v", err)
		return
	}

	targets := []net.IP{net.IPv4(127, 0, 0, 1), net.IPv4bcast}
	targets = append(targets, interfaceBroadcasts()...)
	for _, ip := range targets {
		conn.WriteTo(data, &net.UDPAddr{IP: ip, Port: b.port})
	}
}

// interfaceBroadcasts returns the directed broadcast address of every up
// IPv4 interface. Some networks drop the limited broadcast.
func interfaceBroadcasts() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil || len(ipnet.Mask) != net.IPv4len {
				continue
			}
			ip4 := ipnet.IP.To4()
			bcast := make(net.IP, net.IPv4len)
			for i := range bcast {
				bcast[i] = ip4[i] | ^ipnet.Mask[i]
			}
			out = append(out, bcast)
		}
	}
	return out
}

type seenRoom struct {
	info     RoomInfo
	lastSeen time.Time
}

// Listener collects room advertisements.
type Listener struct {
	conn     *net.UDPConn
	mu       sync.Mutex
	rooms    map[string]seenRoom // keyed by Addr
	arrived  chan struct{}
	stopOnce sync.Once
}

// Listen binds the discovery port. Port 0 picks a free one, see Port.
func Listen(port int) (*Listener, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen UDP on port %d: %w (is another client browsing?)", port, err)
	}
	l := &Listener{
		conn:    conn,
		rooms:   make(map[string]seenRoom),
		arrived: make(chan struct{}, 1),
	}
	go l.readLoop()
	return l, nil
}

// Port returns the bound UDP port.
func (l *Listener) Port() int {
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Close stops listening.
func (l *Listener) Close() {
	l.stopOnce.Do(func() { l.conn.Close() })
}

// Rooms returns the rooms seen within RoomExpiry, sorted by address.
func (l *Listener) Rooms() []RoomInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	rooms := make([]RoomInfo, 0, len(l.rooms))
	for addr, r := range l.rooms {
		if now.Sub(r.lastSeen) > RoomExpiry {
			delete(l.rooms, addr)
			continue
		}
		rooms = append(rooms, r.info)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Addr < rooms[j].Addr })
	return rooms
}

// WaitJoinable blocks until a joinable room is visible or ctx ends.
func (l *Listener) WaitJoinable(ctx context.Context) (RoomInfo, error) {
	for {
		for _, r := range l.Rooms() {
			if r.Joinable() {
				return r, nil
			}
		}
		select {
		case <-ctx.Done():
			return RoomInfo{}, fmt.Errorf("no joinable room found: %w", ctx.Err())
		case <-l.arrived:
		}
	}
}

func (l *Listener) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			// Closed.
			return
		}

		var info RoomInfo
		if err := json.Unmarshal(buf[:n], &info); err != nil || info.GamePort == 0 {
			continue
		}
		info.Addr = net.JoinHostPort(from.IP.String(), strconv.Itoa(info.GamePort))

		l.mu.Lock()
		l.rooms[info.Addr] = seenRoom{info: info, lastSeen: time.Now()}
		l.mu.Unlock()

		select {
		case l.arrived <- struct{}{}:
		default:
		}
	}
}
