package network

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/amalg/proutman/internal/game"
)

// ServerOptions tunes the transport and per-client limits.
type ServerOptions struct {
	Proto       string  // tcp or kcp
	ActionRate  float64 // actions per second per client, 0 for unlimited
	ActionBurst int
}

// Server hosts the game and manages client connections.
type Server struct {
	engine    *game.Engine
	addr      string
	opts      ServerOptions
	listener  Listener
	clients   map[string]*clientConn
	observers []func(game.GameState, []game.Event)
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// clientConn represents a connected client.
type clientConn struct {
	conn     net.Conn
	playerID string
	limiter  *rate.Limiter
	dropped  int // read-loop only
	mu       sync.Mutex
}

// NewServer creates a new game server.
func NewServer(addr string, config game.GameConfig, opts ServerOptions) *Server {
	engine := game.NewEngine(config)

	s := &Server{
		engine:  engine,
		addr:    addr,
		opts:    opts,
		clients: make(map[string]*clientConn),
		done:    make(chan struct{}),
	}

	// Broadcast callback, receives a pre-copied state from the engine
	engine.OnTick(func(state game.GameState, events []game.Event) {
		s.broadcastState(state, events)
		s.mu.RLock()
		observers := s.observers
		s.mu.RUnlock()
		for _, fn := range observers {
			fn(state, events)
		}
	})

	return s
}

// Engine returns the underlying game engine.
func (s *Server) Engine() *game.Engine {
	return s.engine
}

// OnTick registers fn to run after the broadcast of every tick.
func (s *Server) OnTick(fn func(game.GameState, []game.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Addr returns the address the server listens on, once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start begins accepting connections and running the game loop.
func (s *Server) Start() error {
	var err error
	s.listener, err = Listen(s.opts.Proto, s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("[SERVER] Listening on %s (%s)", s.Addr(), s.proto())

	// Print local IPs for convenience
	printLocalIPs(s.Addr())

	// Start game engine in background
	go s.engine.Run()

	// Accept connections
	go s.acceptLoop()

	return nil
}

func (s *Server) proto() string {
	if s.opts.Proto == "" {
		return ProtoTCP
	}
	return s.opts.Proto
}

// Stop shuts down the server.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.engine.Stop()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.RLock()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.mu.RUnlock()
	})
}

// StartGame starts the game from lobby to running.
func (s *Server) StartGame() error {
	return s.engine.StartGame()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("[SERVER] Accept error: %v", err)
				continue
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.opts.ActionRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := s.opts.ActionBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.opts.ActionRate), burst)
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	cc, err := s.join(conn)
	if err != nil {
		log.Printf("[SERVER] Join from %s refused: %v", conn.RemoteAddr(), err)
		return
	}
	defer s.removeClient(cc.playerID)

	s.sendStateTo(cc, s.engine.GetStateCopy(), nil)

	for {
		env, err := Decode(conn)
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("[SERVER] Player %s disconnected: %v", cc.playerID, err)
			}
			return
		}
		s.handleMessage(cc, env)
	}
}

// join reads the join message, adds the player and sends the welcome.
func (s *Server) join(conn net.Conn) (*clientConn, error) {
	env, err := Decode(conn)
	if err != nil {
		return nil, fmt.Errorf("read join: %w", err)
	}
	if env.Type != MsgJoin {
		Encode(conn, MsgError, ErrorMsg{Message: "expected join message"})
		return nil, fmt.Errorf("expected join, got %s", env.Type)
	}
	var msg JoinMsg
	if err := DecodePayload(env, &msg); err != nil {
		return nil, err
	}

	playerID := uuid.NewString()
	if err := s.engine.AddPlayer(playerID, msg.Name); err != nil {
		Encode(conn, MsgError, ErrorMsg{Message: err.Error()})
		return nil, err
	}

	cc := &clientConn{conn: conn, playerID: playerID, limiter: s.newLimiter()}
	s.mu.Lock()
	s.clients[playerID] = cc
	s.mu.Unlock()
	log.Printf("[SERVER] Player joined: %s (%s)", msg.Name, playerID)

	cc.mu.Lock()
	err = Encode(conn, MsgWelcome, WelcomeMsg{PlayerID: playerID, Config: s.engine.Config})
	cc.mu.Unlock()
	if err != nil {
		s.removeClient(playerID)
		return nil, fmt.Errorf("send welcome: %w", err)
	}
	return cc, nil
}

func (s *Server) handleMessage(cc *clientConn, env *Envelope) {
	switch env.Type {
	case MsgAction:
		var msg ActionMsg
		if err := DecodePayload(env, &msg); err != nil {
			log.Printf("[SERVER] Invalid action from %s: %v", cc.playerID, err)
			return
		}
		if !cc.limiter.Allow() {
			cc.dropped++
			if cc.dropped%100 == 1 {
				log.Printf("[SERVER] Rate limiting %s (%d actions dropped)", cc.playerID, cc.dropped)
			}
			return
		}
		s.engine.EnqueueAction(game.Action{PlayerID: cc.playerID, Type: msg.ActionType, Dir: msg.Direction})
	case MsgStart:
		if err := s.engine.StartGame(); err != nil {
			s.sendError(cc, err.Error())
		}
	default:
		log.Printf("[SERVER] Unknown message type from %s: %s", cc.playerID, env.Type)
	}
}

func (s *Server) removeClient(playerID string) {
	s.mu.Lock()
	cc, ok := s.clients[playerID]
	delete(s.clients, playerID)
	s.mu.Unlock()
	if !ok {
		return
	}
	cc.conn.Close()
	s.engine.RemovePlayer(playerID)
	log.Printf("[SERVER] Player removed: %s", playerID)
}

func (s *Server) broadcastState(state game.GameState, events []game.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cc := range s.clients {
		s.sendStateTo(cc, state, events)
	}
}

func (s *Server) sendStateTo(cc *clientConn, state game.GameState, events []game.Event) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	msg := StateMsg{State: state, Events: events}
	if err := Encode(cc.conn, MsgState, msg); err != nil {
		log.Printf("[SERVER] Failed to send state to %s: %v", cc.playerID, err)
	}
}

func (s *Server) sendError(cc *clientConn, message string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := Encode(cc.conn, MsgError, ErrorMsg{Message: message}); err != nil {
		log.Printf("[SERVER] Failed to send error to %s: %v", cc.playerID, err)
	}
}

// printLocalIPs prints all local network interfaces for players to connect to.
func printLocalIPs(addr string) {
	_, port, _ := net.SplitHostPort(addr)

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return
	}

	log.Println("[SERVER] Players can connect using:")
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				log.Printf("[SERVER]   %s:%s", ipnet.IP.String(), port)
			}
		}
	}
}
