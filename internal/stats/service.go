package stats

import (
	"fmt"
	"log"
	"sync"
)

// Service guards a loaded Session and saves it after every recorded game.
type Service struct {
	store   Store
	mu      sync.RWMutex
	session *Session
}

// NewService loads the session from store.
func NewService(store Store) (*Service, error) {
	session, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return &Service{store: store, session: session}, nil
}

// Add records a finished game and persists the session.
func (s *Service) Add(rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Record(rec)
	if err := s.store.Save(s.session); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	log.Printf("[STATS] recorded game %s (%d total)", rec.ID, s.session.TotalGames)
	return nil
}

// Snapshot returns a copy of the session safe to read without the lock.
func (s *Service) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := *s.session
	out.Players = make(map[string]*PlayerTotals, len(s.session.Players))
	for name, t := range s.session.Players {
		cp := *t
		out.Players[name] = &cp
	}
	out.Games = append([]GameRecord(nil), s.session.Games...)
	return out
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// OpenStore returns a Postgres store when dsn is set, otherwise a JSON file
// store at path.
func OpenStore(dsn, path string) (Store, error) {
	if dsn != "" {
		ps, err := NewPostgresStore(dsn)
		if err != nil {
			return nil, err
		}
		return ps, nil
	}
	return NewJSONStore(path), nil
}
