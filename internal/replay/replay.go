// Package replay records matches to gzip-compressed JSON logs.
package replay

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amalg/proutman/internal/game"
)

// ErrNoReplay is returned, wrapped, when a replay file is missing or unreadable.
var ErrNoReplay = errors.New("no replay")

// ActionEntry is one applied player action.
type ActionEntry struct {
	Frame  int64       `json:"frame"`
	Action game.Action `json:"action"`
}

// Log is the content of a replay file.
type Log struct {
	ID         string           `json:"id"`
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	Winner     string           `json:"winner,omitempty"`
	Config     game.GameConfig  `json:"config"`
	Initial    game.GameState   `json:"initial"`
	Actions    []ActionEntry    `json:"actions"`
	Events     []game.Event     `json:"events"`
	Frames     []game.GameState `json:"frames"`
	SampleRate int              `json:"sample_rate"`
}

// Recorder collects a Log while a match runs. It is safe to feed from the
// engine callbacks.
type Recorder struct {
	mu      sync.Mutex
	log     Log
	ticks   int
	stopped bool
}

// NewRecorder starts a recording of a match beginning in initial.
// sampleRate keeps one state every sampleRate ticks; values below 1 keep all.
func NewRecorder(initial game.GameState, sampleRate int) *Recorder {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Recorder{log: Log{
		ID:         uuid.NewString(),
		Start:      time.Now(),
		Config:     initial.Config,
		Initial:    initial,
		Actions:    make([]ActionEntry, 0),
		Events:     make([]game.Event, 0),
		Frames:     make([]game.GameState, 0),
		SampleRate: sampleRate,
	}}
}

// ID returns the game ID the replay is saved under.
func (r *Recorder) ID() string {
	return r.log.ID
}

// RecordAction logs an applied action.
func (r *Recorder) RecordAction(frame int64, a game.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.log.Actions = append(r.log.Actions, ActionEntry{Frame: frame, Action: a})
}

// RecordTick logs a tick's events and samples its state.
func (r *Recorder) RecordTick(state game.GameState, events []game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.log.Events = append(r.log.Events, events...)
	if r.ticks%r.log.SampleRate == 0 || state.Status == game.StatusOver {
		r.log.Frames = append(r.log.Frames, state)
	}
	r.ticks++
	if state.Status == game.StatusOver {
		r.log.Winner = state.Winner
		r.log.End = time.Now()
		r.stopped = true
	}
}

// Save writes the replay to dir/<id>.json.gz and returns the path.
func (r *Recorder) Save(dir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.log.End.IsZero() {
		r.log.End = time.Now()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create replay dir: %w", err)
	}
	path := filepath.Join(dir, r.log.ID+".json.gz")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create replay: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(&r.log); err != nil {
		return "", fmt.Errorf("encode replay: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress replay: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close replay: %w", err)
	}
	return path, nil
}

// Load reads a replay written by Save.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReplay, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoReplay, path, err)
	}
	defer zr.Close()

	var l Log
	if err := json.NewDecoder(zr).Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoReplay, path, err)
	}
	return &l, nil
}
