// Package match follows one game through the engine callbacks and, when it
// ends, records its statistics and saves its replay.
package match

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amalg/proutman/internal/config"
	"github.com/amalg/proutman/internal/game"
	"github.com/amalg/proutman/internal/replay"
	"github.com/amalg/proutman/internal/stats"
)

// Result is what a finished match produced.
type Result struct {
	Record     stats.GameRecord
	ReplayPath string
}

// Observer is fed by Engine.OnAction and Engine.OnTick. Stats and replays
// are both optional.
type Observer struct {
	mu       sync.Mutex
	stats    *stats.Service
	replays  config.ReplayConfig
	now      func() time.Time
	lobby    *game.GameState
	tracker  *stats.Tracker
	recorder *replay.Recorder
	result   Result
	finished bool
	done     chan struct{}
}

// NewObserver returns an observer that reports to svc, which may be nil.
func NewObserver(svc *stats.Service, replays config.ReplayConfig) *Observer {
	return &Observer{
		stats:   svc,
		replays: replays,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Attach registers the observer on e.
func (o *Observer) Attach(e *game.Engine) {
	e.OnAction(o.Action)
	e.OnTick(o.Tick)
}

// Done is closed once the match is over and its results are stored.
func (o *Observer) Done() <-chan struct{} {
	return o.done
}

// Result returns the outcome once Done is closed.
func (o *Observer) Result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Action records an applied action.
func (o *Observer) Action(frame int64, a game.Action) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished {
		return
	}
	o.begin(nil)
	o.tracker.Action(a)
	if o.recorder != nil {
		o.recorder.RecordAction(frame, a)
	}
}

// Tick folds one tick into the match.
func (o *Observer) Tick(state game.GameState, events []game.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished {
		return
	}

	if state.Status == game.StatusLobby {
		o.lobby = &state
		return
	}

	o.begin(&state)
	o.tracker.Observe(events)
	if o.recorder != nil {
		o.recorder.RecordTick(state, events)
	}
	if state.Status == game.StatusOver {
		o.finish(state)
	}
}

// begin starts tracking from the last lobby snapshot, falling back to
// current. Callers hold o.mu.
func (o *Observer) begin(current *game.GameState) {
	if o.tracker != nil {
		return
	}
	initial := o.lobby
	if initial == nil {
		initial = current
	}
	if initial == nil {
		initial = &game.GameState{}
	}

	id := uuid.NewString()
	if o.replays.Enabled {
		o.recorder = replay.NewRecorder(*initial, o.replays.SampleRate)
		id = o.recorder.ID()
	}
	o.tracker = stats.NewTracker(id, *initial, o.now())
	log.Printf("[MATCH] game %s started with %d players", id, len(initial.Players))
}

func (o *Observer) finish(state game.GameState) {
	o.finished = true
	o.result.Record = o.tracker.Finish(state, o.now())

	if o.stats != nil {
		if err := o.stats.Add(o.result.Record); err != nil {
			log.Printf("[MATCH] failed to record stats: %v", err)
		}
	}
	if o.recorder != nil {
		path, err := o.recorder.Save(o.replays.Dir)
		if err != nil {
			log.Printf("[MATCH] failed to save replay: %v", err)
		} else {
			o.result.ReplayPath = path
			log.Printf("[MATCH] replay saved to %s", path)
		}
	}
	close(o.done)
}
