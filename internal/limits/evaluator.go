package limits

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between two fires of the same limit.
const DefaultCooldown = 2000 * time.Millisecond

// LevelSource provides the current loudness to evaluate against.
type LevelSource interface {
	IsActive() bool
	Level() float64
}

// Action is the outcome of evaluating one limit.
type Action int

const (
	// ActionNone means the limit did not fire.
	ActionNone Action = iota
	// ActionFire means the limit fired and its sound should be played.
	ActionFire
)

func (a Action) String() string {
	if a == ActionFire {
		return "fire"
	}
	return "none"
}

// Decision is the per-limit result of an evaluation tick.
type Decision struct {
	LimitID   string
	Name      string
	Action    Action
	SoundFile string
	Level     float64
	Threshold float64
}

// TriggerState is the per-limit firing state.
type TriggerState struct {
	// LastFiredAt is zero if the limit has never fired.
	LastFiredAt time.Time
	// Playing is set from a fire until its playback completes or fails.
	Playing bool
}

// Evaluator decides which limits fire for the current level. Trigger state is
// keyed by limit ID and survives edits to the limit list.
// It is safe for concurrent use.
type Evaluator struct {
	source   LevelSource
	cooldown time.Duration

	mu     sync.Mutex
	states map[string]*TriggerState
}

// NewEvaluator creates an evaluator reading levels from source.
func NewEvaluator(source LevelSource) *Evaluator {
	return &Evaluator{
		source:   source,
		cooldown: DefaultCooldown,
		states:   make(map[string]*TriggerState),
	}
}

// Evaluate checks every limit against the current level at now. It returns
// nil without touching any state when the level source is inactive.
// Otherwise it returns one decision per limit, in order. A firing limit has
// Playing and LastFiredAt set before Evaluate returns, so the next tick cannot
// fire it again until Done is called and the cooldown has passed.
func (e *Evaluator) Evaluate(limits []Limit, now time.Time) []Decision {
	if !e.source.IsActive() {
		return nil
	}

	level := e.source.Level()
	decisions := make([]Decision, 0, len(limits))

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range limits {
		l := &limits[i]
		d := Decision{
			LimitID:   l.ID,
			Name:      l.Name,
			Action:    ActionNone,
			SoundFile: l.SoundFile,
			Level:     level,
			Threshold: l.DBThreshold,
		}

		if IsActive(l, now) && l.SoundFile != "" && level >= l.DBThreshold && e.readyLocked(l.ID, now) {
			st := e.stateLocked(l.ID)
			st.Playing = true
			st.LastFiredAt = now
			d.Action = ActionFire
		}

		decisions = append(decisions, d)
	}

	return decisions
}

// readyLocked reports whether id is neither playing nor cooling down.
// Caller must hold e.mu.
func (e *Evaluator) readyLocked(id string, now time.Time) bool {
	st, ok := e.states[id]
	if !ok {
		return true
	}
	if st.Playing {
		return false
	}
	return st.LastFiredAt.IsZero() || now.Sub(st.LastFiredAt) >= e.cooldown
}

// stateLocked returns the state for id, creating it if needed.
// Caller must hold e.mu.
func (e *Evaluator) stateLocked(id string) *TriggerState {
	st, ok := e.states[id]
	if !ok {
		st = &TriggerState{}
		e.states[id] = st
	}
	return st
}

// Done clears the playing flag for id. Call it when playback ends or fails.
func (e *Evaluator) Done(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.states[id]; ok {
		st.Playing = false
	}
}

// State returns a copy of the trigger state for id.
func (e *Evaluator) State(id string) (TriggerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[id]
	if !ok {
		return TriggerState{}, false
	}
	return *st, true
}

// Playing returns the IDs of limits whose sound is currently playing.
func (e *Evaluator) Playing() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for id, st := range e.states {
		if st.Playing {
			ids = append(ids, id)
		}
	}
	return ids
}
