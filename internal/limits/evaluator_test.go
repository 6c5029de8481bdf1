package limits

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLevel struct {
	mu     sync.Mutex
	active bool
	level  float64
}

func (f *fakeLevel) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeLevel) Level() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// tuesday returns a time on Tuesday 4 March 2025.
func tuesday(h, m, s int) time.Time {
	return time.Date(2025, 3, 4, h, m, s, 0, time.Local)
}

func officeLimit() Limit {
	return Limit{
		ID:            "office",
		Name:          "Office hours",
		TimeframeFrom: "08:00",
		TimeframeTo:   "17:00",
		Weekdays:      []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		SoundFile:     "shh.mp3",
		DBThreshold:   60,
	}
}

func actions(ds []Decision) []Action {
	out := make([]Action, len(ds))
	for i, d := range ds {
		out[i] = d.Action
	}
	return out
}

func TestEvaluateFiresWhenThresholdReached(t *testing.T) {
	src := &fakeLevel{active: true, level: 72}
	e := NewEvaluator(src)
	now := tuesday(10, 30, 0)

	ds := e.Evaluate([]Limit{officeLimit()}, now)
	require.Len(t, ds, 1)
	assert.Equal(t, ActionFire, ds[0].Action)
	assert.Equal(t, "office", ds[0].LimitID)
	assert.Equal(t, "shh.mp3", ds[0].SoundFile)
	assert.Equal(t, 72.0, ds[0].Level)
	assert.Equal(t, 60.0, ds[0].Threshold)

	st, ok := e.State("office")
	require.True(t, ok)
	assert.True(t, st.Playing)
	assert.Equal(t, now, st.LastFiredAt)
}

func TestEvaluateThresholdIsInclusive(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true, level: 60})
	ds := e.Evaluate([]Limit{officeLimit()}, tuesday(9, 0, 0))
	assert.Equal(t, []Action{ActionFire}, actions(ds))
}

func TestEvaluateInactiveSourceIsNoop(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: false, level: 100})
	assert.Nil(t, e.Evaluate([]Limit{officeLimit()}, tuesday(10, 0, 0)))

	_, ok := e.State("office")
	assert.False(t, ok)
}

func TestEvaluateNoFireConditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Limit)
		now    time.Time
		level  float64
	}{
		{"below threshold", func(*Limit) {}, tuesday(10, 0, 0), 59.9},
		{"outside window", func(*Limit) {}, tuesday(17, 1, 0), 90},
		{"wrong weekday", func(l *Limit) { l.Weekdays = []string{"Sat"} }, tuesday(10, 0, 0), 90},
		{"no sound file", func(l *Limit) { l.SoundFile = "" }, tuesday(10, 0, 0), 90},
		{"malformed from", func(l *Limit) { l.TimeframeFrom = "8am" }, tuesday(10, 0, 0), 90},
		{"empty to", func(l *Limit) { l.TimeframeTo = "" }, tuesday(10, 0, 0), 90},
		{"no weekdays", func(l *Limit) { l.Weekdays = nil }, tuesday(10, 0, 0), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := officeLimit()
			tt.mutate(&l)
			e := NewEvaluator(&fakeLevel{active: true, level: tt.level})

			ds := e.Evaluate([]Limit{l}, tt.now)
			assert.Equal(t, []Action{ActionNone}, actions(ds))
			_, ok := e.State(l.ID)
			assert.False(t, ok, "no state is created for a limit that never fired")
		})
	}
}

func TestEvaluatePlayingGuard(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true, level: 90})
	limits := []Limit{officeLimit()}
	start := tuesday(10, 0, 0)

	require.Equal(t, []Action{ActionFire}, actions(e.Evaluate(limits, start)))

	// Still playing long after the cooldown: must not fire.
	assert.Equal(t, []Action{ActionNone}, actions(e.Evaluate(limits, start.Add(10*time.Second))))

	e.Done("office")
	assert.Equal(t, []Action{ActionFire}, actions(e.Evaluate(limits, start.Add(10*time.Second+250*time.Millisecond))))
}

func TestEvaluateCooldown(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true, level: 90})
	limits := []Limit{officeLimit()}
	start := tuesday(10, 0, 0)

	require.Equal(t, []Action{ActionFire}, actions(e.Evaluate(limits, start)))
	e.Done("office")

	assert.Equal(t, []Action{ActionNone}, actions(e.Evaluate(limits, start.Add(1999*time.Millisecond))))
	assert.Equal(t, []Action{ActionFire}, actions(e.Evaluate(limits, start.Add(2000*time.Millisecond))))
}

func TestEvaluateTicksFireAtMostOncePerCooldown(t *testing.T) {
	src := &fakeLevel{active: true, level: 90}
	e := NewEvaluator(src)
	limits := []Limit{officeLimit()}
	start := tuesday(10, 0, 0)

	fires := 0
	for tick := range 40 {
		now := start.Add(time.Duration(tick) * 250 * time.Millisecond)
		for _, d := range e.Evaluate(limits, now) {
			if d.Action == ActionFire {
				fires++
				// Playback completes immediately.
				e.Done(d.LimitID)
			}
		}
	}
	// 10 seconds of ticks with a 2 second cooldown.
	assert.Equal(t, 5, fires)
}

func TestEvaluateLimitsAreIndependent(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true, level: 75})
	a := officeLimit()
	b := officeLimit()
	b.ID = "late"
	b.DBThreshold = 70
	c := officeLimit()
	c.ID = "quiet"
	c.DBThreshold = 80

	ds := e.Evaluate([]Limit{a, b, c}, tuesday(11, 0, 0))
	assert.Equal(t, []Action{ActionFire, ActionFire, ActionNone}, actions(ds))

	e.Done("office")
	stA, _ := e.State("office")
	stB, _ := e.State("late")
	assert.False(t, stA.Playing)
	assert.True(t, stB.Playing)
	assert.ElementsMatch(t, []string{"late"}, e.Playing())
}

func TestEvaluateOvernightWindow(t *testing.T) {
	l := officeLimit()
	l.TimeframeFrom = "22:00"
	l.TimeframeTo = "06:00"
	l.Weekdays = []string{"Tue"}

	for _, tc := range []struct {
		now  time.Time
		want Action
	}{
		{tuesday(23, 0, 0), ActionFire},
		{tuesday(5, 0, 0), ActionFire},
		{tuesday(12, 0, 0), ActionNone},
	} {
		e := NewEvaluator(&fakeLevel{active: true, level: 90})
		assert.Equal(t, []Action{tc.want}, actions(e.Evaluate([]Limit{l}, tc.now)), "at %s", tc.now.Format("15:04"))
	}
}

func TestEvaluateStateSurvivesEdits(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true, level: 90})
	start := tuesday(10, 0, 0)

	l := officeLimit()
	require.Equal(t, []Action{ActionFire}, actions(e.Evaluate([]Limit{l}, start)))
	e.Done(l.ID)

	// Editing the threshold keeps the cooldown for the same ID.
	l.DBThreshold = 10
	assert.Equal(t, []Action{ActionNone}, actions(e.Evaluate([]Limit{l}, start.Add(time.Second))))

	// Removing and re-adding the limit does not reset it either.
	e.Evaluate(nil, start.Add(1500*time.Millisecond))
	assert.Equal(t, []Action{ActionNone}, actions(e.Evaluate([]Limit{l}, start.Add(1900*time.Millisecond))))
	assert.Equal(t, []Action{ActionFire}, actions(e.Evaluate([]Limit{l}, start.Add(2*time.Second))))
}

func TestDoneUnknownID(t *testing.T) {
	e := NewEvaluator(&fakeLevel{active: true})
	assert.NotPanics(t, func() { e.Done("missing") })
}

func TestEvaluateConcurrentDone(t *testing.T) {
	src := &fakeLevel{active: true, level: 90}
	e := NewEvaluator(src)
	limits := []Limit{officeLimit()}
	start := tuesday(10, 0, 0)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			now := start.Add(time.Duration(i) * DefaultCooldown)
			for _, d := range e.Evaluate(limits, now) {
				if d.Action == ActionFire {
					e.Done(d.LimitID)
				}
			}
		})
	}
	wg.Wait()

	st, ok := e.State("office")
	require.True(t, ok)
	assert.False(t, st.Playing)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "fire", ActionFire.String())
	assert.Equal(t, "none", ActionNone.String())
}
