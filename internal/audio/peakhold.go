package audio

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultPeakWindow is how long a level is remembered by the peak tracker.
	DefaultPeakWindow = 20000 * time.Millisecond
	// PeakChangeThreshold is the minimum change before a new peak is reported.
	PeakChangeThreshold = 0.5
)

// PeakEntry is a single remembered level.
type PeakEntry struct {
	Value     float64
	Timestamp time.Time
}

// PeakTracker reports the maximum level seen within a trailing time window.
// It is safe for concurrent use.
type PeakTracker struct {
	mu       sync.Mutex
	history  []PeakEntry
	window   time.Duration
	reported float64
}

// NewPeakTracker creates a peak tracker with the default window.
func NewPeakTracker() *PeakTracker {
	return &PeakTracker{window: DefaultPeakWindow}
}

// Update records value if it is positive, drops entries older than the
// window and returns the maximum of what remains, or 0 when empty.
func (p *PeakTracker) Update(value float64, now time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateLocked(value, now)
}

// Report is Update with change filtering: the returned peak only moves when
// the new maximum differs from the last reported one by more than
// PeakChangeThreshold, or when the history empties. changed reports whether
// the returned peak differs from the previous call.
func (p *PeakTracker) Report(value float64, now time.Time) (peak float64, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.updateLocked(value, now)
	if len(p.history) == 0 {
		changed = p.reported != 0
		p.reported = 0
		return 0, changed
	}
	if math.Abs(current-p.reported) > PeakChangeThreshold {
		p.reported = current
		return current, true
	}
	return p.reported, false
}

// updateLocked implements Update. Caller must hold p.mu.
func (p *PeakTracker) updateLocked(value float64, now time.Time) float64 {
	if value > 0 {
		p.history = append(p.history, PeakEntry{Value: value, Timestamp: now})
	}

	cutoff := now.Add(-p.window)
	kept := p.history[:0]
	peak := 0.0
	for _, e := range p.history {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
		peak = max(peak, e.Value)
	}
	clear(p.history[len(kept):])
	p.history = kept
	return peak
}

// SetWindow updates the trailing window length.
func (p *PeakTracker) SetWindow(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = d
}

// Reset clears remembered levels and the reported peak.
func (p *PeakTracker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
	p.reported = 0
}
