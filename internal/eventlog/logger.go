// Package eventlog records capture and limit events in an append-only JSON
// lines file.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event.
type EventType string

// Capture event types.
const (
	CaptureStarted   EventType = "capture_started"
	CaptureStopped   EventType = "capture_stopped"
	CaptureFailed    EventType = "capture_failed"
	CaptureSilent    EventType = "capture_silent"
	CaptureRecovered EventType = "capture_recovered"
)

// Limit event types.
const (
	LimitFired     EventType = "limit_fired"
	PlaybackFailed EventType = "playback_failed"
)

// Event represents a single log entry with type-specific details.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	LimitID   string    `json:"limit_id,omitempty"`
	Message   string    `json:"msg,omitempty"`
	Details   any       `json:"details,omitempty"`
}

// CaptureDetails contains capture-specific event details.
type CaptureDetails struct {
	Device     string `json:"device,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// LimitDetails contains limit-specific event details.
type LimitDetails struct {
	LimitName string  `json:"limit_name,omitempty"`
	Level     float64 `json:"level"`
	Threshold float64 `json:"threshold"`
	SoundFile string  `json:"sound_file,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Logger writes events to a JSON lines file.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
	encoder  *json.Encoder
}

// NewLogger creates a new event logger at the specified path.
func NewLogger(filePath string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
	}, nil
}

// Log writes an event to the log file.
func (l *Logger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return os.ErrClosed
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	return l.encoder.Encode(event)
}

// LogCapture logs a capture event. errMsg is empty unless capture failed.
func (l *Logger) LogCapture(eventType EventType, device string, sampleRate int, errMsg string) error {
	return l.Log(&Event{
		Type: eventType,
		Details: &CaptureDetails{
			Device:     device,
			SampleRate: sampleRate,
			Error:      errMsg,
		},
	})
}

// LogLimit logs a limit event. errMsg is empty unless playback failed.
func (l *Logger) LogLimit(eventType EventType, limitID, limitName string, level, threshold float64, soundFile, errMsg string) error {
	return l.Log(&Event{
		Type:    eventType,
		LimitID: limitID,
		Details: &LimitDetails{
			LimitName: limitName,
			Level:     level,
			Threshold: threshold,
			SoundFile: soundFile,
			Error:     errMsg,
		},
	})
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	return l.filePath
}

// TypeFilter specifies which event types to include when reading.
type TypeFilter string

// Filter constants for ReadLast.
const (
	FilterAll     TypeFilter = ""
	FilterCapture TypeFilter = "capture"
	FilterLimit   TypeFilter = "limit"
)

// ParseFilter maps a user-supplied filter name to a TypeFilter.
func ParseFilter(s string) (TypeFilter, error) {
	switch s {
	case "", "all":
		return FilterAll, nil
	case string(FilterCapture):
		return FilterCapture, nil
	case string(FilterLimit):
		return FilterLimit, nil
	default:
		return FilterAll, fmt.Errorf("unknown event filter %q (want all, capture or limit)", s)
	}
}

// Matches reports whether an event type passes the filter.
func (f TypeFilter) Matches(t EventType) bool {
	switch f {
	case FilterCapture:
		return IsCaptureEvent(t)
	case FilterLimit:
		return IsLimitEvent(t)
	default:
		return true
	}
}

// MaxReadLimit is the maximum number of events that can be read at once.
const MaxReadLimit = 500

// ReadLast reads events from the log file with pagination support.
// Returns up to n events starting from offset, filtered by type, newest
// first, and whether older matching events remain. n is capped at
// MaxReadLimit. Malformed lines are skipped.
func ReadLast(filePath string, n, offset int, filter TypeFilter) ([]Event, bool, error) {
	n = min(n, MaxReadLimit)
	if n <= 0 {
		return []Event{}, false, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, false, nil
		}
		return nil, false, err
	}
	defer file.Close() //nolint:errcheck // Read-only operation, close error not critical

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}

	events := make([]Event, 0, n)
	skipped := 0
	for i := len(lines) - 1; i >= 0; i-- {
		var event Event
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			continue
		}
		if !filter.Matches(event.Type) {
			continue
		}

		if skipped < offset {
			skipped++
			continue
		}

		if len(events) == n {
			// One more match exists beyond the page.
			return events, true, nil
		}
		events = append(events, event)
	}

	return events, false, nil
}

// IsCaptureEvent reports whether the event type is a capture event.
func IsCaptureEvent(t EventType) bool {
	switch t {
	case CaptureStarted, CaptureStopped, CaptureFailed, CaptureSilent, CaptureRecovered:
		return true
	}
	return false
}

// IsLimitEvent reports whether the event type is a limit event.
func IsLimitEvent(t EventType) bool {
	return t == LimitFired || t == PlaybackFailed
}
