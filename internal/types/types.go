package types

import "time"

// MonitorState represents the current state of the loudness monitor.
type MonitorState string

const (
	// StateStopped indicates the monitor is not running.
	StateStopped MonitorState = "stopped"
	// StateStarting indicates audio capture is being opened.
	StateStarting MonitorState = "starting"
	// StateRunning indicates levels are being evaluated against limits.
	StateRunning MonitorState = "running"
	// StateStopping indicates the monitor is shutting down.
	StateStopping MonitorState = "stopping"
)

// MonitorStatus is a point-in-time view of the monitor.
type MonitorStatus struct {
	State       MonitorState `json:"state"`
	Capturing   bool         `json:"capturing"`
	NoSignal    bool         `json:"no_signal,omitempty"`
	Level       float64      `json:"level"`
	Peak        float64      `json:"peak"`
	MinDB       float64      `json:"min_db"`
	MaxDB       float64      `json:"max_db"`
	Playing     []string     `json:"playing,omitempty"`
	Uptime      string       `json:"uptime,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	LimitsCount int          `json:"limits"`
}

// Monitor timing.
const (
	// ShutdownTimeout is the duration to wait for in-flight playback on stop.
	ShutdownTimeout = 3000 * time.Millisecond
	// ReloadDebounce collapses bursts of file events into one reload.
	ReloadDebounce = 200 * time.Millisecond
)

// GraphConfig contains Microsoft Graph API settings for email notifications.
type GraphConfig struct {
	TenantID     string `json:"tenant_id,omitempty"`     // Azure AD tenant ID
	ClientID     string `json:"client_id,omitempty"`     // App registration client ID
	ClientSecret string `json:"client_secret,omitempty"` // App registration client secret
	FromAddress  string `json:"from_address,omitempty"`  // Shared mailbox address (sender)
	Recipients   string `json:"recipients,omitempty"`    // Comma-separated recipients
}
