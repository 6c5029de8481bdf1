// Package config provides application configuration management.
package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/oszuidwest/waytooloud/internal/limits"
	"github.com/oszuidwest/waytooloud/internal/types"
	"github.com/oszuidwest/waytooloud/internal/util"
)

// AppName names the per-user config and data directories.
const AppName = "waytooloud"

// Configuration defaults are used when values are not specified.
const (
	DefaultLogLevel           = "info"
	DefaultSampleRate         = 48000
	DefaultMinDB              = -60.0
	DefaultMaxDB              = 0.0
	DefaultEvaluateIntervalMs = 250
	DefaultPeakIntervalMs     = 50
	DefaultPeakWindowMs       = 20000
	DefaultSilenceWarnMs      = 300000
)

// SystemConfig holds process-level settings.
type SystemConfig struct {
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"` // Minimum log level
	LogPath  string `json:"log_path"`                                                   // Rotating application log (empty = stderr only)
}

// AudioConfig holds audio input device settings.
type AudioConfig struct {
	Input      string `json:"input"`                                                                 // Capture device ID (empty = system default)
	SampleRate int    `json:"sample_rate" validate:"oneof=8000 16000 22050 32000 44100 48000 96000"` // Capture rate in Hz
}

// SensitivityConfig maps measured dB onto the 0-100% loudness scale.
type SensitivityConfig struct {
	MinDB float64 `json:"min_db" validate:"gte=-100,lte=-30,ltfield=MaxDB"` // dB reported as 0%
	MaxDB float64 `json:"max_db" validate:"gte=-40,lte=0"`                  // dB reported as 100%
}

// MonitorConfig holds the polling cadence of the monitor loops.
type MonitorConfig struct {
	EvaluateIntervalMs int64 `json:"evaluate_interval_ms" validate:"gte=50,lte=5000"` // Limit evaluation period
	PeakIntervalMs     int64 `json:"peak_interval_ms" validate:"gte=10,lte=1000"`     // Peak tracker sampling period
	PeakWindowMs       int64 `json:"peak_window_ms" validate:"gte=1000,lte=600000"`   // Peak tracker window
	SilenceWarnMs      int64 `json:"silence_warn_ms" validate:"gte=10000"`            // No-signal time before the input is reported dead
}

// SoundsConfig holds the alert sound library location.
type SoundsConfig struct {
	Dir string `json:"dir"` // Directory relative sound file names resolve against
}

// LimitsConfig holds the location of the limit definitions.
type LimitsConfig struct {
	Path string `json:"path"` // limits.json path
}

// WebhookConfig holds webhook notification settings.
type WebhookConfig struct {
	URL string `json:"url" validate:"omitempty,url,max=2048"` // Webhook URL for limit alerts
}

// EmailConfig holds Microsoft Graph email notification settings.
type EmailConfig struct {
	TenantID     string `json:"tenant_id" validate:"omitempty,max=100"`     // Azure AD tenant ID
	ClientID     string `json:"client_id" validate:"omitempty,max=100"`     // App registration client ID
	ClientSecret string `json:"client_secret" validate:"omitempty,max=500"` // App registration client secret
	FromAddress  string `json:"from_address" validate:"omitempty,email"`    // Shared mailbox sender address
	Recipients   string `json:"recipients" validate:"omitempty,max=1000"`   // Comma-separated recipient addresses
}

// EventLogConfig holds the event log location.
type EventLogConfig struct {
	Path string `json:"path"` // JSON lines event log
}

// NotificationsConfig holds all notification channel settings.
type NotificationsConfig struct {
	Webhook  WebhookConfig  `json:"webhook"`   // Webhook settings
	Email    EmailConfig    `json:"email"`     // Email settings
	Desktop  bool           `json:"desktop"`   // Desktop notification on every fire
	EventLog EventLogConfig `json:"event_log"` // Event log settings
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System        SystemConfig        `json:"system"`
	Audio         AudioConfig         `json:"audio"`
	Sensitivity   SensitivityConfig   `json:"sensitivity"`
	Monitor       MonitorConfig       `json:"monitor"`
	Sounds        SoundsConfig        `json:"sounds"`
	Limits        LimitsConfig        `json:"limits"`
	Notifications NotificationsConfig `json:"notifications"`

	mu       sync.RWMutex
	filePath string
	limits   []limits.Limit
}

// validate is the shared validator instance for configuration.
var validate = types.NewValidator()

// DefaultPath returns the per-user config file location, creating its
// directory if needed.
func DefaultPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(AppName, "config.json"))
	if err != nil {
		return "", util.WrapError("resolve config path", err)
	}
	return path, nil
}

// dataPath returns a path inside the per-user data directory.
func dataPath(elem ...string) string {
	return filepath.Join(append([]string{xdg.DataHome, AppName}, elem...)...)
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	c := &Config{filePath: filePath, limits: []limits.Limit{}}
	c.applyDefaults()
	return c
}

// Load reads config from file, creating a default if none exists, then loads
// the limit definitions it points to.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		if err := c.saveLocked(); err != nil {
			return err
		}
		return c.loadLimitsLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	if err := c.validate(); err != nil {
		return err
	}

	return c.loadLimitsLocked()
}

// Reload re-reads the config and limits files. On error the current values
// are kept.
func (c *Config) Reload() error {
	next := New(c.FilePath())
	data, err := os.ReadFile(next.filePath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, next); err != nil {
		return util.WrapError("parse config", err)
	}
	next.applyDefaults()
	if err := next.validate(); err != nil {
		return err
	}
	if err := next.loadLimitsLocked(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.System = next.System
	c.Audio = next.Audio
	c.Sensitivity = next.Sensitivity
	c.Monitor = next.Monitor
	c.Sounds = next.Sounds
	c.Limits = next.Limits
	c.Notifications = next.Notifications
	c.limits = next.limits
	return nil
}

// validate checks all configuration fields for correctness.
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("invalid config: %w", types.FromValidator(err))
		}
		return util.WrapError("validate config", err)
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	// System defaults
	c.System.LogLevel = cmp.Or(c.System.LogLevel, DefaultLogLevel)
	// Audio defaults
	c.Audio.SampleRate = cmp.Or(c.Audio.SampleRate, DefaultSampleRate)
	// Sensitivity defaults; 0 is a valid max_db but never a valid min_db
	if c.Sensitivity.MinDB == 0 {
		c.Sensitivity.MinDB = DefaultMinDB
	}
	// Monitor defaults
	c.Monitor.EvaluateIntervalMs = cmp.Or(c.Monitor.EvaluateIntervalMs, DefaultEvaluateIntervalMs)
	c.Monitor.PeakIntervalMs = cmp.Or(c.Monitor.PeakIntervalMs, DefaultPeakIntervalMs)
	c.Monitor.PeakWindowMs = cmp.Or(c.Monitor.PeakWindowMs, DefaultPeakWindowMs)
	c.Monitor.SilenceWarnMs = cmp.Or(c.Monitor.SilenceWarnMs, DefaultSilenceWarnMs)
	// Path defaults
	c.Sounds.Dir = cmp.Or(c.Sounds.Dir, dataPath("sounds"))
	c.Limits.Path = cmp.Or(c.Limits.Path, dataPath("limits.json"))
	c.Notifications.EventLog.Path = cmp.Or(c.Notifications.EventLog.Path, dataPath("events.jsonl"))
}

// loadLimitsLocked reads the limits file. Invalid limits are kept and logged;
// they are safe to evaluate and simply never fire. Caller must hold c.mu.
func (c *Config) loadLimitsLocked() error {
	loaded, err := limits.Load(c.Limits.Path)
	if err != nil {
		return err
	}
	if err := limits.ValidateAll(loaded); err != nil {
		slog.Warn("some limits are invalid and may never fire", "path", c.Limits.Path, "error", err)
	}
	c.limits = loaded
	return nil
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Getters for individual settings ---

// FilePath returns the config file path.
func (c *Config) FilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filePath
}

// LimitsPath returns the limits file path.
func (c *Config) LimitsPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Limits.Path
}

// AudioInput returns the configured audio input device.
func (c *Config) AudioInput() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Audio.Input
}

// ConfiguredLimits returns a copy of the loaded limit definitions.
func (c *Config) ConfiguredLimits() []limits.Limit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.limits)
}

// GraphConfig returns a copy of the current Graph/Email configuration.
func (c *Config) GraphConfig() types.GraphConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.GraphConfig{
		TenantID:     c.Notifications.Email.TenantID,
		ClientID:     c.Notifications.Email.ClientID,
		ClientSecret: c.Notifications.Email.ClientSecret,
		FromAddress:  c.Notifications.Email.FromAddress,
		Recipients:   c.Notifications.Email.Recipients,
	}
}

// --- Setters for individual settings ---

// SetAudioInput updates the audio input device and saves the configuration.
func (c *Config) SetAudioInput(input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Audio.Input = input
	return c.saveLocked()
}

// SetSensitivity validates and stores a new dB range and saves the configuration.
func (c *Config) SetSensitivity(minDB, maxDB float64) error {
	s := SensitivityConfig{MinDB: minDB, MaxDB: maxDB}
	if err := validate.Struct(&s); err != nil {
		return fmt.Errorf("invalid sensitivity: %w", types.FromValidator(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sensitivity = s
	return c.saveLocked()
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values.
type Snapshot struct {
	// System
	LogLevel string
	LogPath  string

	// Audio
	AudioInput string
	SampleRate int

	// Sensitivity
	MinDB float64
	MaxDB float64

	// Monitor
	EvaluateInterval time.Duration
	PeakInterval     time.Duration
	PeakWindow       time.Duration
	SilenceWarn      time.Duration

	// Paths
	SoundsDir    string
	LimitsPath   string
	EventLogPath string

	// Notifications
	WebhookURL        string
	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphFromAddress  string
	GraphRecipients   string
	Desktop           bool

	// Entities
	Limits []limits.Limit
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		// System
		LogLevel: c.System.LogLevel,
		LogPath:  c.System.LogPath,

		// Audio
		AudioInput: c.Audio.Input,
		SampleRate: cmp.Or(c.Audio.SampleRate, DefaultSampleRate),

		// Sensitivity
		MinDB: c.Sensitivity.MinDB,
		MaxDB: c.Sensitivity.MaxDB,

		// Monitor (with defaults)
		EvaluateInterval: time.Duration(cmp.Or(c.Monitor.EvaluateIntervalMs, DefaultEvaluateIntervalMs)) * time.Millisecond,
		PeakInterval:     time.Duration(cmp.Or(c.Monitor.PeakIntervalMs, DefaultPeakIntervalMs)) * time.Millisecond,
		PeakWindow:       time.Duration(cmp.Or(c.Monitor.PeakWindowMs, DefaultPeakWindowMs)) * time.Millisecond,
		SilenceWarn:      time.Duration(cmp.Or(c.Monitor.SilenceWarnMs, DefaultSilenceWarnMs)) * time.Millisecond,

		// Paths
		SoundsDir:    c.Sounds.Dir,
		LimitsPath:   c.Limits.Path,
		EventLogPath: c.Notifications.EventLog.Path,

		// Notifications
		WebhookURL:        c.Notifications.Webhook.URL,
		GraphTenantID:     c.Notifications.Email.TenantID,
		GraphClientID:     c.Notifications.Email.ClientID,
		GraphClientSecret: c.Notifications.Email.ClientSecret,
		GraphFromAddress:  c.Notifications.Email.FromAddress,
		GraphRecipients:   c.Notifications.Email.Recipients,
		Desktop:           c.Notifications.Desktop,

		// Entities
		Limits: slices.Clone(c.limits),
	}
}

// HasWebhook reports whether a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasGraph reports whether Microsoft Graph email notifications are configured.
func (s *Snapshot) HasGraph() bool {
	return s.GraphTenantID != "" && s.GraphClientID != "" && s.GraphClientSecret != "" &&
		s.GraphFromAddress != "" && s.GraphRecipients != ""
}
