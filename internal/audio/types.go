package audio

// Device represents an available audio input device.
type Device struct {
	// ID is the device identifier.
	ID string `json:"id"`
	// Name is the device display name.
	Name string `json:"name"`
	// Default reports whether the backend marks this as the default input.
	Default bool `json:"default,omitzero"`
}

// Sensitivity is the dB range mapped onto 0-100% loudness.
type Sensitivity struct {
	// MinDB is the dB level reported as 0%.
	MinDB float64 `json:"min_db"`
	// MaxDB is the dB level reported as 100%.
	MaxDB float64 `json:"max_db"`
}

// DefaultSensitivity returns the default -60..0 dB range.
func DefaultSensitivity() Sensitivity {
	return Sensitivity{MinDB: DefaultMinDB, MaxDB: DefaultMaxDB}
}
