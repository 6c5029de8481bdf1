// Package limits evaluates loudness limits: time and weekday windows with a
// threshold, a per-limit cooldown and an in-flight playback guard.
package limits

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/oszuidwest/waytooloud/internal/types"
	"github.com/oszuidwest/waytooloud/internal/util"
)

// ErrMalformedLimit is returned when a limit definition cannot be evaluated.
var ErrMalformedLimit = errors.New("malformed limit")

// Weekday names as stored in limit definitions.
var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Limit is a user-defined loudness limit. The JSON layout matches the
// limits.json file written by the desktop application.
type Limit struct {
	ID            string   `json:"id" validate:"required"`
	Name          string   `json:"name" validate:"max=100"`
	TimeframeFrom string   `json:"timeframeFrom" validate:"clock"`
	TimeframeTo   string   `json:"timeframeTo" validate:"clock"`
	Weekdays      []string `json:"weekdays" validate:"dive,oneof=Sun Mon Tue Wed Thu Fri Sat"`
	SoundFile     string   `json:"soundFile" validate:"omitempty,max=4096"`
	DBThreshold   float64  `json:"dbThreshold" validate:"gte=0,lte=100"`
}

// validate is the shared validator instance for limit definitions.
var validate *validator.Validate

func init() {
	validate = types.NewValidator()
	if err := validate.RegisterValidation("clock", validClock); err != nil {
		panic(err)
	}
}

// clockPattern matches H:MM or HH:MM within 00:00..23:59.
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

func validClock(fl validator.FieldLevel) bool {
	return clockPattern.MatchString(fl.Field().String())
}

// Validate checks a limit definition. A limit that fails validation is still
// safe to evaluate; it may simply never fire.
func (l *Limit) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w %q: %w", ErrMalformedLimit, l.ID, types.FromValidator(err))
	}
	return nil
}

// Load reads limit definitions from a JSON array file. A missing file yields
// no limits.
func Load(path string) ([]Limit, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Limit{}, nil
	}
	if err != nil {
		return nil, util.WrapError("read limits", err)
	}

	var limits []Limit
	if err := json.Unmarshal(data, &limits); err != nil {
		return nil, util.WrapError("parse limits", err)
	}
	if limits == nil {
		limits = []Limit{}
	}
	return limits, nil
}

// ValidateAll validates every limit and reports duplicate IDs.
func ValidateAll(limits []Limit) error {
	var errs []error
	seen := make(map[string]bool, len(limits))
	for i := range limits {
		if err := limits[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		if id := limits[i].ID; id != "" {
			if seen[id] {
				errs = append(errs, fmt.Errorf("%w: duplicate id %q", ErrMalformedLimit, id))
			}
			seen[id] = true
		}
	}
	return errors.Join(errs...)
}
