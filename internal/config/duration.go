package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads "400ms" style strings from JSON and YAML.
// Bare JSON numbers are taken as milliseconds.
type Duration time.Duration

// DurationOf returns a pointer to d as a Duration, for optional fields
func DurationOf(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "1.5s" or a number of milliseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string or a number of milliseconds: %s", data)
	}
	*d = Duration(ms * float64(time.Millisecond))
	return nil
}

// UnmarshalYAML accepts "1.5s" or an integer number of milliseconds
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var ms int64
	if value.Tag == "!!int" {
		if err := value.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return d.parse(value.Value)
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
