package marionette

import (
	"encoding/json"
	"fmt"
)

type trackRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Duration  float64        `json:"duration"`
	Delay     float64        `json:"delay"`
	Looping   bool           `json:"looping"`
	Actuators []taggedRecord `json:"actuators"`
}

// trackInput is the decoding side of trackRecord; actuator entries are
// decoded one at a time.
type trackInput struct {
	ID        string  `mapstructure:"id"`
	Name      string  `mapstructure:"name"`
	Duration  float64 `mapstructure:"duration"`
	Delay     float64 `mapstructure:"delay"`
	Looping   bool    `mapstructure:"looping"`
	Actuators []any   `mapstructure:"actuators"`
}

// taggedRecord is one entry of the actuators array.
type taggedRecord struct {
	Type     string `json:"type"`
	Actuator any    `json:"actuator"`
}

type taggedInput struct {
	Type     string         `mapstructure:"type"`
	Actuator map[string]any `mapstructure:"actuator"`
}

// ToJSON encodes the class with its actuators as {type, actuator} entries.
func (c *AnimationTrackClass) ToJSON() ([]byte, error) {
	rec := trackRecord{
		ID:        c.ID,
		Name:      c.Name,
		Duration:  c.Duration,
		Delay:     c.Delay,
		Looping:   c.Looping,
		Actuators: make([]taggedRecord, len(c.actuators)),
	}
	for i, a := range c.actuators {
		rec.Actuators[i] = taggedRecord{Type: a.Type().String(), Actuator: a.record()}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode track %s: %w", c.Name, err)
	}
	return data, nil
}

// TrackClassFromJSON decodes a track class. Decoding is all or nothing: a
// missing or mistyped field anywhere, including inside an actuator, returns
// (nil, false). An unrecognized actuator type tag panics.
func TrackClassFromJSON(data []byte) (*AnimationTrackClass, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return trackFromMap(raw)
}

func trackFromMap(raw map[string]any) (*AnimationTrackClass, bool) {
	var rec trackInput
	if decodeStrict(raw, &rec) != nil {
		return nil, false
	}
	c := &AnimationTrackClass{
		ID:       rec.ID,
		Name:     rec.Name,
		Duration: rec.Duration,
		Delay:    rec.Delay,
		Looping:  rec.Looping,
	}
	for _, entry := range rec.Actuators {
		var tagged taggedInput
		if decodeStrict(entry, &tagged) != nil {
			return nil, false
		}
		typ, ok := ParseActuatorType(tagged.Type)
		if !ok {
			panic(fmt.Sprintf("marionette: unknown actuator type %q", tagged.Type))
		}
		a, ok := actuatorFromMap(typ, tagged.Actuator)
		if !ok {
			return nil, false
		}
		c.actuators = append(c.actuators, a)
	}
	return c, true
}
