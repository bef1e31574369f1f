package marionette

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one advisory problem found in a track class. None of
// them prevent loading or playback.
type ValidationError struct {
	Actuator string // actuator class id, empty for track-level problems
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Actuator == "" {
		return fmt.Sprintf("track: %s", e.Reason)
	}
	return fmt.Sprintf("actuator %s: %s", e.Actuator, e.Reason)
}

// AggregateError collects every ValidationError found in one pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns the collected errors if err is an AggregateError.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Validate reports windows that leave [0, 1], empty windows, a
// non-positive duration, and actuators of the same type whose windows
// overlap on one node. Overlaps are legal: the later actuator wins.
func (c *AnimationTrackClass) Validate() error {
	var errs []error
	if c.Duration <= 0 {
		errs = append(errs, &ValidationError{Reason: fmt.Sprintf("duration %g is not positive", c.Duration)})
	}
	if c.Delay < 0 {
		errs = append(errs, &ValidationError{Reason: fmt.Sprintf("delay %g is negative", c.Delay)})
	}
	for i, a := range c.actuators {
		if a.StartTime < 0 || a.StartTime > 1 {
			errs = append(errs, &ValidationError{Actuator: a.ID,
				Reason: fmt.Sprintf("start time %g outside [0, 1]", a.StartTime)})
		}
		if end := a.StartTime + a.Duration; end > 1 {
			errs = append(errs, &ValidationError{Actuator: a.ID,
				Reason: fmt.Sprintf("window ends at %g, past the end of the track", end)})
		}
		if a.Duration < 0 {
			errs = append(errs, &ValidationError{Actuator: a.ID,
				Reason: fmt.Sprintf("duration %g is negative", a.Duration)})
		}
		for _, prev := range c.actuators[:i] {
			if prev.Node != a.Node || prev.Type() != a.Type() {
				continue
			}
			if windowsOverlap(prev, a) {
				errs = append(errs, &ValidationError{Actuator: a.ID,
					Reason: fmt.Sprintf("overlaps %s on node %s; it overrides the earlier one", prev.ID, a.Node)})
			}
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func windowsOverlap(a, b *ActuatorClass) bool {
	as, ae := a.Window()
	bs, be := b.Window()
	return as < be && bs < ae
}
