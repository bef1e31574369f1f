package marionette

import (
	"fmt"

	"github.com/google/uuid"
)

// AnimationTrackClass is an ordered list of actuator classes sharing one
// timeline. The class owns its actuators; runtime tracks only read them.
type AnimationTrackClass struct {
	ID       string
	Name     string
	Duration float64 // seconds
	Delay    float64 // seconds before time reaches zero
	Looping  bool

	actuators []*ActuatorClass
}

// NewTrackClass creates an empty class of the given duration.
func NewTrackClass(name string, duration float64) *AnimationTrackClass {
	return &AnimationTrackClass{
		ID:       uuid.NewString(),
		Name:     name,
		Duration: duration,
	}
}

// AddActuator appends a to the class. Declaration order is the order in
// which overlapping actuators write their node, so the last one wins.
func (c *AnimationTrackClass) AddActuator(a *ActuatorClass) {
	if a == nil {
		panic("marionette: AddActuator with nil class")
	}
	c.actuators = append(c.actuators, a)
}

// NumActuators returns the number of actuator classes.
func (c *AnimationTrackClass) NumActuators() int {
	return len(c.actuators)
}

// Actuator returns the i-th actuator class.
func (c *AnimationTrackClass) Actuator(i int) *ActuatorClass {
	return c.actuators[i]
}

// Actuators returns a copy of the actuator list.
func (c *AnimationTrackClass) Actuators() []*ActuatorClass {
	out := make([]*ActuatorClass, len(c.actuators))
	copy(out, c.actuators)
	return out
}

// FindActuatorByID returns the actuator class with the given id.
func (c *AnimationTrackClass) FindActuatorByID(id string) (*ActuatorClass, bool) {
	for _, a := range c.actuators {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// DeleteActuatorByID removes the actuator class with the given id and
// reports whether one was found.
func (c *AnimationTrackClass) DeleteActuatorByID(id string) bool {
	for i, a := range c.actuators {
		if a.ID == id {
			c.DeleteActuatorByIndex(i)
			return true
		}
	}
	return false
}

// DeleteActuatorByIndex removes the i-th actuator class.
func (c *AnimationTrackClass) DeleteActuatorByIndex(i int) {
	c.actuators = append(c.actuators[:i], c.actuators[i+1:]...)
}

// Copy returns a deep copy that keeps every id.
func (c *AnimationTrackClass) Copy() *AnimationTrackClass {
	dup := *c
	dup.actuators = make([]*ActuatorClass, len(c.actuators))
	for i, a := range c.actuators {
		dup.actuators[i] = a.Copy()
	}
	return &dup
}

// Clone returns a deep copy with fresh track and actuator ids.
func (c *AnimationTrackClass) Clone() *AnimationTrackClass {
	dup := c.Copy()
	dup.ID = uuid.NewString()
	for i, a := range dup.actuators {
		dup.actuators[i] = a.Clone()
	}
	return dup
}

// Retarget returns a Clone whose actuators target ids[node] instead of
// node. Actuators whose node is not in ids keep their target.
func (c *AnimationTrackClass) Retarget(ids map[string]string) *AnimationTrackClass {
	dup := c.Clone()
	for _, a := range dup.actuators {
		if id, ok := ids[a.Node]; ok {
			a.Node = id
		}
	}
	return dup
}

// Hash returns a content hash over the class and every actuator in order.
func (c *AnimationTrackClass) Hash() uint64 {
	h := newHasher()
	h.str(c.ID)
	h.str(c.Name)
	h.f64(c.Duration)
	h.f64(c.Delay)
	h.boolean(c.Looping)
	h.u64(uint64(len(c.actuators)))
	for _, a := range c.actuators {
		a.hashInto(h)
	}
	return h.sum()
}

// NodeTrack pairs one runtime actuator with its target node id and its
// lifecycle flags. Ended never becomes true before Started.
type NodeTrack struct {
	Node     string
	Actuator Actuator
	Started  bool
	Ended    bool
}

// AnimationTrack is the runtime instance of an AnimationTrackClass. Time
// starts at -delay and is kept within [-delay, duration].
type AnimationTrack struct {
	class  *AnimationTrackClass
	tracks []NodeTrack
	time   float64
}

// NewAnimationTrack instantiates one actuator per class in declaration
// order.
func NewAnimationTrack(class *AnimationTrackClass) *AnimationTrack {
	t := &AnimationTrack{
		class:  class,
		tracks: make([]NodeTrack, len(class.actuators)),
		time:   -class.Delay,
	}
	for i, a := range class.actuators {
		t.tracks[i] = NodeTrack{Node: a.Node, Actuator: NewActuator(a)}
	}
	return t
}

// Class returns the class the track was instantiated from.
func (t *AnimationTrack) Class() *AnimationTrackClass { return t.class }

// Name returns the class name.
func (t *AnimationTrack) Name() string { return t.class.Name }

// IsLooping reports whether the class loops.
func (t *AnimationTrack) IsLooping() bool { return t.class.Looping }

// CurrentTime returns the time accumulator in seconds. Negative values mean
// the delay is still being consumed.
func (t *AnimationTrack) CurrentTime() float64 { return t.time }

// Position returns the normalized time position, time/duration clamped to
// [0, 1]. A zero-length track is always at position 1.
func (t *AnimationTrack) Position() float64 {
	if t.class.Duration <= 0 {
		return 1
	}
	return clamp01(t.time / t.class.Duration)
}

// NodeTracks returns a copy of the per-actuator state.
func (t *AnimationTrack) NodeTracks() []NodeTrack {
	out := make([]NodeTrack, len(t.tracks))
	copy(out, t.tracks)
	return out
}

// timeEpsilon absorbs rounding when many small steps sum to the duration.
const timeEpsilon = 1e-9

// Update advances the time accumulator by dt seconds.
func (t *AnimationTrack) Update(dt float64) {
	t.time = clamp(t.time+dt, -t.class.Delay, t.class.Duration)
	if t.class.Duration-t.time < timeEpsilon {
		t.time = t.class.Duration
	}
}

// Apply runs the actuator state machine for every NodeTrack targeting n.
// It does nothing while the delay is being consumed.
func (t *AnimationTrack) Apply(n *Node) {
	if t.time < 0 {
		return
	}
	pos := t.Position()
	for i := range t.tracks {
		nt := &t.tracks[i]
		if nt.Node != n.ID {
			continue
		}
		nt.step(n, pos)
	}
}

// step advances one NodeTrack to pos.
func (nt *NodeTrack) step(n *Node, pos float64) {
	if nt.Ended {
		return
	}
	class := nt.Actuator.Class()
	s, e := class.Window()
	if pos < s {
		return
	}
	if !nt.Started {
		nt.Actuator.Start(n)
		nt.Started = true
	}
	if pos >= e {
		nt.Actuator.Finish(n)
		nt.Ended = true
		return
	}
	var local float64
	if l := e - s; l > 0 {
		local = clamp01((pos - s) / l)
	}
	nt.Actuator.Apply(n, local)
}

// IsComplete reports whether every actuator has finished and time has
// reached the duration.
func (t *AnimationTrack) IsComplete() bool {
	if t.time < t.class.Duration {
		return false
	}
	for i := range t.tracks {
		if !t.tracks[i].Ended {
			return false
		}
	}
	return true
}

// Restart rewinds the track to -delay and clears every lifecycle flag.
// Panics unless every actuator has started and ended.
func (t *AnimationTrack) Restart() {
	for i := range t.tracks {
		nt := &t.tracks[i]
		if !nt.Started || !nt.Ended {
			panic(fmt.Sprintf("marionette: Restart on track %q before actuator %s completed",
				t.class.Name, nt.Actuator.Class().ID))
		}
	}
	for i := range t.tracks {
		t.tracks[i].Started = false
		t.tracks[i].Ended = false
	}
	t.time = -t.class.Delay
}

// settle marks every NodeTrack targeting id as started and ended without
// running it. Used for actuators whose node does not exist.
func (t *AnimationTrack) settle(id string) {
	for i := range t.tracks {
		if t.tracks[i].Node == id {
			t.tracks[i].Started = true
			t.tracks[i].Ended = true
		}
	}
}
