package marionette

import (
	"fmt"

	"github.com/google/uuid"
)

// ActuatorType tags the variant of an ActuatorClass. The set is closed and
// part of the persistence format.
type ActuatorType uint8

const (
	ActuatorTransform ActuatorType = iota // position, size, scale and rotation
	ActuatorSetValue                      // one named scalar
	ActuatorKinematic                     // rigid body velocities
	ActuatorSetFlag                       // one named boolean flag
)

var actuatorTypeNames = [...]string{
	ActuatorTransform: "Transform",
	ActuatorSetValue:  "SetValue",
	ActuatorKinematic: "Kinematic",
	ActuatorSetFlag:   "SetFlag",
}

func (t ActuatorType) String() string {
	if int(t) < len(actuatorTypeNames) {
		return actuatorTypeNames[t]
	}
	return fmt.Sprintf("ActuatorType(%d)", uint8(t))
}

// ParseActuatorType returns the type with the given name.
func ParseActuatorType(name string) (ActuatorType, bool) {
	for i, n := range actuatorTypeNames {
		if n == name {
			return ActuatorType(i), true
		}
	}
	return 0, false
}

// ParamName names the scalar a SetValue actuator drives.
type ParamName uint8

const (
	ParamDrawableTimeScale ParamName = iota // DrawableItem.TimeScale
	ParamDrawableAlpha                      // DrawableItem.Alpha
	ParamLinearVelocityX                    // RigidBodyItem.LinearVelocity.X
	ParamLinearVelocityY                    // RigidBodyItem.LinearVelocity.Y
	ParamAngularVelocity                    // RigidBodyItem.AngularVelocity
)

var paramNames = [...]string{
	ParamDrawableTimeScale: "DrawableTimeScale",
	ParamDrawableAlpha:     "DrawableAlpha",
	ParamLinearVelocityX:   "LinearVelocityX",
	ParamLinearVelocityY:   "LinearVelocityY",
	ParamAngularVelocity:   "AngularVelocity",
}

func (p ParamName) String() string {
	if int(p) < len(paramNames) {
		return paramNames[p]
	}
	return fmt.Sprintf("ParamName(%d)", uint8(p))
}

// ParseParamName returns the parameter with the given name.
func ParseParamName(name string) (ParamName, bool) {
	for i, n := range paramNames {
		if n == name {
			return ParamName(i), true
		}
	}
	return 0, false
}

// onDrawable reports whether the parameter lives on the drawable item
// rather than the rigid body.
func (p ParamName) onDrawable() bool {
	return p == ParamDrawableTimeScale || p == ParamDrawableAlpha
}

// FlagName names the boolean a SetFlag actuator drives.
type FlagName uint8

const (
	FlagVisibleInGame FlagName = iota
	FlagUpdateDrawable
	FlagUpdateMaterial
	FlagRestartDrawable
	FlagFlipHorizontally
	FlagBullet
	FlagSensor
	FlagEnabled
	FlagCanSleep
	FlagDiscardRotation
)

var flagNames = [...]string{
	FlagVisibleInGame:    "VisibleInGame",
	FlagUpdateDrawable:   "UpdateDrawable",
	FlagUpdateMaterial:   "UpdateMaterial",
	FlagRestartDrawable:  "RestartDrawable",
	FlagFlipHorizontally: "FlipHorizontally",
	FlagBullet:           "Bullet",
	FlagSensor:           "Sensor",
	FlagEnabled:          "Enabled",
	FlagCanSleep:         "CanSleep",
	FlagDiscardRotation:  "DiscardRotation",
}

var drawableFlagBits = map[FlagName]DrawableFlags{
	FlagVisibleInGame:    DrawableVisibleInGame,
	FlagUpdateDrawable:   DrawableUpdateDrawable,
	FlagUpdateMaterial:   DrawableUpdateMaterial,
	FlagRestartDrawable:  DrawableRestartDrawable,
	FlagFlipHorizontally: DrawableFlipHorizontally,
}

var bodyFlagBits = map[FlagName]RigidBodyFlags{
	FlagBullet:          RigidBodyBullet,
	FlagSensor:          RigidBodySensor,
	FlagEnabled:         RigidBodyEnabled,
	FlagCanSleep:        RigidBodyCanSleep,
	FlagDiscardRotation: RigidBodyDiscardRotation,
}

func (f FlagName) String() string {
	if int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("FlagName(%d)", uint8(f))
}

// ParseFlagName returns the flag with the given name.
func ParseFlagName(name string) (FlagName, bool) {
	for i, n := range flagNames {
		if n == name {
			return FlagName(i), true
		}
	}
	return 0, false
}

// FlagAction is what a SetFlag actuator does to its flag at Finish.
type FlagAction uint8

const (
	FlagToggle FlagAction = iota // invert the state captured at Start
	FlagOn                       // set
	FlagOff                      // clear
)

var flagActionNames = [...]string{
	FlagToggle: "Toggle",
	FlagOn:     "On",
	FlagOff:    "Off",
}

func (a FlagAction) String() string {
	if int(a) < len(flagActionNames) {
		return flagActionNames[a]
	}
	return fmt.Sprintf("FlagAction(%d)", uint8(a))
}

// ParseFlagAction returns the action with the given name.
func ParseFlagAction(name string) (FlagAction, bool) {
	for i, n := range flagActionNames {
		if n == name {
			return FlagAction(i), true
		}
	}
	return 0, false
}

// ActuatorEnd is the end state payload of an ActuatorClass. It is
// implemented only by TransformEnd, SetValueEnd, KinematicEnd and
// SetFlagEnd.
type ActuatorEnd interface {
	Type() ActuatorType
	hash(h *hasher)
}

// TransformEnd is the end state of a Transform actuator.
type TransformEnd struct {
	Position Vec2
	Size     Vec2
	Scale    Vec2
	Rotation float64
}

// Type implements ActuatorEnd.
func (TransformEnd) Type() ActuatorType { return ActuatorTransform }

func (e TransformEnd) hash(h *hasher) {
	h.vec2(e.Position)
	h.vec2(e.Size)
	h.vec2(e.Scale)
	h.f64(e.Rotation)
}

// SetValueEnd is the end state of a SetValue actuator.
type SetValueEnd struct {
	Param ParamName
	Value float64
}

// Type implements ActuatorEnd.
func (SetValueEnd) Type() ActuatorType { return ActuatorSetValue }

func (e SetValueEnd) hash(h *hasher) {
	h.u64(uint64(e.Param))
	h.f64(e.Value)
}

// KinematicEnd is the end state of a Kinematic actuator.
type KinematicEnd struct {
	LinearVelocity  Vec2
	AngularVelocity float64
}

// Type implements ActuatorEnd.
func (KinematicEnd) Type() ActuatorType { return ActuatorKinematic }

func (e KinematicEnd) hash(h *hasher) {
	h.vec2(e.LinearVelocity)
	h.f64(e.AngularVelocity)
}

// SetFlagEnd is the end state of a SetFlag actuator.
type SetFlagEnd struct {
	Flag   FlagName
	Action FlagAction
}

// Type implements ActuatorEnd.
func (SetFlagEnd) Type() ActuatorType { return ActuatorSetFlag }

func (e SetFlagEnd) hash(h *hasher) {
	h.u64(uint64(e.Flag))
	h.u64(uint64(e.Action))
}

// ActuatorClass describes one animated property of one node: the target,
// the time window normalized to the track duration, the interpolation
// method and the end state. The runtime treats classes as immutable.
type ActuatorClass struct {
	ID   string
	Node string
	// StartTime and Duration are fractions of the track duration.
	StartTime float64
	Duration  float64
	Method    Interpolation
	End       ActuatorEnd
}

// NewActuatorClass creates a class spanning the whole track with linear
// interpolation.
func NewActuatorClass(node string, end ActuatorEnd) *ActuatorClass {
	return &ActuatorClass{
		ID:       uuid.NewString(),
		Node:     node,
		Duration: 1,
		Method:   InterpolationLinear,
		End:      end,
	}
}

// Type returns the variant tag.
func (c *ActuatorClass) Type() ActuatorType {
	if c.End == nil {
		panic(fmt.Sprintf("marionette: actuator %q has no end state", c.ID))
	}
	return c.End.Type()
}

// Window returns the effective [start, end] window clamped into [0, 1].
func (c *ActuatorClass) Window() (start, end float64) {
	start = clamp01(c.StartTime)
	end = clamp01(c.StartTime + c.Duration)
	return start, end
}

// Hash returns a content hash over every field, id included.
func (c *ActuatorClass) Hash() uint64 {
	h := newHasher()
	c.hashInto(h)
	return h.sum()
}

func (c *ActuatorClass) hashInto(h *hasher) {
	h.str(c.ID)
	h.str(c.Node)
	h.f64(c.StartTime)
	h.f64(c.Duration)
	h.u64(uint64(c.Method))
	h.u64(uint64(c.Type()))
	c.End.hash(h)
}

// Copy returns a copy with the same id.
func (c *ActuatorClass) Copy() *ActuatorClass {
	dup := *c
	return &dup
}

// Clone returns a copy with a fresh id.
func (c *ActuatorClass) Clone() *ActuatorClass {
	dup := c.Copy()
	dup.ID = uuid.NewString()
	return dup
}

// Actuator is the runtime driver of one ActuatorClass. Start captures the
// node's current value as the baseline, Apply writes the interpolated value
// for normalized time t, and Finish writes the exact end value.
type Actuator interface {
	Class() *ActuatorClass
	Start(n *Node)
	Apply(n *Node, t float64)
	Finish(n *Node)
}

// NewActuator instantiates the runtime actuator for class.
func NewActuator(class *ActuatorClass) Actuator {
	switch end := class.End.(type) {
	case TransformEnd:
		return &transformActuator{class: class, end: end}
	case SetValueEnd:
		return &setValueActuator{class: class, end: end}
	case KinematicEnd:
		return &kinematicActuator{class: class, end: end}
	case SetFlagEnd:
		return &setFlagActuator{class: class, end: end}
	default:
		panic(fmt.Sprintf("marionette: unreachable actuator variant %T", class.End))
	}
}

// --- Transform ---

type transformActuator struct {
	class *ActuatorClass
	end   TransformEnd
	start TransformEnd
}

func (a *transformActuator) Class() *ActuatorClass { return a.class }

func (a *transformActuator) Start(n *Node) {
	a.start = TransformEnd{
		Position: n.Position,
		Size:     n.Size,
		Scale:    n.Scale,
		Rotation: n.Rotation,
	}
}

func (a *transformActuator) Apply(n *Node, t float64) {
	m := a.class.Method
	n.Position = m.InterpolateVec2(a.start.Position, a.end.Position, t)
	n.Size = m.InterpolateVec2(a.start.Size, a.end.Size, t)
	n.Scale = m.InterpolateVec2(a.start.Scale, a.end.Scale, t)
	n.Rotation = m.Interpolate(a.start.Rotation, a.end.Rotation, t)
}

func (a *transformActuator) Finish(n *Node) {
	n.Position = a.end.Position
	n.Size = a.end.Size
	n.Scale = a.end.Scale
	n.Rotation = a.end.Rotation
}

// --- SetValue ---

type setValueActuator struct {
	class    *ActuatorClass
	end      SetValueEnd
	start    float64
	disabled bool
}

func (a *setValueActuator) Class() *ActuatorClass { return a.class }

// target returns a pointer to the driven scalar, or nil when the node lacks
// the capability.
func (a *setValueActuator) target(n *Node) *float64 {
	if a.end.Param.onDrawable() {
		if n.Drawable == nil {
			return nil
		}
		if a.end.Param == ParamDrawableAlpha {
			return &n.Drawable.Alpha
		}
		return &n.Drawable.TimeScale
	}
	if n.RigidBody == nil {
		return nil
	}
	switch a.end.Param {
	case ParamLinearVelocityX:
		return &n.RigidBody.LinearVelocity.X
	case ParamLinearVelocityY:
		return &n.RigidBody.LinearVelocity.Y
	case ParamAngularVelocity:
		return &n.RigidBody.AngularVelocity
	}
	return nil
}

func (a *setValueActuator) Start(n *Node) {
	p := a.target(n)
	if p == nil {
		logger.Warn("set value actuator target lacks parameter",
			"actuator", a.class.ID, "node", n.Name, "param", a.end.Param.String())
		a.disabled = true
		return
	}
	a.disabled = false
	a.start = *p
}

func (a *setValueActuator) Apply(n *Node, t float64) {
	if a.disabled {
		return
	}
	if p := a.target(n); p != nil {
		*p = a.class.Method.Interpolate(a.start, a.end.Value, t)
	}
}

func (a *setValueActuator) Finish(n *Node) {
	if a.disabled {
		return
	}
	if p := a.target(n); p != nil {
		*p = a.end.Value
	}
}

// --- Kinematic ---

type kinematicActuator struct {
	class    *ActuatorClass
	end      KinematicEnd
	start    KinematicEnd
	disabled bool
}

func (a *kinematicActuator) Class() *ActuatorClass { return a.class }

func (a *kinematicActuator) Start(n *Node) {
	a.disabled = true
	body := n.RigidBody
	if body == nil {
		logger.Warn("kinematic actuator target has no rigid body",
			"actuator", a.class.ID, "node", n.Name)
		return
	}
	if body.Simulation != SimulationKinematic {
		logger.Warn("kinematic actuator target is not kinematically simulated",
			"actuator", a.class.ID, "node", n.Name, "simulation", body.Simulation.String())
		return
	}
	a.disabled = false
	a.start = KinematicEnd{
		LinearVelocity:  body.LinearVelocity,
		AngularVelocity: body.AngularVelocity,
	}
}

func (a *kinematicActuator) Apply(n *Node, t float64) {
	if a.disabled || n.RigidBody == nil {
		return
	}
	m := a.class.Method
	n.RigidBody.LinearVelocity = m.InterpolateVec2(a.start.LinearVelocity, a.end.LinearVelocity, t)
	n.RigidBody.AngularVelocity = m.Interpolate(a.start.AngularVelocity, a.end.AngularVelocity, t)
}

func (a *kinematicActuator) Finish(n *Node) {
	if a.disabled || n.RigidBody == nil {
		return
	}
	n.RigidBody.LinearVelocity = a.end.LinearVelocity
	n.RigidBody.AngularVelocity = a.end.AngularVelocity
}

// --- SetFlag ---

type setFlagActuator struct {
	class    *ActuatorClass
	end      SetFlagEnd
	start    bool
	disabled bool
}

func (a *setFlagActuator) Class() *ActuatorClass { return a.class }

// flag reads the flag from n. ok is false when n lacks the capability.
func (a *setFlagActuator) flag(n *Node) (on, ok bool) {
	if bit, isDrawable := drawableFlagBits[a.end.Flag]; isDrawable {
		if n.Drawable == nil {
			return false, false
		}
		return n.Drawable.TestFlag(bit), true
	}
	if bit, isBody := bodyFlagBits[a.end.Flag]; isBody {
		if n.RigidBody == nil {
			return false, false
		}
		return n.RigidBody.TestFlag(bit), true
	}
	return false, false
}

func (a *setFlagActuator) setFlag(n *Node, on bool) {
	if bit, isDrawable := drawableFlagBits[a.end.Flag]; isDrawable && n.Drawable != nil {
		n.Drawable.SetFlag(bit, on)
		return
	}
	if bit, isBody := bodyFlagBits[a.end.Flag]; isBody && n.RigidBody != nil {
		n.RigidBody.SetFlag(bit, on)
	}
}

func (a *setFlagActuator) Start(n *Node) {
	on, ok := a.flag(n)
	if !ok {
		logger.Warn("set flag actuator target lacks flag",
			"actuator", a.class.ID, "node", n.Name, "flag", a.end.Flag.String())
		a.disabled = true
		return
	}
	a.disabled = false
	a.start = on
}

// Apply is a no-op: flags change only at Finish.
func (a *setFlagActuator) Apply(*Node, float64) {}

func (a *setFlagActuator) Finish(n *Node) {
	if a.disabled {
		return
	}
	switch a.end.Action {
	case FlagToggle:
		a.setFlag(n, !a.start)
	case FlagOn:
		a.setFlag(n, true)
	case FlagOff:
		a.setFlag(n, false)
	}
}
