package marionette

import "github.com/google/uuid"

// DrawableFlags is a bitmask of per-item drawable behavior switches.
type DrawableFlags uint16

const (
	DrawableVisibleInGame    DrawableFlags = 1 << iota // item is painted when the game runs
	DrawableUpdateDrawable                             // drawable time advances in Renderer.Update
	DrawableUpdateMaterial                             // material time advances in Renderer.Update
	DrawableRestartDrawable                            // one-shot: next draw zeroes material and drawable time, then clears the flag
	DrawableFlipHorizontally                           // mirror the unit shape around the node's Y axis
)

// RigidBodyFlags is a bitmask of rigid body simulation switches.
type RigidBodyFlags uint16

const (
	RigidBodyBullet          RigidBodyFlags = 1 << iota // continuous collision detection
	RigidBodySensor                                     // detects contacts but does not respond
	RigidBodyEnabled                                    // participates in the simulation
	RigidBodyCanSleep                                   // may be put to sleep when at rest
	RigidBodyDiscardRotation                            // rotation is locked
)

// DrawableItem attaches a visual to a node. The material and drawable are
// referenced by class id and resolved lazily by the Renderer.
type DrawableItem struct {
	MaterialID string
	DrawableID string
	Layer      int
	Pass       RenderPass
	Style      RenderStyle
	LineWidth  float64
	// Alpha overrides the material alpha for this item (1 = opaque).
	Alpha     float64
	TimeScale float64
	Flags     DrawableFlags
}

// NewDrawableItem returns an item with default flags, opaque alpha and unit
// line width and time scale.
func NewDrawableItem(materialID, drawableID string) *DrawableItem {
	return &DrawableItem{
		MaterialID: materialID,
		DrawableID: drawableID,
		LineWidth:  1,
		Alpha:      1,
		TimeScale:  1,
		Flags:      DrawableVisibleInGame | DrawableUpdateDrawable | DrawableUpdateMaterial,
	}
}

// TestFlag reports whether f is set.
func (d *DrawableItem) TestFlag(f DrawableFlags) bool {
	return d.Flags&f != 0
}

// SetFlag sets or clears f.
func (d *DrawableItem) SetFlag(f DrawableFlags, on bool) {
	if on {
		d.Flags |= f
	} else {
		d.Flags &^= f
	}
}

// RigidBodyItem is the accessor surface the physics engine reads and writes.
type RigidBodyItem struct {
	Simulation      SimulationType
	LinearVelocity  Vec2
	AngularVelocity float64
	Flags           RigidBodyFlags
}

// NewRigidBodyItem returns an enabled body that may sleep.
func NewRigidBodyItem(sim SimulationType) *RigidBodyItem {
	return &RigidBodyItem{
		Simulation: sim,
		Flags:      RigidBodyEnabled | RigidBodyCanSleep,
	}
}

// TestFlag reports whether f is set.
func (r *RigidBodyItem) TestFlag(f RigidBodyFlags) bool {
	return r.Flags&f != 0
}

// SetFlag sets or clears f.
func (r *RigidBodyItem) SetFlag(f RigidBodyFlags, on bool) {
	if on {
		r.Flags |= f
	} else {
		r.Flags &^= f
	}
}

// Node is the render tree value: one entity part with a local transform and
// optional drawable and rigid body capabilities. Nodes carry no hierarchy
// links; parent/child structure lives in the RenderTree that holds them, so
// a node can also exist detached for hit testing or property editing.
type Node struct {
	// Identity
	ID   string
	Name string

	// Transform (local, relative to the parent node)
	Position Vec2
	Size     Vec2
	Scale    Vec2
	Rotation float64

	// Capabilities (nil when absent)
	Drawable  *DrawableItem
	RigidBody *RigidBodyItem

	// Metadata
	UserData any
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = uuid.NewString()
	n.Scale = Vec2{1, 1}
	n.Size = Vec2{1, 1}
}

// NewNode creates a node with no capabilities.
func NewNode(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// NewDrawableNode creates a node of the given size that paints the drawable
// class drawableID with the material class materialID.
func NewDrawableNode(name, materialID, drawableID string, size Vec2) *Node {
	n := &Node{Name: name, Drawable: NewDrawableItem(materialID, drawableID)}
	nodeDefaults(n)
	n.Size = size
	return n
}

// TreeID implements Identified.
func (n *Node) TreeID() string {
	return n.ID
}

// Copy returns a deep copy that keeps the node id. Use it for content aliases
// such as undo snapshots.
func (n *Node) Copy() *Node {
	c := *n
	if n.Drawable != nil {
		d := *n.Drawable
		c.Drawable = &d
	}
	if n.RigidBody != nil {
		r := *n.RigidBody
		c.RigidBody = &r
	}
	return &c
}

// Clone returns a structural copy with a fresh id.
func (n *Node) Clone() *Node {
	c := n.Copy()
	c.ID = uuid.NewString()
	return c
}

// nodeState is the animatable subset of a node, captured so a looping track
// can put the node back where it started.
type nodeState struct {
	position Vec2
	size     Vec2
	scale    Vec2
	rotation float64
	drawable DrawableItem
	body     RigidBodyItem
}

func (n *Node) state() nodeState {
	s := nodeState{
		position: n.Position,
		size:     n.Size,
		scale:    n.Scale,
		rotation: n.Rotation,
	}
	if n.Drawable != nil {
		s.drawable = *n.Drawable
	}
	if n.RigidBody != nil {
		s.body = *n.RigidBody
	}
	return s
}

func (n *Node) restore(s nodeState) {
	n.Position = s.position
	n.Size = s.size
	n.Scale = s.scale
	n.Rotation = s.rotation
	if n.Drawable != nil {
		*n.Drawable = s.drawable
	}
	if n.RigidBody != nil {
		*n.RigidBody = s.body
	}
}
