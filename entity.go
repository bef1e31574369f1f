package marionette

import (
	"github.com/google/uuid"
)

// TrackEventType identifies a track lifecycle event.
type TrackEventType uint8

const (
	TrackStarted   TrackEventType = iota // PlayTrack instantiated a runtime track
	TrackLooped                          // a looping track completed and restarted
	TrackCompleted                       // a non-looping track completed and was discarded
	TrackStopped                         // StopTrack discarded the track early
)

func (t TrackEventType) String() string {
	switch t {
	case TrackStarted:
		return "started"
	case TrackLooped:
		return "looped"
	case TrackCompleted:
		return "completed"
	case TrackStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TrackEvent carries a track lifecycle event to a TrackObserver.
type TrackEvent struct {
	Type     TrackEventType
	EntityID string
	Entity   string // entity name
	Track    string // track class name
	TrackID  string // track class id
}

// TrackObserver is the interface for optional ECS integration. When set on
// an Entity, track lifecycle events are forwarded to it.
type TrackObserver interface {
	EmitTrackEvent(event TrackEvent)
}

// Entity owns a render tree of nodes and plays at most one animation track
// over it.
type Entity struct {
	ID   string
	Name string

	tree      *RenderTree[*Node]
	track     *AnimationTrack
	baselines map[string]nodeState
	observer  TrackObserver
}

// NewEntity creates an entity with an empty tree.
func NewEntity(name string) *Entity {
	return &Entity{
		ID:   uuid.NewString(),
		Name: name,
		tree: NewRenderTree[*Node](),
	}
}

// Tree returns the entity's render tree.
func (e *Entity) Tree() *RenderTree[*Node] { return e.tree }

// SetObserver sets the receiver of track events. Nil disables events.
func (e *Entity) SetObserver(o TrackObserver) { e.observer = o }

// AddNode adds n as a top-level node.
func (e *Entity) AddNode(n *Node) { e.tree.LinkRoot(n) }

// LinkChild adds child under parent.
func (e *Entity) LinkChild(parent, child *Node) { e.tree.LinkChild(parent, child) }

// DeleteNode removes n and its subtree and returns the removed nodes.
// Actuators of the current track that target a removed node are settled
// so the track can still complete.
func (e *Entity) DeleteNode(n *Node) []*Node {
	removed := e.tree.DeleteNode(n)
	for _, r := range removed {
		if e.track != nil {
			e.track.settle(r.ID)
		}
		delete(e.baselines, r.ID)
	}
	return removed
}

// FindNodeByID returns the node with the given id.
func (e *Entity) FindNodeByID(id string) (*Node, bool) {
	return e.tree.FindNodeByID(id)
}

// FindNodeByName returns the first node in pre-order with the given name.
func (e *Entity) FindNodeByName(name string) (*Node, bool) {
	var found *Node
	e.tree.Walk(func(n *Node) {
		if found == nil && n.Name == name {
			found = n
		}
	})
	return found, found != nil
}

// Nodes returns every node in pre-order.
func (e *Entity) Nodes() []*Node {
	out := make([]*Node, 0, e.tree.Len())
	e.tree.Walk(func(n *Node) { out = append(out, n) })
	return out
}

// Clone returns a new entity with a structural copy of the tree. Every
// copied node gets a fresh id; the clone plays no track.
func (e *Entity) Clone() *Entity {
	c, _ := e.CloneWithIDs()
	return c
}

// CloneWithIDs is Clone that also returns the old id -> new id table, for
// retargeting track classes onto the clone with
// AnimationTrackClass.Retarget.
func (e *Entity) CloneWithIDs() (*Entity, map[string]string) {
	ids := make(map[string]string, e.tree.Len())
	tree := e.tree.Clone(func(n *Node) *Node {
		c := n.Clone()
		ids[n.ID] = c.ID
		return c
	})
	return &Entity{
		ID:   uuid.NewString(),
		Name: e.Name,
		tree: tree,
	}, ids
}

// Track returns the current runtime track, or nil.
func (e *Entity) Track() *AnimationTrack { return e.track }

// PlayTrack replaces the current track with a new runtime instance of
// class. The current state of every node is recorded as the baseline that
// a looping track returns to. Actuators whose node is not in the tree are
// logged and settled.
func (e *Entity) PlayTrack(class *AnimationTrackClass) *AnimationTrack {
	if e.track != nil {
		e.StopTrack(false)
	}
	t := NewAnimationTrack(class)
	e.settleOrphans(t, true)
	e.baselines = make(map[string]nodeState, e.tree.Len())
	e.tree.Walk(func(n *Node) { e.baselines[n.ID] = n.state() })
	e.track = t
	e.emit(TrackStarted)
	return t
}

// StopTrack discards the current track. With restore set every node is put
// back to the baseline recorded by PlayTrack.
func (e *Entity) StopTrack(restore bool) {
	if e.track == nil {
		return
	}
	if restore {
		e.restoreBaselines()
	}
	e.emit(TrackStopped)
	e.track = nil
	e.baselines = nil
}

// Update advances the current track by dt seconds and applies it to every
// node. A completed looping track is restarted from the baselines; any
// other completed track is discarded, leaving nodes at their end values.
func (e *Entity) Update(dt float64) {
	t := e.track
	if t == nil {
		return
	}
	t.Update(dt)
	e.tree.Walk(t.Apply)
	if !t.IsComplete() {
		return
	}
	if t.IsLooping() {
		e.restoreBaselines()
		t.Restart()
		e.settleOrphans(t, false)
		e.emit(TrackLooped)
		return
	}
	e.emit(TrackCompleted)
	e.track = nil
	e.baselines = nil
}

// settleOrphans settles every actuator whose node is not in the tree.
func (e *Entity) settleOrphans(t *AnimationTrack, warn bool) {
	for _, nt := range t.tracks {
		if _, ok := e.tree.FindNodeByID(nt.Node); ok {
			continue
		}
		if warn {
			logger.Warn("actuator targets a node that is not in the entity",
				"entity", e.Name, "track", t.class.Name,
				"actuator", nt.Actuator.Class().ID, "node", nt.Node)
		}
		t.settle(nt.Node)
	}
}

func (e *Entity) restoreBaselines() {
	e.tree.Walk(func(n *Node) {
		if s, ok := e.baselines[n.ID]; ok {
			n.restore(s)
		}
	})
}

func (e *Entity) emit(typ TrackEventType) {
	if e.observer == nil || e.track == nil {
		return
	}
	c := e.track.Class()
	e.observer.EmitTrackEvent(TrackEvent{
		Type:     typ,
		EntityID: e.ID,
		Entity:   e.Name,
		Track:    c.Name,
		TrackID:  c.ID,
	})
}
