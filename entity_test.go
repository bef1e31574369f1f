package marionette

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	events []TrackEvent
}

func (l *eventLog) EmitTrackEvent(e TrackEvent) { l.events = append(l.events, e) }

func (l *eventLog) types() []TrackEventType {
	out := make([]TrackEventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func newTestEntity() (*Entity, *Node, *Node) {
	e := NewEntity("hero")
	body := NewDrawableNode("body", "mat", "box", Vec2{10, 10})
	arm := NewNode("arm")
	e.AddNode(body)
	e.LinkChild(body, arm)
	return e, body, arm
}

func TestEntityCompletedTrackIsDiscarded(t *testing.T) {
	e, body, _ := newTestEntity()
	log := &eventLog{}
	e.SetObserver(log)

	tc := NewTrackClass("walk", 1)
	tc.AddActuator(moveClass(body.ID, 0, 1, Vec2{50, 0}))
	tr := e.PlayTrack(tc)
	assert.Same(t, tr, e.Track())

	e.Update(0.5)
	assert.InDelta(t, 25, body.Position.X, 1e-9)
	e.Update(0.5)
	assert.Nil(t, e.Track())
	assert.Equal(t, Vec2{50, 0}, body.Position, "nodes keep their end values")
	assert.Equal(t, []TrackEventType{TrackStarted, TrackCompleted}, log.types())

	ev := log.events[1]
	assert.Equal(t, e.ID, ev.EntityID)
	assert.Equal(t, "hero", ev.Entity)
	assert.Equal(t, "walk", ev.Track)
	assert.Equal(t, tc.ID, ev.TrackID)

	e.Update(1) // no track, no-op
	assert.Len(t, log.events, 2)
}

func TestEntityLoopRestoresBaselines(t *testing.T) {
	e, body, _ := newTestEntity()
	body.Position = Vec2{5, 5}
	log := &eventLog{}
	e.SetObserver(log)

	tc := NewTrackClass("bob", 1)
	tc.Looping = true
	tc.AddActuator(moveClass(body.ID, 0, 0.5, Vec2{5, 25}))
	tc.AddActuator(NewActuatorClass(body.ID, SetValueEnd{Param: ParamDrawableAlpha, Value: 0}))
	e.PlayTrack(tc)

	e.Update(0.75)
	assert.Equal(t, Vec2{5, 25}, body.Position)
	assert.InDelta(t, 0.25, body.Drawable.Alpha, 1e-9)

	e.Update(0.25)
	require.NotNil(t, e.Track())
	assert.Equal(t, Vec2{5, 5}, body.Position)
	assert.Equal(t, 1.0, body.Drawable.Alpha)
	assert.Equal(t, 0.0, e.Track().CurrentTime())
	assert.Equal(t, []TrackEventType{TrackStarted, TrackLooped}, log.types())

	// The second pass starts from the restored baseline again.
	e.Update(0.25)
	assert.Equal(t, Vec2{5, 15}, body.Position)
}

func TestEntityStopTrack(t *testing.T) {
	e, body, _ := newTestEntity()
	log := &eventLog{}
	e.SetObserver(log)

	tc := NewTrackClass("walk", 1)
	tc.AddActuator(moveClass(body.ID, 0, 1, Vec2{50, 0}))

	e.PlayTrack(tc)
	e.Update(0.5)
	e.StopTrack(false)
	assert.Nil(t, e.Track())
	assert.InDelta(t, 25, body.Position.X, 1e-9)

	body.Position = Vec2{}
	e.PlayTrack(tc)
	e.Update(0.5)
	e.StopTrack(true)
	assert.Equal(t, Vec2{}, body.Position)

	e.StopTrack(true) // nothing playing
	assert.Equal(t, []TrackEventType{TrackStarted, TrackStopped, TrackStarted, TrackStopped}, log.types())
}

func TestEntityPlayTrackReplacesCurrent(t *testing.T) {
	e, body, _ := newTestEntity()
	log := &eventLog{}
	e.SetObserver(log)

	a := NewTrackClass("a", 1)
	a.AddActuator(moveClass(body.ID, 0, 1, Vec2{10, 0}))
	b := NewTrackClass("b", 1)
	b.AddActuator(moveClass(body.ID, 0, 1, Vec2{0, 10}))

	e.PlayTrack(a)
	e.Update(0.5)
	e.PlayTrack(b)
	assert.Equal(t, "b", e.Track().Name())
	assert.Equal(t, []TrackEventType{TrackStarted, TrackStopped, TrackStarted}, log.types())
	assert.Equal(t, "a", log.events[1].Track)
}

func TestEntityOrphanActuatorsAreSettled(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(prev) })

	e, body, _ := newTestEntity()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass("ghost", 0, 1, Vec2{1, 1}))
	tc.AddActuator(moveClass(body.ID, 0, 0.5, Vec2{2, 2}))
	tr := e.PlayTrack(tc)

	assert.Contains(t, buf.String(), "node=ghost")
	nt := tr.NodeTracks()[0]
	assert.True(t, nt.Started)
	assert.True(t, nt.Ended)

	e.Update(1)
	assert.Nil(t, e.Track(), "the orphan does not block completion")
}

func TestEntityDeleteNodeMidTrack(t *testing.T) {
	e, body, arm := newTestEntity()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(arm.ID, 0, 1, Vec2{9, 9}))
	tc.AddActuator(moveClass(body.ID, 0, 0.25, Vec2{1, 1}))
	e.PlayTrack(tc)

	e.Update(0.5)
	removed := e.DeleteNode(arm)
	assert.Equal(t, []*Node{arm}, removed)
	assert.Equal(t, 1, e.Tree().Len())

	e.Update(0.5)
	assert.Nil(t, e.Track())
}

func TestEntityFindAndNodes(t *testing.T) {
	e, body, arm := newTestEntity()
	got, ok := e.FindNodeByName("arm")
	require.True(t, ok)
	assert.Same(t, arm, got)

	_, ok = e.FindNodeByName("leg")
	assert.False(t, ok)

	got, ok = e.FindNodeByID(body.ID)
	require.True(t, ok)
	assert.Same(t, body, got)

	assert.Equal(t, []*Node{body, arm}, e.Nodes())
}

func TestEntityCloneUsesFreshNodeIDs(t *testing.T) {
	e, body, arm := newTestEntity()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(arm.ID, 0, 1, Vec2{3, 3}))
	e.PlayTrack(tc)

	c, ids := e.CloneWithIDs()
	assert.NotEqual(t, e.ID, c.ID)
	assert.Nil(t, c.Track())
	require.Len(t, ids, 2)

	_, ok := c.FindNodeByID(body.ID)
	assert.False(t, ok)
	cbody, ok := c.FindNodeByID(ids[body.ID])
	require.True(t, ok)
	assert.NotSame(t, body, cbody)
	assert.Equal(t, body.Name, cbody.Name)
	carm, ok := c.FindNodeByID(ids[arm.ID])
	require.True(t, ok)
	parent, ok := c.Tree().FindParent(carm)
	require.True(t, ok)
	assert.Same(t, cbody, parent)

	// The original class no longer reaches the clone's nodes.
	moved := tc.Retarget(ids)
	assert.Equal(t, carm.ID, moved.Actuator(0).Node)
	assert.Equal(t, arm.ID, tc.Actuator(0).Node)
	assert.NotEqual(t, tc.ID, moved.ID)

	c.PlayTrack(moved)
	c.Update(1)
	assert.Equal(t, Vec2{3, 3}, carm.Position)
	assert.Equal(t, Vec2{}, arm.Position)
}

func TestEntityCloneKeepsSeparateCacheEntries(t *testing.T) {
	f := newRenderFixture()
	blue := NewMaterialClass("blue", Color{0, 0, 1, 1})
	f.lib.AddMaterial(blue)

	a := NewEntity("a")
	a.AddNode(f.node("body", 0, PassDraw))
	b := a.Clone()
	b.Nodes()[0].Drawable.MaterialID = blue.ID

	trees := []*RenderTree[*Node]{a.Tree(), b.Tree()}
	for frame := 0; frame < 3; frame++ {
		f.r.BeginFrame()
		f.r.DrawTrees(nil, trees, mgl64.Ident3(), nil)
		f.r.EndFrame()
		s := f.r.Stats()
		assert.Equal(t, 2, s.CachedNodes, "frame %d", frame)
		if frame == 0 {
			assert.Equal(t, 2, s.CacheMisses)
			continue
		}
		assert.Equal(t, 2, s.CacheHits, "frame %d", frame)
		assert.Zero(t, s.CacheMisses, "frame %d", frame)
	}
}
