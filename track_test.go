package marionette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveClass(node string, start, duration float64, to Vec2) *ActuatorClass {
	c := NewActuatorClass(node, TransformEnd{Position: to, Size: Vec2{1, 1}, Scale: Vec2{1, 1}})
	c.StartTime = start
	c.Duration = duration
	return c
}

// stepTrack advances t by dt and applies it to every node of tree.
func stepTrack(tr *AnimationTrack, tree *RenderTree[*Node], dt float64) {
	tr.Update(dt)
	tree.Walk(tr.Apply)
}

func singleNodeTree() (*RenderTree[*Node], *Node) {
	tree := NewRenderTree[*Node]()
	n := NewNode("n")
	tree.LinkRoot(n)
	return tree, n
}

func TestTrackWindowScenario(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("scenario", 10)
	tc.AddActuator(moveClass(n.ID, 0.25, 0.5, Vec2{100, 0}))
	tr := NewAnimationTrack(tc)

	// 2.5 s to 7.5 s is the actuator window.
	for i := 0; i < 2; i++ {
		stepTrack(tr, tree, 1)
	}
	nt := tr.NodeTracks()[0]
	assert.False(t, nt.Started, "dormant before 2.5 s")
	assert.Equal(t, Vec2{}, n.Position)

	stepTrack(tr, tree, 0.5) // 2.5 s, pos 0.25
	nt = tr.NodeTracks()[0]
	assert.Equal(t, 0.25, tr.Position())
	assert.True(t, nt.Started, "starts on the window's first instant")
	assert.False(t, nt.Ended)
	assert.Equal(t, Vec2{}, n.Position)

	stepTrack(tr, tree, 2.5) // 5 s, local time 0.5
	assert.InDelta(t, 50, n.Position.X, 1e-4)
	assert.False(t, tr.NodeTracks()[0].Ended)

	stepTrack(tr, tree, 2.5) // 7.5 s, pos 0.75 is the window end
	nt = tr.NodeTracks()[0]
	assert.Equal(t, 0.75, tr.Position())
	assert.True(t, nt.Ended)
	assert.Equal(t, Vec2{100, 0}, n.Position)
	assert.Equal(t, Vec2{1, 1}, n.Size)
	assert.Equal(t, Vec2{1, 1}, n.Scale)
	assert.Zero(t, n.Rotation)

	stepTrack(tr, tree, 0.5) // 8 s, past the window
	assert.Equal(t, Vec2{100, 0}, n.Position)
	assert.False(t, tr.IsComplete(), "time has not reached the duration")

	stepTrack(tr, tree, 5)
	assert.Equal(t, 10.0, tr.CurrentTime(), "time is clamped to the duration")
	assert.True(t, tr.IsComplete())
}

func TestTrackCompletesWhenStepsSumToDuration(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(n.ID, 0, 0.3, Vec2{1, 1}))
	tc.AddActuator(moveClass(n.ID, 0.3, 0.7, Vec2{2, 2}))
	spin := NewActuatorClass(n.ID, TransformEnd{Position: Vec2{2, 2}, Size: Vec2{1, 1}, Scale: Vec2{1, 1}, Rotation: 1})
	spin.StartTime = 0.9
	spin.Duration = 0.1
	tc.AddActuator(spin)
	tr := NewAnimationTrack(tc)

	for i := 0; i < 10; i++ {
		stepTrack(tr, tree, 0.1)
	}
	require.True(t, tr.IsComplete())
	for _, nt := range tr.NodeTracks() {
		assert.True(t, nt.Started)
		assert.True(t, nt.Ended)
	}
	assert.Equal(t, Vec2{2, 2}, n.Position)
	assert.Equal(t, 1.0, n.Rotation)
}

func TestTrackEndedImpliesStarted(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(n.ID, 0.2, 0.1, Vec2{5, 5}))
	tr := NewAnimationTrack(tc)

	// One large step jumps over the whole window: Start and Finish still run.
	stepTrack(tr, tree, 0.9)
	nt := tr.NodeTracks()[0]
	assert.True(t, nt.Started)
	assert.True(t, nt.Ended)
	assert.Equal(t, Vec2{5, 5}, n.Position)
}

func TestTrackDelay(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("t", 1)
	tc.Delay = 0.5
	tc.AddActuator(moveClass(n.ID, 0, 1, Vec2{10, 0}))
	tr := NewAnimationTrack(tc)

	assert.Equal(t, -0.5, tr.CurrentTime())
	stepTrack(tr, tree, 0.25)
	assert.False(t, tr.NodeTracks()[0].Started, "nothing runs during the delay")
	stepTrack(tr, tree, 0.5) // time 0.25
	assert.InDelta(t, 2.5, n.Position.X, 1e-4)
	assert.InDelta(t, 0.25, tr.Position(), 1e-12)

	stepTrack(tr, tree, -10)
	assert.Equal(t, -0.5, tr.CurrentTime(), "time is clamped to -delay")
}

func TestTrackZeroLengthWindow(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(n.ID, 0.5, 0, Vec2{3, 3}))
	tr := NewAnimationTrack(tc)

	stepTrack(tr, tree, 0.4)
	assert.False(t, tr.NodeTracks()[0].Started)
	stepTrack(tr, tree, 0.1)
	assert.True(t, tr.NodeTracks()[0].Ended)
	assert.Equal(t, Vec2{3, 3}, n.Position)
}

func TestTrackZeroDurationIsAtEnd(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("instant", 0)
	tc.AddActuator(moveClass(n.ID, 0, 1, Vec2{4, 4}))
	tr := NewAnimationTrack(tc)

	assert.Equal(t, 1.0, tr.Position())
	stepTrack(tr, tree, 0)
	assert.True(t, tr.IsComplete())
	assert.Equal(t, Vec2{4, 4}, n.Position)
}

func TestTrackOverlapLastDeclaredWins(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("overlap", 1)
	tc.AddActuator(moveClass(n.ID, 0, 1, Vec2{100, 0}))
	tc.AddActuator(moveClass(n.ID, 0, 1, Vec2{-100, 0}))
	tr := NewAnimationTrack(tc)

	stepTrack(tr, tree, 0.5)
	assert.Less(t, n.Position.X, 0.0)
	stepTrack(tr, tree, 0.5)
	assert.Equal(t, Vec2{-100, 0}, n.Position)
}

func TestTrackRestart(t *testing.T) {
	tree, n := singleNodeTree()
	tc := NewTrackClass("loop", 1)
	tc.Looping = true
	tc.Delay = 0.2
	tc.AddActuator(moveClass(n.ID, 0, 0.5, Vec2{1, 0}))
	tr := NewAnimationTrack(tc)

	stepTrack(tr, tree, 0.3)
	assert.PanicsWithValue(t,
		`marionette: Restart on track "loop" before actuator `+tc.Actuator(0).ID+" completed",
		tr.Restart)

	stepTrack(tr, tree, 1)
	require.True(t, tr.IsComplete())
	tr.Restart()
	assert.Equal(t, -0.2, tr.CurrentTime())
	for _, nt := range tr.NodeTracks() {
		assert.False(t, nt.Started)
		assert.False(t, nt.Ended)
	}
	assert.True(t, tr.IsLooping())
	assert.Equal(t, "loop", tr.Name())
}

func TestTrackApplyIgnoresOtherNodes(t *testing.T) {
	tree, n := singleNodeTree()
	other := NewNode("other")
	tree.LinkRoot(other)
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass(n.ID, 0, 1, Vec2{1, 1}))
	tr := NewAnimationTrack(tc)

	stepTrack(tr, tree, 1)
	assert.Equal(t, Vec2{}, other.Position)
	assert.Equal(t, Vec2{1, 1}, n.Position)
}

func TestTrackClassEditing(t *testing.T) {
	tc := NewTrackClass("edit", 2)
	a := moveClass("n", 0, 1, Vec2{})
	b := NewActuatorClass("n", SetValueEnd{})
	c := NewActuatorClass("n", SetFlagEnd{})
	tc.AddActuator(a)
	tc.AddActuator(b)
	tc.AddActuator(c)
	require.Equal(t, 3, tc.NumActuators())

	got, ok := tc.FindActuatorByID(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)

	assert.True(t, tc.DeleteActuatorByID(b.ID))
	assert.False(t, tc.DeleteActuatorByID(b.ID))
	assert.Same(t, c, tc.Actuator(1))

	tc.DeleteActuatorByIndex(0)
	assert.Equal(t, []*ActuatorClass{c}, tc.Actuators())

	assert.Panics(t, func() { tc.AddActuator(nil) })
}

func TestTrackClassCopyClone(t *testing.T) {
	tc := NewTrackClass("t", 1)
	tc.AddActuator(moveClass("n", 0, 1, Vec2{1, 2}))

	cp := tc.Copy()
	assert.Equal(t, tc.Hash(), cp.Hash())
	assert.NotSame(t, tc.Actuator(0), cp.Actuator(0))

	cl := tc.Clone()
	assert.NotEqual(t, tc.ID, cl.ID)
	assert.NotEqual(t, tc.Actuator(0).ID, cl.Actuator(0).ID)
	assert.Equal(t, tc.Actuator(0).End, cl.Actuator(0).End)

	cp.Looping = true
	assert.NotEqual(t, tc.Hash(), cp.Hash())
}

func TestTrackValidate(t *testing.T) {
	tc := NewTrackClass("ok", 1)
	tc.AddActuator(moveClass("n", 0, 0.5, Vec2{}))
	tc.AddActuator(moveClass("n", 0.5, 0.5, Vec2{})) // touching, not overlapping
	tc.AddActuator(NewActuatorClass("n", SetValueEnd{}))
	assert.NoError(t, tc.Validate())

	bad := NewTrackClass("bad", 0)
	bad.Delay = -1
	late := moveClass("n", 1.5, 0.5, Vec2{})
	bad.AddActuator(late)
	first := moveClass("m", 0, 0.6, Vec2{})
	second := moveClass("m", 0.5, 0.5, Vec2{})
	bad.AddActuator(first)
	bad.AddActuator(second)

	err := bad.Validate()
	require.Error(t, err)
	errs := ValidationErrors(err)
	// duration, delay, start time, window end, overlap
	require.Len(t, errs, 5)
	var ve *ValidationError
	require.ErrorAs(t, errs[4], &ve)
	assert.Equal(t, second.ID, ve.Actuator)
	assert.Contains(t, ve.Reason, first.ID)
	assert.Contains(t, err.Error(), "5 validation errors")
}
