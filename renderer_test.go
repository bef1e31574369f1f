package marionette

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// renderFixture is a library with one material and one drawable and a
// renderer resolving against it.
type renderFixture struct {
	lib  *Library
	r    *Renderer
	tree *RenderTree[*Node]
	mat  *MaterialClass
	box  *DrawableClass
}

func newRenderFixture() *renderFixture {
	lib := NewLibrary()
	mat := NewMaterialClass("red", Color{1, 0, 0, 1})
	box := NewDrawableClass("box", ShapeRectangle)
	lib.AddMaterial(mat)
	lib.AddDrawable(box)
	return &renderFixture{
		lib:  lib,
		r:    NewRenderer(lib),
		tree: NewRenderTree[*Node](),
		mat:  mat,
		box:  box,
	}
}

func (f *renderFixture) node(name string, layer int, pass RenderPass) *Node {
	n := NewDrawableNode(name, f.mat.ID, f.box.ID, Vec2{10, 10})
	n.Drawable.Layer = layer
	n.Drawable.Pass = pass
	return n
}

func (f *renderFixture) frame(hook DrawHook) *RecordingPainter {
	p := &RecordingPainter{}
	f.r.BeginFrame()
	f.r.Draw(p, f.tree, mgl64.Ident3(), hook)
	f.r.EndFrame()
	return p
}

func packetNames(packets []DrawPacket) []string {
	out := make([]string, len(packets))
	for i, p := range packets {
		out[i] = p.Node.Name
	}
	return out
}

func equalNames(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

func TestRendererLayerOrder(t *testing.T) {
	f := newRenderFixture()
	a := f.node("a", 0, PassDraw)
	b := f.node("b", -2, PassDraw)
	c := f.node("c", 1, PassMask)
	d := f.node("d", 1, PassDraw)
	e := f.node("e", 3, PassMask)
	f.tree.LinkRoot(a)
	f.tree.LinkChild(a, b)
	f.tree.LinkChild(a, c)
	f.tree.LinkRoot(d)
	f.tree.LinkRoot(e)

	p := f.frame(nil)
	if len(p.Layers) != 3 {
		t.Fatalf("painted %d layers, want 3", len(p.Layers))
	}
	want := []struct {
		layer int
		draw  []string
		mask  []string
	}{
		{0, []string{"b"}, nil},
		{2, []string{"a"}, nil},
		{3, []string{"d"}, []string{"c"}},
	}
	for i, w := range want {
		got := p.Layers[i]
		if got.Layer != w.layer {
			t.Errorf("layer %d: index %d, want %d", i, got.Layer, w.layer)
		}
		if !equalNames(packetNames(got.Draw), w.draw) {
			t.Errorf("layer %d draw = %v, want %v", i, packetNames(got.Draw), w.draw)
		}
		if !equalNames(packetNames(got.Mask), w.mask) {
			t.Errorf("layer %d mask = %v, want %v", i, packetNames(got.Mask), w.mask)
		}
	}
	for _, l := range p.Layers {
		for _, pk := range append(l.Draw, l.Mask...) {
			if pk.Layer != l.Layer {
				t.Errorf("packet %s carries layer %d, painted in %d", pk.Node.Name, pk.Layer, l.Layer)
			}
		}
	}
	s := f.r.Stats()
	if s.Layers != 3 || s.Packets != 4 {
		t.Errorf("stats layers=%d packets=%d, want 3 and 4", s.Layers, s.Packets)
	}
}

func TestRendererEmissionOrderWithinLayer(t *testing.T) {
	f := newRenderFixture()
	root := f.node("root", 0, PassDraw)
	f.tree.LinkRoot(root)
	for _, name := range []string{"x", "y"} {
		child := f.node(name, 0, PassDraw)
		f.tree.LinkChild(root, child)
		f.tree.LinkChild(child, f.node(name+"1", 0, PassDraw))
	}
	f.tree.LinkRoot(f.node("z", 0, PassDraw))

	p := f.frame(nil)
	got := packetNames(p.Packets())
	want := []string{"root", "x", "x1", "y", "y1", "z"}
	if !equalNames(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRendererEmptyTree(t *testing.T) {
	f := newRenderFixture()
	p := f.frame(nil)
	if len(p.Layers) != 0 {
		t.Errorf("painted %d layers for an empty tree", len(p.Layers))
	}
	f.tree.LinkRoot(NewNode("group"))
	p = f.frame(nil)
	if len(p.Layers) != 0 || f.r.CacheLen() != 0 {
		t.Errorf("a node without a drawable produced output")
	}
}

func TestRendererCacheReuse(t *testing.T) {
	f := newRenderFixture()
	n := f.node("n", 0, PassDraw)
	f.tree.LinkRoot(n)

	f.frame(nil)
	if s := f.r.Stats(); s.CacheMisses != 1 || s.CacheHits != 0 {
		t.Fatalf("first frame misses=%d hits=%d", s.CacheMisses, s.CacheHits)
	}
	m1, d1, _ := f.r.cached(n.ID)

	f.frame(nil)
	if s := f.r.Stats(); s.CacheMisses != 0 || s.CacheHits != 1 {
		t.Fatalf("second frame misses=%d hits=%d", s.CacheMisses, s.CacheHits)
	}
	m2, d2, _ := f.r.cached(n.ID)
	if m1 != m2 || d1 != d2 {
		t.Error("instances rebuilt without a class change")
	}

	blue := NewMaterialClass("blue", Color{0, 0, 1, 1})
	f.lib.AddMaterial(blue)
	n.Drawable.MaterialID = blue.ID
	p := f.frame(nil)
	m3, d3, _ := f.r.cached(n.ID)
	if m3 == m1 || m3.Class() != blue {
		t.Error("material not rebuilt after its class id changed")
	}
	if d3 != d1 {
		t.Error("drawable rebuilt although its class id did not change")
	}
	if got := p.Packets()[0].Material; got != m3 {
		t.Error("packet does not reference the cached material")
	}
}

func TestRendererItemOverrides(t *testing.T) {
	f := newRenderFixture()
	n := f.node("n", 0, PassDraw)
	n.Drawable.Alpha = 0.5
	n.Drawable.Style = StyleOutline
	n.Drawable.LineWidth = 3
	f.tree.LinkRoot(n)

	pk := f.frame(nil).Packets()[0]
	if c := pk.Material.Color(); c.A != 0.5 || c.R != 1 {
		t.Errorf("color = %+v, want red at half alpha", c)
	}
	if pk.Drawable.Style() != StyleOutline || pk.Drawable.LineWidth() != 3 {
		t.Errorf("style=%v width=%v", pk.Drawable.Style(), pk.Drawable.LineWidth())
	}
}

func TestRendererEvictsUnvisited(t *testing.T) {
	f := newRenderFixture()
	a := f.node("a", 0, PassDraw)
	b := f.node("b", 0, PassDraw)
	f.tree.LinkRoot(a)
	f.tree.LinkRoot(b)
	f.frame(nil)
	if f.r.CacheLen() != 2 {
		t.Fatalf("cache len = %d, want 2", f.r.CacheLen())
	}

	f.tree.DeleteNode(b)
	f.frame(nil)
	s := f.r.Stats()
	if s.Evictions != 1 || s.CachedNodes != 1 {
		t.Errorf("evictions=%d cached=%d, want 1 and 1", s.Evictions, s.CachedNodes)
	}
	if _, _, ok := f.r.cached(b.ID); ok {
		t.Error("entry for removed node survived the frame")
	}
}

func TestRendererSharedAcrossTrees(t *testing.T) {
	f := newRenderFixture()
	other := NewRenderTree[*Node]()
	a := f.node("a", 0, PassDraw)
	b := f.node("b", 0, PassDraw)
	f.tree.LinkRoot(a)
	other.LinkRoot(b)

	p := &RecordingPainter{}
	f.r.BeginFrame()
	f.r.Draw(p, f.tree, mgl64.Ident3(), nil)
	f.r.Draw(p, other, mgl64.Ident3(), nil)
	f.r.EndFrame()
	if f.r.CacheLen() != 2 || f.r.Stats().Evictions != 0 {
		t.Errorf("entries drawn in one frame were evicted")
	}
	if len(p.Layers) != 2 {
		t.Errorf("each Draw paints its own layers, got %d", len(p.Layers))
	}
}

func TestRendererDrawTreesOrdersLayersAcrossTrees(t *testing.T) {
	f := newRenderFixture()
	other := NewRenderTree[*Node]()
	f.tree.LinkRoot(f.node("a-top", 5, PassDraw))
	f.tree.LinkRoot(f.node("a-mid", 0, PassDraw))
	other.LinkRoot(f.node("b-bottom", -1, PassDraw))
	other.LinkRoot(f.node("b-mid", 0, PassDraw))

	p := &RecordingPainter{}
	f.r.BeginFrame()
	f.r.DrawTrees(p, []*RenderTree[*Node]{f.tree, other}, mgl64.Ident3(), nil)
	f.r.EndFrame()

	if len(p.Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(p.Layers))
	}
	want := [][]string{{"b-bottom"}, {"a-mid", "b-mid"}, {"a-top"}}
	for i, l := range p.Layers {
		if got := packetNames(l.Draw); !equalNames(got, want[i]) {
			t.Errorf("layer %d = %v, want %v", i, got, want[i])
		}
	}
	if p.Layers[0].Layer != 0 || p.Layers[2].Layer != 6 {
		t.Errorf("layer indices = %d..%d, want 0..6", p.Layers[0].Layer, p.Layers[2].Layer)
	}
	if s := f.r.Stats(); s.Layers != 3 || s.Packets != 4 {
		t.Errorf("stats = %+v, want 3 layers and 4 packets", s)
	}
}

func TestRendererMissingClass(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(prev) })

	f := newRenderFixture()
	bad := NewDrawableNode("bad", "nope", f.box.ID, Vec2{1, 1})
	good := f.node("good", 0, PassDraw)
	f.tree.LinkRoot(bad)
	f.tree.LinkRoot(good)

	for i := 0; i < 3; i++ {
		p := f.frame(nil)
		if got := packetNames(p.Packets()); !equalNames(got, []string{"good"}) {
			t.Fatalf("frame %d packets = %v", i, got)
		}
		if f.r.Stats().Missing != 1 {
			t.Fatalf("frame %d missing = %d", i, f.r.Stats().Missing)
		}
	}
	if n := strings.Count(buf.String(), "missing class"); n != 1 {
		t.Errorf("warned %d times, want once", n)
	}

	f.lib.AddMaterial(&MaterialClass{ID: "nope", Color: ColorWhite})
	p := f.frame(nil)
	if len(p.Packets()) != 2 {
		t.Error("node not drawn after its class appeared")
	}
}

func TestRendererInvisibleNode(t *testing.T) {
	f := newRenderFixture()
	n := f.node("n", 0, PassDraw)
	child := f.node("child", 0, PassDraw)
	n.Drawable.SetFlag(DrawableVisibleInGame, false)
	f.tree.LinkRoot(n)
	f.tree.LinkChild(n, child)

	p := f.frame(nil)
	if got := packetNames(p.Packets()); !equalNames(got, []string{"child"}) {
		t.Errorf("packets = %v, want only the child", got)
	}
	if _, _, ok := f.r.cached(n.ID); !ok {
		t.Error("invisible node lost its cache entry")
	}
}

func TestRendererPacketTransform(t *testing.T) {
	f := newRenderFixture()
	parent := NewNode("parent")
	parent.Position = Vec2{10, 0}
	parent.Rotation = 0.5
	child := f.node("child", 0, PassDraw)
	child.Position = Vec2{0, 5}
	child.Size = Vec2{4, 2}
	child.Drawable.SetFlag(DrawableFlipHorizontally, true)
	f.tree.LinkRoot(parent)
	f.tree.LinkChild(parent, child)

	view := mgl64.Translate2D(100, 100).Mul3(mgl64.Scale2D(2, 2))
	p := &RecordingPainter{}
	f.r.BeginFrame()
	f.r.Draw(p, f.tree, view, nil)
	f.r.EndFrame()

	want := view.Mul3(NodeLocalMatrix(parent)).Mul3(NodeLocalMatrix(child)).Mul3(ModelMatrix(child.Size, true))
	got := p.Packets()[0].Transform
	if !got.ApproxEqual(want) {
		t.Errorf("transform = %v, want %v", got, want)
	}
	if !got.ApproxEqual(view.Mul3(NodeModelTransform(f.tree, child))) {
		t.Error("packet transform disagrees with NodeModelTransform")
	}
}

func TestRendererCulling(t *testing.T) {
	f := newRenderFixture()
	in := f.node("in", 0, PassDraw)
	in.Position = Vec2{50, 50}
	out := f.node("out", 0, PassDraw)
	out.Position = Vec2{500, 500}
	f.tree.LinkRoot(in)
	f.tree.LinkRoot(out)

	f.r.SetCullRect(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	p := f.frame(nil)
	if got := packetNames(p.Packets()); !equalNames(got, []string{"in"}) {
		t.Errorf("packets = %v, want [in]", got)
	}
	if f.r.Stats().Culled != 1 || f.r.CacheLen() != 2 {
		t.Errorf("culled=%d cached=%d", f.r.Stats().Culled, f.r.CacheLen())
	}

	f.r.ClearCullRect()
	if n := len(f.frame(nil).Packets()); n != 2 {
		t.Errorf("%d packets without culling, want 2", n)
	}
}

type vetoHook struct {
	veto  string
	extra int
}

func (h vetoHook) InspectPacket(p *DrawPacket, stack *TransformStack) bool {
	if p.Node.Name == h.veto {
		return false
	}
	p.Layer += 10
	return true
}

func (h vetoHook) AppendPackets(n *Node, stack *TransformStack, out []DrawPacket) []DrawPacket {
	for i := 0; i < h.extra; i++ {
		stack.Push(mgl64.Translate2D(1, 0))
		out = append(out, DrawPacket{Node: n, Transform: stack.Top(), Layer: -1})
		stack.Pop()
	}
	return out
}

func TestRendererHook(t *testing.T) {
	f := newRenderFixture()
	f.tree.LinkRoot(f.node("keep", 0, PassDraw))
	f.tree.LinkRoot(f.node("drop", 0, PassDraw))

	p := f.frame(vetoHook{veto: "drop", extra: 1})
	s := f.r.Stats()
	if s.Vetoed != 1 || s.Synthetic != 2 {
		t.Errorf("vetoed=%d synthetic=%d, want 1 and 2", s.Vetoed, s.Synthetic)
	}
	if len(p.Layers) != 2 {
		t.Fatalf("painted %d layers, want 2", len(p.Layers))
	}
	// Synthetic packets sit at layer -1, shifted to 0; the kept packet moved
	// to layer 10, shifted to 11.
	if got := packetNames(p.Layers[0].Draw); !equalNames(got, []string{"keep", "drop"}) {
		t.Errorf("synthetic layer = %v", got)
	}
	if p.Layers[1].Layer != 11 || p.Layers[1].Draw[0].Node.Name != "keep" {
		t.Errorf("inspected packet painted at layer %d", p.Layers[1].Layer)
	}
}

type leakyHook struct{}

func (leakyHook) InspectPacket(p *DrawPacket, stack *TransformStack) bool {
	stack.Push(mgl64.Ident3())
	return true
}

func (leakyHook) AppendPackets(_ *Node, _ *TransformStack, out []DrawPacket) []DrawPacket {
	return out
}

func TestRendererUnbalancedHookPanics(t *testing.T) {
	f := newRenderFixture()
	f.tree.LinkRoot(f.node("n", 0, PassDraw))
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an unbalanced hook")
		}
	}()
	f.frame(leakyHook{})
}

func TestRendererUpdate(t *testing.T) {
	f := newRenderFixture()
	fast := f.node("fast", 0, PassDraw)
	fast.Drawable.TimeScale = 2
	frozen := f.node("frozen", 0, PassDraw)
	frozen.Drawable.SetFlag(DrawableUpdateMaterial, false)
	f.tree.LinkRoot(fast)
	f.tree.LinkRoot(frozen)
	f.frame(nil)

	f.r.Update(0.5)
	m, d, _ := f.r.cached(fast.ID)
	if m.Time() != 1 || d.Time() != 1 {
		t.Errorf("fast times = %v, %v; want 1, 1", m.Time(), d.Time())
	}
	m, d, _ = f.r.cached(frozen.ID)
	if m.Time() != 0 || d.Time() != 0.5 {
		t.Errorf("frozen times = %v, %v; want 0, 0.5", m.Time(), d.Time())
	}

	fast.Drawable.SetFlag(DrawableRestartDrawable, true)
	f.frame(nil)
	m, d, _ = f.r.cached(fast.ID)
	if m.Time() != 0 || d.Time() != 0 {
		t.Error("RestartDrawable did not reset time")
	}
	if fast.Drawable.TestFlag(DrawableRestartDrawable) {
		t.Error("RestartDrawable was not cleared")
	}
}

func TestNewRendererNilLibraryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	NewRenderer(nil)
}
