package marionette

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// DrawPacket is one draw operation: a drawable painted with a material at a
// composed transform. Transform maps the drawable's unit space to the
// target's pixel space.
type DrawPacket struct {
	Node      *Node
	Material  *Material
	Drawable  *Drawable
	Transform mgl64.Mat3
	Layer     int
	Pass      RenderPass
}

// DrawHook customizes the packets emitted for each node. Both methods run
// while the node's model transform is on the stack. They may push onto
// stack but must pop everything they push; the Renderer panics otherwise.
type DrawHook interface {
	// InspectPacket may modify p. Returning false drops it.
	InspectPacket(p *DrawPacket, stack *TransformStack) bool
	// AppendPackets appends synthetic packets for n to out and returns it.
	AppendPackets(n *Node, stack *TransformStack, out []DrawPacket) []DrawPacket
}

// FrameStats holds per-frame renderer counters. They are reset by
// BeginFrame.
type FrameStats struct {
	Packets     int // packets submitted to the painter
	Layers      int // layers submitted to the painter
	Vetoed      int // packets dropped by the hook
	Synthetic   int // packets appended by the hook
	Culled      int // packets outside the cull rect
	CacheHits   int // nodes whose cached instances were reused unchanged
	CacheMisses int // nodes that (re)built a material or drawable
	Evictions   int // entries erased by EndFrame
	CachedNodes int // cache size after EndFrame
	Missing     int // nodes skipped for a missing class
	DrawTime    time.Duration
}

// paintNode is the cache entry for one source node.
type paintNode struct {
	material   *Material
	drawable   *Drawable
	materialID string
	drawableID string
	visited    bool

	updateMaterial bool
	updateDrawable bool
	timeScale      float64
}

// layerBucket holds the packets of one layer split by pass.
type layerBucket struct {
	draw []DrawPacket
	mask []DrawPacket
}

// Renderer turns render trees into layered draw packets. It owns a cache of
// material and drawable instances keyed by node id; an entry that is not
// visited during a frame is erased at EndFrame.
//
// A frame is BeginFrame, any number of Draw calls, then EndFrame.
type Renderer struct {
	library ClassLibrary

	cache map[string]*paintNode
	// warned records the missing class id already reported per node and kind.
	warned map[string]string

	stack   *TransformStack
	marks   []StackMark
	hook    DrawHook
	packets []DrawPacket
	buckets []layerBucket

	cullActive bool
	cullBounds Rect

	stats FrameStats
}

// NewRenderer creates a renderer that resolves classes through library.
func NewRenderer(library ClassLibrary) *Renderer {
	if library == nil {
		panic("marionette: NewRenderer with nil library")
	}
	return &Renderer{
		library: library,
		cache:   make(map[string]*paintNode),
		warned:  make(map[string]string),
		stack:   NewTransformStack(mgl64.Ident3()),
	}
}

// SetCullRect drops packets whose bounds in target space do not intersect
// r. Culled nodes keep their cache entries.
func (r *Renderer) SetCullRect(rect Rect) {
	r.cullActive = true
	r.cullBounds = rect
}

// ClearCullRect disables culling.
func (r *Renderer) ClearCullRect() {
	r.cullActive = false
}

// BeginFrame clears the visited flag of every cache entry and resets the
// frame counters.
func (r *Renderer) BeginFrame() {
	for _, e := range r.cache {
		e.visited = false
	}
	r.stats = FrameStats{}
}

// Draw traverses tree, composing every node transform onto view, and
// submits the resulting packets to painter layer by layer in ascending
// order. A nil painter only runs the traversal and cache bookkeeping. hook
// may be nil.
func (r *Renderer) Draw(painter Painter, tree *RenderTree[*Node], view mgl64.Mat3, hook DrawHook) {
	r.DrawTrees(painter, []*RenderTree[*Node]{tree}, view, hook)
}

// DrawTrees is Draw over several trees sharing one view. Packets from every
// tree are collected before submission, so layer order holds across trees
// and same-layer packets keep the order of trees, then traversal.
func (r *Renderer) DrawTrees(painter Painter, trees []*RenderTree[*Node], view mgl64.Mat3, hook DrawHook) {
	start := time.Now()
	r.hook = hook
	r.packets = r.packets[:0]

	for _, tree := range trees {
		r.stack.Reset(view)
		r.marks = r.marks[:0]
		tree.PreOrderTraverse(drawVisitor{r})
		if r.stack.Depth() != 0 {
			r.hook = nil
			panic("marionette: transform stack unbalanced after traversal")
		}
	}

	r.hook = nil
	r.submit(painter)
	r.stats.DrawTime += time.Since(start)
}

// drawVisitor adapts the Renderer to Visitor without exporting the
// traversal callbacks.
type drawVisitor struct{ r *Renderer }

func (v drawVisitor) EnterNode(n *Node) { v.r.enterNode(n) }
func (v drawVisitor) LeaveNode(n *Node) { v.r.leaveNode(n) }

// enterNode opens the node's transform scope and emits its packets.
func (r *Renderer) enterNode(n *Node) {
	r.marks = append(r.marks, r.stack.Mark())
	r.stack.Push(NodeLocalMatrix(n))

	item := n.Drawable
	if item == nil {
		return
	}
	entry := r.resolve(n)
	if entry == nil || !item.TestFlag(DrawableVisibleInGame) {
		return
	}

	// The model matrix applies to this node's shape only.
	model := r.stack.Mark()
	r.stack.Push(nodeModelMatrix(n))
	r.emit(n, entry)
	r.stack.Restore(model)
}

// leaveNode closes the scope opened by enterNode, unwinding every push
// made in between.
func (r *Renderer) leaveNode(*Node) {
	last := len(r.marks) - 1
	r.stack.Restore(r.marks[last])
	r.marks = r.marks[:last]
}

func (r *Renderer) emit(n *Node, entry *paintNode) {
	item := n.Drawable
	p := DrawPacket{
		Node:      n,
		Material:  entry.material,
		Drawable:  entry.drawable,
		Transform: r.stack.Top(),
		Layer:     item.Layer,
		Pass:      item.Pass,
	}

	keep := true
	if r.hook != nil {
		depth := r.stack.Depth()
		keep = r.hook.InspectPacket(&p, r.stack)
		r.checkHookBalance(depth)
	}
	if keep {
		r.appendPacket(p)
	} else {
		r.stats.Vetoed++
	}

	if r.hook != nil {
		depth := r.stack.Depth()
		before := len(r.packets)
		r.packets = r.hook.AppendPackets(n, r.stack, r.packets)
		r.checkHookBalance(depth)
		r.stats.Synthetic += len(r.packets) - before
	}
}

func (r *Renderer) appendPacket(p DrawPacket) {
	if r.cullActive && !transformedBounds(p.Transform).Intersects(r.cullBounds) {
		r.stats.Culled++
		return
	}
	r.packets = append(r.packets, p)
}

func (r *Renderer) checkHookBalance(depth int) {
	if r.stack.Depth() != depth {
		panic("marionette: draw hook left the transform stack unbalanced")
	}
}

// resolve returns n's cache entry with up to date instances and the item
// overrides applied, or nil if a class is missing. Instances are rebuilt
// only when the referenced class id changes.
func (r *Renderer) resolve(n *Node) *paintNode {
	item := n.Drawable
	e := r.cache[n.ID]
	if e == nil {
		e = &paintNode{}
		r.cache[n.ID] = e
	}
	e.visited = true

	rebuilt := false
	if e.material == nil || e.materialID != item.MaterialID {
		class, ok := r.library.FindMaterialClass(item.MaterialID)
		if !ok {
			r.warnMissing(n, "material", item.MaterialID)
			e.material, e.materialID = nil, ""
			r.stats.Missing++
			return nil
		}
		e.material = newMaterial(class)
		e.materialID = item.MaterialID
		rebuilt = true
	}
	if e.drawable == nil || e.drawableID != item.DrawableID {
		class, ok := r.library.FindDrawableClass(item.DrawableID)
		if !ok {
			r.warnMissing(n, "drawable", item.DrawableID)
			e.drawable, e.drawableID = nil, ""
			r.stats.Missing++
			return nil
		}
		e.drawable = newDrawable(class)
		e.drawableID = item.DrawableID
		rebuilt = true
	}
	if rebuilt {
		r.stats.CacheMisses++
	} else {
		r.stats.CacheHits++
	}

	if item.TestFlag(DrawableRestartDrawable) {
		e.material.time = 0
		e.drawable.time = 0
		item.SetFlag(DrawableRestartDrawable, false)
	}
	e.material.alpha = item.Alpha
	e.drawable.style = item.Style
	e.drawable.lineWidth = item.LineWidth
	e.updateMaterial = item.TestFlag(DrawableUpdateMaterial)
	e.updateDrawable = item.TestFlag(DrawableUpdateDrawable)
	e.timeScale = item.TimeScale
	return e
}

// warnMissing logs a missing class once per node, kind and class id.
func (r *Renderer) warnMissing(n *Node, kind, classID string) {
	key := n.ID + "/" + kind
	if r.warned[key] == classID {
		return
	}
	r.warned[key] = classID
	logger.Warn("node references a missing class",
		"node", n.Name, "id", n.ID, "kind", kind, "class", classID)
}

// submit shifts layers so the minimum is non-negative, buckets packets per
// layer and pass in emission order, and paints the layers in ascending
// order.
func (r *Renderer) submit(painter Painter) {
	if len(r.packets) == 0 {
		return
	}
	minLayer, maxLayer := r.packets[0].Layer, r.packets[0].Layer
	for i := range r.packets {
		minLayer = min(minLayer, r.packets[i].Layer)
		maxLayer = max(maxLayer, r.packets[i].Layer)
	}
	shift := 0
	if minLayer < 0 {
		shift = -minLayer
	}

	n := maxLayer + shift + 1
	if cap(r.buckets) < n {
		r.buckets = make([]layerBucket, n)
	}
	r.buckets = r.buckets[:n]
	for i := range r.buckets {
		r.buckets[i].draw = r.buckets[i].draw[:0]
		r.buckets[i].mask = r.buckets[i].mask[:0]
	}
	for i := range r.packets {
		p := r.packets[i]
		p.Layer += shift
		b := &r.buckets[p.Layer]
		if p.Pass == PassMask {
			b.mask = append(b.mask, p)
		} else {
			b.draw = append(b.draw, p)
		}
	}

	for layer := range r.buckets {
		b := &r.buckets[layer]
		if len(b.draw) == 0 {
			continue
		}
		r.stats.Layers++
		r.stats.Packets += len(b.draw) + len(b.mask)
		if painter != nil {
			painter.PaintLayer(layer, b.draw, b.mask)
		}
	}
}

// EndFrame erases every cache entry that was not visited since BeginFrame.
func (r *Renderer) EndFrame() {
	for id, e := range r.cache {
		if e.visited {
			continue
		}
		delete(r.cache, id)
		delete(r.warned, id+"/material")
		delete(r.warned, id+"/drawable")
		r.stats.Evictions++
	}
	r.stats.CachedNodes = len(r.cache)
	if globalDebug {
		debugLogFrame(r.stats)
	}
}

// Update advances the time of cached materials and drawables whose item
// had UpdateMaterial or UpdateDrawable set at its last draw, scaled by the
// item's time scale.
func (r *Renderer) Update(dt float64) {
	for _, e := range r.cache {
		step := dt * e.timeScale
		if e.updateMaterial && e.material != nil {
			e.material.time += step
		}
		if e.updateDrawable && e.drawable != nil {
			e.drawable.time += step
		}
	}
}

// Stats returns the counters of the current frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// CacheLen returns the number of cached paint nodes.
func (r *Renderer) CacheLen() int {
	return len(r.cache)
}

// cached returns the instances cached for node id.
func (r *Renderer) cached(id string) (*Material, *Drawable, bool) {
	e, ok := r.cache[id]
	if !ok {
		return nil, nil, false
	}
	return e.material, e.drawable, true
}
