package marionette

import "fmt"

// Identified is implemented by every value stored in a RenderTree. Tree ids
// must be unique within one tree.
type Identified interface {
	TreeID() string
}

// Visitor receives pre-order traversal callbacks. LeaveNode for a value is
// called after all of its descendants have been entered and left.
type Visitor[T any] interface {
	EnterNode(v T)
	LeaveNode(v T)
}

// VisitorFuncs adapts a pair of functions to Visitor. Nil functions are skipped.
type VisitorFuncs[T any] struct {
	Enter func(T)
	Leave func(T)
}

// EnterNode implements Visitor.
func (f VisitorFuncs[T]) EnterNode(v T) {
	if f.Enter != nil {
		f.Enter(v)
	}
}

// LeaveNode implements Visitor.
func (f VisitorFuncs[T]) LeaveNode(v T) {
	if f.Leave != nil {
		f.Leave(v)
	}
}

const noParent = -1

// RenderTree is an ordered ownership hierarchy of values kept in an arena.
// Each value occupies a stable slot; parent and child links are slot
// indices and a map resolves tree ids to slots. Top-level values are
// children of an implicit root.
type RenderTree[T Identified] struct {
	values   []T
	parent   []int
	children [][]int
	roots    []int
	index    map[string]int
	free     []int
}

// NewRenderTree creates an empty tree.
func NewRenderTree[T Identified]() *RenderTree[T] {
	return &RenderTree[T]{index: make(map[string]int)}
}

// Len returns the number of values in the tree.
func (t *RenderTree[T]) Len() int {
	return len(t.index)
}

// LinkRoot appends child as a top-level value.
// Panics if a value with the same id is already in the tree.
func (t *RenderTree[T]) LinkRoot(child T) {
	t.insert(noParent, child)
}

// LinkChild appends child as the last child of parent.
// Panics if parent is not in the tree or child's id is already present.
func (t *RenderTree[T]) LinkChild(parent, child T) {
	t.insert(t.mustSlot(parent), child)
}

func (t *RenderTree[T]) insert(parent int, child T) {
	id := child.TreeID()
	if _, dup := t.index[id]; dup {
		panic(fmt.Sprintf("marionette: node %q is already in the tree", id))
	}
	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
		t.values[slot] = child
		t.parent[slot] = parent
		t.children[slot] = t.children[slot][:0]
	} else {
		slot = len(t.values)
		t.values = append(t.values, child)
		t.parent = append(t.parent, parent)
		t.children = append(t.children, nil)
	}
	t.index[id] = slot
	if parent == noParent {
		t.roots = append(t.roots, slot)
	} else {
		t.children[parent] = append(t.children[parent], slot)
	}
	if globalDebug {
		debugCheckTreeDepth(t, slot)
		debugCheckChildCount(t, parent)
	}
}

// Contains reports whether a value with v's id is in the tree.
func (t *RenderTree[T]) Contains(v T) bool {
	_, ok := t.index[v.TreeID()]
	return ok
}

// FindNodeByValue returns the stored value with v's id.
func (t *RenderTree[T]) FindNodeByValue(v T) (T, bool) {
	return t.FindNodeByID(v.TreeID())
}

// FindNodeByID returns the stored value with the given id.
func (t *RenderTree[T]) FindNodeByID(id string) (T, bool) {
	slot, ok := t.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.values[slot], true
}

// FindParent returns v's parent. The second result is false when v is a
// top-level value or not in the tree.
func (t *RenderTree[T]) FindParent(v T) (T, bool) {
	var zero T
	slot, ok := t.index[v.TreeID()]
	if !ok {
		return zero, false
	}
	p := t.parent[slot]
	if p == noParent {
		return zero, false
	}
	return t.values[p], true
}

// Children returns a copy of v's children in order.
func (t *RenderTree[T]) Children(v T) []T {
	slot := t.mustSlot(v)
	return t.collect(t.children[slot])
}

// Roots returns a copy of the top-level values in order.
func (t *RenderTree[T]) Roots() []T {
	return t.collect(t.roots)
}

func (t *RenderTree[T]) collect(slots []int) []T {
	out := make([]T, len(slots))
	for i, s := range slots {
		out[i] = t.values[s]
	}
	return out
}

// DeleteNode unlinks v and its whole subtree. The removed values are
// returned in pre-order so the owner can release them. Deleting a value that
// is not in the tree returns nil.
func (t *RenderTree[T]) DeleteNode(v T) []T {
	slot, ok := t.index[v.TreeID()]
	if !ok {
		return nil
	}
	t.detach(slot)

	var removed []T
	var release func(s int)
	release = func(s int) {
		removed = append(removed, t.values[s])
		for _, c := range t.children[s] {
			release(c)
		}
		delete(t.index, t.values[s].TreeID())
		var zero T
		t.values[s] = zero
		t.parent[s] = noParent
		t.children[s] = t.children[s][:0]
		t.free = append(t.free, s)
	}
	release(slot)
	return removed
}

// ReparentChild moves child (with its subtree) to the end of parent's
// children. Panics if either value is missing or parent is inside child's
// subtree.
func (t *RenderTree[T]) ReparentChild(parent, child T) {
	p := t.mustSlot(parent)
	c := t.mustSlot(child)
	if t.isAncestor(c, p) {
		panic("marionette: reparenting would create a cycle")
	}
	t.detach(c)
	t.parent[c] = p
	t.children[p] = append(t.children[p], c)
}

// MakeRoot moves child (with its subtree) to the end of the top-level list.
func (t *RenderTree[T]) MakeRoot(child T) {
	c := t.mustSlot(child)
	t.detach(c)
	t.parent[c] = noParent
	t.roots = append(t.roots, c)
}

// Clear removes every value.
func (t *RenderTree[T]) Clear() {
	t.values = nil
	t.parent = nil
	t.children = nil
	t.roots = nil
	t.free = nil
	t.index = make(map[string]int)
}

// PreOrderTraverse visits every value depth-first in pre-order.
// The tree must not be structurally modified during the traversal.
func (t *RenderTree[T]) PreOrderTraverse(visitor Visitor[T]) {
	for _, s := range t.roots {
		t.traverse(s, visitor)
	}
}

// PreOrderTraverseFrom visits v and its descendants in pre-order.
func (t *RenderTree[T]) PreOrderTraverseFrom(v T, visitor Visitor[T]) {
	t.traverse(t.mustSlot(v), visitor)
}

func (t *RenderTree[T]) traverse(slot int, visitor Visitor[T]) {
	v := t.values[slot]
	visitor.EnterNode(v)
	for _, c := range t.children[slot] {
		t.traverse(c, visitor)
	}
	visitor.LeaveNode(v)
}

// Walk calls fn for every value in pre-order.
func (t *RenderTree[T]) Walk(fn func(T)) {
	t.PreOrderTraverse(VisitorFuncs[T]{Enter: fn})
}

// Clone copies the whole tree. copyValue produces the new value for each
// old one; the structure is rebuilt through an old id -> new value table.
func (t *RenderTree[T]) Clone(copyValue func(T) T) *RenderTree[T] {
	out := NewRenderTree[T]()
	for _, r := range t.roots {
		t.cloneInto(out, r, copyValue)
	}
	return out
}

// CloneSubtree copies root and its descendants into a new tree where the
// copy of root is the single top-level value. It returns the new tree and
// the copy of root.
func (t *RenderTree[T]) CloneSubtree(root T, copyValue func(T) T) (*RenderTree[T], T) {
	out := NewRenderTree[T]()
	newRoot := t.cloneInto(out, t.mustSlot(root), copyValue)
	return out, newRoot
}

// cloneInto copies the subtree at slot into out as a top-level subtree.
// Values are copied first, then every child is linked to the copy of its
// old parent looked up by old id.
func (t *RenderTree[T]) cloneInto(out *RenderTree[T], slot int, copyValue func(T) T) T {
	var order []int
	var gather func(s int)
	gather = func(s int) {
		order = append(order, s)
		for _, c := range t.children[s] {
			gather(c)
		}
	}
	gather(slot)

	table := make(map[string]T, len(order))
	for _, s := range order {
		table[t.values[s].TreeID()] = copyValue(t.values[s])
	}
	for _, s := range order {
		dup := table[t.values[s].TreeID()]
		if s == slot {
			out.LinkRoot(dup)
			continue
		}
		parentID := t.values[t.parent[s]].TreeID()
		out.LinkChild(table[parentID], dup)
	}
	return table[t.values[slot].TreeID()]
}

// detach removes slot from its parent's (or the root) child list.
func (t *RenderTree[T]) detach(slot int) {
	p := t.parent[slot]
	if p == noParent {
		t.roots = removeSlot(t.roots, slot)
	} else {
		t.children[p] = removeSlot(t.children[p], slot)
	}
}

// isAncestor reports whether candidate is slot or one of its ancestors.
func (t *RenderTree[T]) isAncestor(candidate, slot int) bool {
	for s := slot; s != noParent; s = t.parent[s] {
		if s == candidate {
			return true
		}
	}
	return false
}

// depth returns the number of values on the path from slot to the root.
func (t *RenderTree[T]) depth(slot int) int {
	d := 0
	for s := slot; s != noParent; s = t.parent[s] {
		d++
	}
	return d
}

func (t *RenderTree[T]) mustSlot(v T) int {
	slot, ok := t.index[v.TreeID()]
	if !ok {
		panic(fmt.Sprintf("marionette: node %q is not in the tree", v.TreeID()))
	}
	return slot
}

// removeSlot removes s from list preserving order.
func removeSlot(list []int, s int) []int {
	for i, c := range list {
		if c == s {
			copy(list[i:], list[i+1:])
			return list[:len(list)-1]
		}
	}
	return list
}
