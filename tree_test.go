package marionette

import (
	"strings"
	"testing"
)

// item is a minimal Identified value for tree tests.
type item struct{ id string }

func (i *item) TreeID() string { return i.id }

func ids(vs []*item) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.id
	}
	return strings.Join(parts, ",")
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// buildTree returns a -> (b -> d, c) plus a second root e.
func buildTree() (*RenderTree[*item], map[string]*item) {
	m := map[string]*item{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		m[id] = &item{id}
	}
	tr := NewRenderTree[*item]()
	tr.LinkRoot(m["a"])
	tr.LinkChild(m["a"], m["b"])
	tr.LinkChild(m["a"], m["c"])
	tr.LinkChild(m["b"], m["d"])
	tr.LinkRoot(m["e"])
	return tr, m
}

func TestTreeLinkOrder(t *testing.T) {
	tr, m := buildTree()
	if tr.Len() != 5 {
		t.Fatalf("Len = %d, want 5", tr.Len())
	}
	if got := ids(tr.Roots()); got != "a,e" {
		t.Errorf("Roots = %s, want a,e", got)
	}
	if got := ids(tr.Children(m["a"])); got != "b,c" {
		t.Errorf("Children(a) = %s, want b,c", got)
	}
	p, ok := tr.FindParent(m["d"])
	if !ok || p != m["b"] {
		t.Errorf("FindParent(d) = %v, %v; want b", p, ok)
	}
	if _, ok := tr.FindParent(m["a"]); ok {
		t.Error("top-level value should have no parent")
	}
}

func TestTreePreOrderEnterLeave(t *testing.T) {
	tr, _ := buildTree()
	var log []string
	tr.PreOrderTraverse(VisitorFuncs[*item]{
		Enter: func(v *item) { log = append(log, "+"+v.id) },
		Leave: func(v *item) { log = append(log, "-"+v.id) },
	})
	want := "+a +b +d -d -b +c -c -a +e -e"
	if got := strings.Join(log, " "); got != want {
		t.Errorf("traversal = %q, want %q", got, want)
	}
}

func TestTreeTraverseFrom(t *testing.T) {
	tr, m := buildTree()
	var got []*item
	tr.PreOrderTraverseFrom(m["b"], VisitorFuncs[*item]{Enter: func(v *item) { got = append(got, v) }})
	if ids(got) != "b,d" {
		t.Errorf("from b = %s, want b,d", ids(got))
	}
}

func TestTreeDuplicateIDPanics(t *testing.T) {
	tr, _ := buildTree()
	expectPanic(t, "duplicate root", func() { tr.LinkRoot(&item{"a"}) })
	expectPanic(t, "missing parent", func() { tr.LinkChild(&item{"zz"}, &item{"new"}) })
}

func TestTreeDeleteNodeSubtree(t *testing.T) {
	tr, m := buildTree()
	removed := tr.DeleteNode(m["b"])
	if ids(removed) != "b,d" {
		t.Errorf("removed = %s, want b,d", ids(removed))
	}
	if tr.Len() != 3 {
		t.Errorf("Len = %d, want 3", tr.Len())
	}
	if tr.Contains(m["d"]) {
		t.Error("d should be gone")
	}
	if got := ids(tr.Children(m["a"])); got != "c" {
		t.Errorf("Children(a) = %s, want c", got)
	}
	if tr.DeleteNode(&item{"missing"}) != nil {
		t.Error("deleting a missing value should return nil")
	}

	// Freed slots are reused without disturbing order.
	tr.LinkChild(m["c"], &item{"f"})
	tr.LinkRoot(&item{"g"})
	var all []*item
	tr.Walk(func(v *item) { all = append(all, v) })
	if ids(all) != "a,c,f,e,g" {
		t.Errorf("walk = %s, want a,c,f,e,g", ids(all))
	}
}

func TestTreeReparent(t *testing.T) {
	tr, m := buildTree()
	tr.ReparentChild(m["e"], m["b"])
	if got := ids(tr.Children(m["e"])); got != "b" {
		t.Errorf("Children(e) = %s, want b", got)
	}
	if got := ids(tr.Children(m["a"])); got != "c" {
		t.Errorf("Children(a) = %s, want c", got)
	}
	expectPanic(t, "cycle", func() { tr.ReparentChild(m["d"], m["e"]) })
	expectPanic(t, "self", func() { tr.ReparentChild(m["b"], m["b"]) })

	tr.MakeRoot(m["d"])
	if got := ids(tr.Roots()); got != "a,e,d" {
		t.Errorf("Roots = %s, want a,e,d", got)
	}
}

func TestTreeClone(t *testing.T) {
	tr, m := buildTree()
	cp := tr.Clone(func(v *item) *item { return &item{v.id} })
	if cp.Len() != tr.Len() {
		t.Fatalf("clone Len = %d, want %d", cp.Len(), tr.Len())
	}
	a, _ := cp.FindNodeByID("a")
	if a == m["a"] {
		t.Error("clone should hold new values")
	}
	if got := ids(cp.Children(a)); got != "b,c" {
		t.Errorf("clone Children(a) = %s, want b,c", got)
	}

	sub, root := tr.CloneSubtree(m["b"], func(v *item) *item { return &item{v.id + "'"} })
	if root.id != "b'" || sub.Len() != 2 {
		t.Errorf("subtree root = %s len = %d", root.id, sub.Len())
	}
	if got := ids(sub.Children(root)); got != "d'" {
		t.Errorf("subtree children = %s, want d'", got)
	}
}

func TestTreeClear(t *testing.T) {
	tr, m := buildTree()
	tr.Clear()
	if tr.Len() != 0 || len(tr.Roots()) != 0 {
		t.Error("Clear should empty the tree")
	}
	tr.LinkRoot(m["a"])
	if !tr.Contains(m["a"]) {
		t.Error("tree should be usable after Clear")
	}
}
