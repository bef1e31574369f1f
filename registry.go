package marionette

// Hashable is implemented by classes that can be deduplicated by content.
type Hashable interface {
	Hash() uint64
}

// Registry deduplicates classes by content hash and hands out shared,
// reference counted handles. It is a cache: a value stays registered while
// at least one handle is held, and the registry never owns or mutates it.
// Values must not be edited while registered, since the key would go stale.
type Registry[T Hashable] struct {
	entries map[uint64]*Handle[T]
}

// Handle is a shared reference to a registered value.
type Handle[T Hashable] struct {
	reg   *Registry[T]
	key   uint64
	value T
	refs  int
}

// NewRegistry creates an empty registry.
func NewRegistry[T Hashable]() *Registry[T] {
	return &Registry[T]{entries: make(map[uint64]*Handle[T])}
}

// Acquire returns the handle for v's content. If an equal value is already
// registered its handle is returned and v is dropped.
func (r *Registry[T]) Acquire(v T) *Handle[T] {
	key := v.Hash()
	if h, ok := r.entries[key]; ok {
		h.refs++
		return h
	}
	h := &Handle[T]{reg: r, key: key, value: v, refs: 1}
	r.entries[key] = h
	return h
}

// Lookup returns the handle registered under hash without taking a
// reference.
func (r *Registry[T]) Lookup(hash uint64) (*Handle[T], bool) {
	h, ok := r.entries[hash]
	return h, ok
}

// Len returns the number of distinct registered values.
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Value returns the shared value.
func (h *Handle[T]) Value() T { return h.value }

// Hash returns the content hash the value is registered under.
func (h *Handle[T]) Hash() uint64 { return h.key }

// Refs returns the number of outstanding references.
func (h *Handle[T]) Refs() int { return h.refs }

// Release drops one reference. The value is evicted when the last reference
// is released. Releasing more times than acquired panics.
func (h *Handle[T]) Release() {
	if h.refs <= 0 {
		panic("marionette: handle released more times than acquired")
	}
	h.refs--
	if h.refs == 0 && h.reg.entries[h.key] == h {
		delete(h.reg.entries, h.key)
	}
}
