package marionette

// globalDebug enables tree shape warnings and per-frame renderer stats.
var globalDebug bool

// SetDebugMode enables or disables debug checks. Tree shape warnings are
// logged at Warn, frame stats at Debug; the package logger filters both.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// debugLogFrame logs the renderer counters of one frame.
func debugLogFrame(s FrameStats) {
	logger.Debug("frame",
		"draw", s.DrawTime,
		"packets", s.Packets,
		"layers", s.Layers,
		"vetoed", s.Vetoed,
		"synthetic", s.Synthetic,
		"culled", s.Culled,
		"hits", s.CacheHits,
		"misses", s.CacheMisses,
		"evictions", s.Evictions,
		"cached", s.CachedNodes,
		"missing", s.Missing,
	)
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth[T Identified](t *RenderTree[T], slot int) {
	if d := t.depth(slot); d > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold",
			"depth", d, "threshold", debugMaxTreeDepth, "node", t.values[slot].TreeID())
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount[T Identified](t *RenderTree[T], parent int) {
	if parent == noParent {
		return
	}
	if n := len(t.children[parent]); n > debugMaxChildCount {
		logger.Warn("child count exceeds threshold",
			"node", t.values[parent].TreeID(), "children", n, "threshold", debugMaxChildCount)
	}
}
