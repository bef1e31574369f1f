package marionette

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// hasher accumulates class content into a 64-bit xxhash. Field order
// matters; every class writes its fields in declaration order.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{d: xxhash.New()}
}

func (h *hasher) str(s string) {
	h.u64(uint64(len(s)))
	_, _ = h.d.WriteString(s)
}

func (h *hasher) u64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) f64(v float64) {
	h.u64(math.Float64bits(v))
}

func (h *hasher) vec2(v Vec2) {
	h.f64(v.X)
	h.f64(v.Y)
}

func (h *hasher) boolean(v bool) {
	if v {
		h.u64(1)
	} else {
		h.u64(0)
	}
}

func (h *hasher) sum() uint64 {
	return h.d.Sum64()
}
