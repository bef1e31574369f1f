package marionette

import (
	"image"
	"math/bits"

	"github.com/hajimehoshi/ebiten/v2"
)

// offscreenPool recycles offscreen images for masked layers. Sizes are
// rounded up to powers of two so a few buckets serve every target size.
type offscreenPool struct {
	free  map[offscreenKey][]*ebiten.Image
	inUse int
}

type offscreenKey struct{ w, h int }

// Acquire returns a cleared image at least w by h pixels.
func (p *offscreenPool) Acquire(w, h int) *ebiten.Image {
	key := offscreenKey{nextPowerOfTwo(w), nextPowerOfTwo(h)}
	p.inUse++
	if list := p.free[key]; len(list) > 0 {
		img := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, key.w, key.h),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release hands img back for reuse. Clearing is deferred to Acquire.
func (p *offscreenPool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	if p.free == nil {
		p.free = make(map[offscreenKey][]*ebiten.Image)
	}
	b := img.Bounds()
	key := offscreenKey{b.Dx(), b.Dy()}
	p.free[key] = append(p.free[key], img)
	p.inUse--
}

// Outstanding returns the number of acquired images not yet released.
func (p *offscreenPool) Outstanding() int {
	return p.inUse
}

// Dispose deallocates every pooled image.
func (p *offscreenPool) Dispose() {
	for key, list := range p.free {
		for _, img := range list {
			img.Deallocate()
		}
		delete(p.free, key)
	}
}

// nextPowerOfTwo returns the smallest power of two >= n, minimum 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
