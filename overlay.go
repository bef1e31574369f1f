package marionette

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// statsOverlay prints FPS, TPS and renderer counters in the top-left
// corner. The text is refreshed every half second.
type statsOverlay struct {
	img   *ebiten.Image
	since float64
	text  string
}

const statsOverlayRefresh = 0.5

// update refreshes the text when the refresh interval has elapsed.
func (o *statsOverlay) update(dt float64, s FrameStats) {
	o.since += dt
	if o.text != "" && o.since < statsOverlayRefresh {
		return
	}
	o.since = 0
	o.text = formatStats(ebiten.ActualFPS(), ebiten.ActualTPS(), s)
}

func formatStats(fps, tps float64, s FrameStats) string {
	return fmt.Sprintf("FPS: %.1f TPS: %.1f\npackets: %d layers: %d\ncache: %d hits: %d misses: %d",
		fps, tps, s.Packets, s.Layers, s.CachedNodes, s.CacheHits, s.CacheMisses)
}

func (o *statsOverlay) draw(screen *ebiten.Image) {
	if o.img == nil {
		o.img = ebiten.NewImage(200, 48)
	}
	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
	screen.DrawImage(o.img, nil)
}
