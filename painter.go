package marionette

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Painter receives the packets of one frame layer by layer, in ascending
// layer order. draw holds the Draw pass packets and mask the Mask pass
// packets of the layer, both in emission order. A non-empty mask clips
// draw to the union of the mask shapes.
type Painter interface {
	PaintLayer(layer int, draw, mask []DrawPacket)
}

// PaintedLayer is one PaintLayer call captured by a RecordingPainter.
type PaintedLayer struct {
	Layer int
	Draw  []DrawPacket
	Mask  []DrawPacket
}

// RecordingPainter captures layers instead of painting them. It is used for
// headless simulation and tests.
type RecordingPainter struct {
	Layers []PaintedLayer
}

// PaintLayer implements Painter.
func (p *RecordingPainter) PaintLayer(layer int, draw, mask []DrawPacket) {
	p.Layers = append(p.Layers, PaintedLayer{
		Layer: layer,
		Draw:  append([]DrawPacket(nil), draw...),
		Mask:  append([]DrawPacket(nil), mask...),
	})
}

// Reset drops every captured layer.
func (p *RecordingPainter) Reset() {
	p.Layers = p.Layers[:0]
}

// Packets returns every captured packet in submission order.
func (p *RecordingPainter) Packets() []DrawPacket {
	var out []DrawPacket
	for _, l := range p.Layers {
		out = append(out, l.Draw...)
	}
	return out
}

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily created 1x1 white image used as the
// source of flat colored geometry.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// EbitenPainter paints packets onto an ebiten image. Solid geometry is
// submitted with DrawTriangles; outlines and wireframes become screen-space
// quads LineWidth pixels wide. Masked layers are composed offscreen.
type EbitenPainter struct {
	target *ebiten.Image
	pool   offscreenPool
	verts  []ebiten.Vertex
	inds   []uint16
}

// NewEbitenPainter creates a painter drawing onto target.
func NewEbitenPainter(target *ebiten.Image) *EbitenPainter {
	return &EbitenPainter{target: target}
}

// SetTarget changes the image painted onto.
func (p *EbitenPainter) SetTarget(target *ebiten.Image) {
	p.target = target
}

// Dispose releases the offscreen images.
func (p *EbitenPainter) Dispose() {
	p.pool.Dispose()
}

// PaintLayer implements Painter.
func (p *EbitenPainter) PaintLayer(_ int, draw, mask []DrawPacket) {
	if p.target == nil {
		return
	}
	if len(mask) == 0 {
		for i := range draw {
			p.paint(p.target, &draw[i], false)
		}
		return
	}

	b := p.target.Bounds()
	layerRT := p.pool.Acquire(b.Dx(), b.Dy())
	for i := range draw {
		p.paint(layerRT, &draw[i], false)
	}
	maskRT := p.pool.Acquire(b.Dx(), b.Dy())
	for i := range mask {
		p.paint(maskRT, &mask[i], true)
	}

	var op ebiten.DrawImageOptions
	op.Blend = BlendMask.EbitenBlend()
	layerRT.DrawImage(maskRT, &op)
	p.pool.Release(maskRT)

	var out ebiten.DrawImageOptions
	out.GeoM.Translate(float64(b.Min.X), float64(b.Min.Y))
	p.target.DrawImage(layerRT, &out)
	p.pool.Release(layerRT)
}

// paint draws one packet onto dst. Mask packets ignore the material blend
// mode and only contribute coverage.
func (p *EbitenPainter) paint(dst *ebiten.Image, pk *DrawPacket, asMask bool) {
	if pk.Material == nil || pk.Drawable == nil {
		return
	}
	blend := ebiten.BlendSourceOver
	if !asMask {
		blend = pk.Material.Class().BlendMode.EbitenBlend()
	}
	c := pk.Material.Color()
	src := pk.Material.Frame()
	geom := pk.Drawable.Geometry()

	p.verts = p.verts[:0]
	p.inds = p.inds[:0]
	switch pk.Drawable.Style() {
	case StyleOutline:
		src = nil
		p.appendEdges(pk, geom, geom.Outline(), c)
	case StyleWireframe:
		src = nil
		p.appendEdges(pk, geom, geom.Wireframe(), c)
	default:
		p.appendSolid(pk, geom, src, c)
	}
	if len(p.inds) == 0 {
		return
	}
	if src == nil {
		src = ensureWhitePixel()
	}

	var op ebiten.DrawTrianglesOptions
	op.Blend = blend
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	dst.DrawTriangles(p.verts, p.inds, src, &op)
}

// appendSolid emits the fan triangulated shape. Image materials map the
// unit square onto the whole image.
func (p *EbitenPainter) appendSolid(pk *DrawPacket, geom Geometry, src *ebiten.Image, c Color) {
	var sw, sh, sx, sy float64
	if src != nil {
		b := src.Bounds()
		sx, sy = float64(b.Min.X), float64(b.Min.Y)
		sw, sh = float64(b.Dx()), float64(b.Dy())
	}
	for _, pt := range geom.Points {
		x, y := MapPoint(pk.Transform, pt.X, pt.Y)
		v := coloredVertex(x, y, c)
		if src != nil {
			v.SrcX = float32(sx + pt.X*sw)
			v.SrcY = float32(sy + pt.Y*sh)
		}
		p.verts = append(p.verts, v)
	}
	p.inds = append(p.inds, geom.Indices...)
}

// appendEdges emits one quad per edge, LineWidth pixels wide in target
// space.
func (p *EbitenPainter) appendEdges(pk *DrawPacket, geom Geometry, edges [][2]uint16, c Color) {
	half := pk.Drawable.LineWidth() / 2
	if half <= 0 {
		half = 0.5
	}
	for _, e := range edges {
		ax, ay := MapPoint(pk.Transform, geom.Points[e[0]].X, geom.Points[e[0]].Y)
		bx, by := MapPoint(pk.Transform, geom.Points[e[1]].X, geom.Points[e[1]].Y)
		dx, dy := bx-ax, by-ay
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half

		base := uint16(len(p.verts))
		p.verts = append(p.verts,
			coloredVertex(ax+nx, ay+ny, c),
			coloredVertex(bx+nx, by+ny, c),
			coloredVertex(ax-nx, ay-ny, c),
			coloredVertex(bx-nx, by-ny, c),
		)
		p.inds = append(p.inds,
			base+0, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
}

// coloredVertex returns a vertex with premultiplied color sampling the
// center of the white pixel.
func coloredVertex(x, y float64, c Color) ebiten.Vertex {
	a := float32(clamp01(c.A))
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   0.5,
		SrcY:   0.5,
		ColorR: float32(clamp01(c.R)) * a,
		ColorG: float32(clamp01(c.G)) * a,
		ColorB: float32(clamp01(c.B)) * a,
		ColorA: a,
	}
}
