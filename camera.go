package marionette

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera controls the view into the scene: position, zoom, rotation, and viewport.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// CullEnabled drops packets outside the viewport.
	CullEnabled bool

	followEntity *Entity
	followNode   *Node
	followOffset Vec2
	followLerp   float64

	scroll *scrollAnim
}

// NewCamera creates a camera centered on the origin rendering into viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:        1.0,
		Viewport:    viewport,
		CullEnabled: true,
	}
}

// Follow makes the camera track node n of entity e. A lerp of 1.0 snaps
// immediately; lower values give smoother following.
func (c *Camera) Follow(e *Entity, n *Node, offset Vec2, lerp float64) {
	c.followEntity = e
	c.followNode = n
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followEntity = nil
	c.followNode = nil
}

// ScrollTo animates the camera to the given world position over duration
// seconds using an interpolation method.
func (c *Camera) ScrollTo(x, y float64, duration float32, method Interpolation) {
	fn, ok := easeFuncs[method]
	if !ok {
		fn = ease.Linear
	}
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, fn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, fn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool {
	return c.scroll != nil
}

// Update advances follow and scroll. Called from Scene.Update.
func (c *Camera) Update(dt float32) {
	if c.followNode != nil && c.followEntity != nil {
		if c.followEntity.Tree().Contains(c.followNode) {
			tx, ty := MapFromNode(c.followEntity.Tree(), c.followNode, 0, 0)
			tx += c.followOffset.X
			ty += c.followOffset.Y
			c.X += (tx - c.X) * c.followLerp
			c.Y += (ty - c.Y) * c.followLerp
		} else {
			c.Unfollow()
		}
	}

	if c.scroll != nil {
		if !c.scroll.doneX {
			val, done := c.scroll.tweenX.Update(dt)
			c.X = float64(val)
			c.scroll.doneX = done
		}
		if !c.scroll.doneY {
			val, done := c.scroll.tweenY.Update(dt)
			c.Y = float64(val)
			c.scroll.doneY = done
		}
		if c.scroll.doneX && c.scroll.doneY {
			c.scroll = nil
		}
	}
}

// ViewMatrix returns the world to screen transform:
// Translate(viewport center) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y).
func (c *Camera) ViewMatrix() mgl64.Mat3 {
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	return mgl64.Translate2D(cx, cy).
		Mul3(mgl64.Scale2D(c.Zoom, c.Zoom)).
		Mul3(mgl64.HomogRotate2D(-c.Rotation)).
		Mul3(mgl64.Translate2D(-c.X, -c.Y))
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return MapPoint(c.ViewMatrix(), wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return MapPoint(Invert(c.ViewMatrix()), sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	inv := Invert(c.ViewMatrix())

	vx := c.Viewport.X
	vy := c.Viewport.Y
	vr := vx + c.Viewport.Width
	vb := vy + c.Viewport.Height

	x0, y0 := MapPoint(inv, vx, vy)
	x1, y1 := MapPoint(inv, vr, vy)
	x2, y2 := MapPoint(inv, vr, vb)
	x3, y3 := MapPoint(inv, vx, vb)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
