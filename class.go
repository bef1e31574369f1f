package marionette

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// MaterialClass describes how a drawable is colored: a flat color, an
// optional image, or an image sequence played at FPS.
type MaterialClass struct {
	ID        string
	Name      string
	Color     Color
	Image     *ebiten.Image
	Frames    []*ebiten.Image
	FPS       float64
	BlendMode BlendMode
}

// NewMaterialClass creates a flat colored material.
func NewMaterialClass(name string, c Color) *MaterialClass {
	return &MaterialClass{ID: uuid.NewString(), Name: name, Color: c}
}

// Hash returns a content hash. Images are hashed by identity.
func (c *MaterialClass) Hash() uint64 {
	h := newHasher()
	h.str(c.ID)
	h.str(c.Name)
	h.f64(c.Color.R)
	h.f64(c.Color.G)
	h.f64(c.Color.B)
	h.f64(c.Color.A)
	h.str(fmt.Sprintf("%p", c.Image))
	h.u64(uint64(len(c.Frames)))
	for _, f := range c.Frames {
		h.str(fmt.Sprintf("%p", f))
	}
	h.f64(c.FPS)
	h.u64(uint64(c.BlendMode))
	return h.sum()
}

// DrawableClass describes the geometry a node paints.
type DrawableClass struct {
	ID       string
	Name     string
	Shape    Shape
	Segments int // circle tessellation, 0 for the default
}

// NewDrawableClass creates a drawable of the given shape.
func NewDrawableClass(name string, shape Shape) *DrawableClass {
	return &DrawableClass{ID: uuid.NewString(), Name: name, Shape: shape}
}

// Hash returns a content hash.
func (c *DrawableClass) Hash() uint64 {
	h := newHasher()
	h.str(c.ID)
	h.str(c.Name)
	h.u64(uint64(c.Shape))
	h.u64(uint64(c.Segments))
	return h.sum()
}

// Material is the runtime instance of a MaterialClass held in the paint
// node cache. Time advances in Renderer.Update.
type Material struct {
	class *MaterialClass
	time  float64
	alpha float64
}

func newMaterial(class *MaterialClass) *Material {
	return &Material{class: class, alpha: 1}
}

// Class returns the class the material was built from.
func (m *Material) Class() *MaterialClass { return m.class }

// Time returns the material time in seconds.
func (m *Material) Time() float64 { return m.time }

// Alpha returns the per-item alpha override currently applied.
func (m *Material) Alpha() float64 { return m.alpha }

// Color returns the class color with the alpha override applied.
func (m *Material) Color() Color {
	c := m.class.Color
	c.A *= m.alpha
	return c
}

// Frame returns the image to sample, or nil for a flat color. Frame
// sequences loop.
func (m *Material) Frame() *ebiten.Image {
	if n := len(m.class.Frames); n > 0 {
		if m.class.FPS <= 0 {
			return m.class.Frames[0]
		}
		i := int(math.Floor(m.time*m.class.FPS)) % n
		if i < 0 {
			i += n
		}
		return m.class.Frames[i]
	}
	return m.class.Image
}

// Drawable is the runtime instance of a DrawableClass held in the paint
// node cache. The geometry is built once per instance.
type Drawable struct {
	class     *DrawableClass
	geometry  Geometry
	style     RenderStyle
	lineWidth float64
	time      float64
}

func newDrawable(class *DrawableClass) *Drawable {
	return &Drawable{
		class:     class,
		geometry:  buildGeometry(class.Shape, class.Segments),
		lineWidth: 1,
	}
}

// Class returns the class the drawable was built from.
func (d *Drawable) Class() *DrawableClass { return d.class }

// Geometry returns the unit-space geometry.
func (d *Drawable) Geometry() Geometry { return d.geometry }

// Style returns the rasterization style currently applied.
func (d *Drawable) Style() RenderStyle { return d.style }

// LineWidth returns the outline width in pixels currently applied.
func (d *Drawable) LineWidth() float64 { return d.lineWidth }

// Time returns the drawable time in seconds.
func (d *Drawable) Time() float64 { return d.time }

// ClassLibrary resolves material and drawable classes by id.
type ClassLibrary interface {
	FindMaterialClass(id string) (*MaterialClass, bool)
	FindDrawableClass(id string) (*DrawableClass, bool)
}

// Library is an in-memory ClassLibrary. It also deduplicates track classes
// so entities playing equal tracks share one class.
type Library struct {
	materials map[string]*MaterialClass
	drawables map[string]*DrawableClass
	tracks    *Registry[*AnimationTrackClass]
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		materials: make(map[string]*MaterialClass),
		drawables: make(map[string]*DrawableClass),
		tracks:    NewRegistry[*AnimationTrackClass](),
	}
}

// AcquireTrack returns a shared handle for c's content. Release the handle
// when no entity plays the track any more.
func (l *Library) AcquireTrack(c *AnimationTrackClass) *Handle[*AnimationTrackClass] {
	return l.tracks.Acquire(c)
}

// NumTracks returns the number of distinct track classes held.
func (l *Library) NumTracks() int { return l.tracks.Len() }

// AddMaterial registers c, replacing any class with the same id.
func (l *Library) AddMaterial(c *MaterialClass) { l.materials[c.ID] = c }

// AddDrawable registers c, replacing any class with the same id.
func (l *Library) AddDrawable(c *DrawableClass) { l.drawables[c.ID] = c }

// RemoveMaterial unregisters the material with the given id.
func (l *Library) RemoveMaterial(id string) { delete(l.materials, id) }

// RemoveDrawable unregisters the drawable with the given id.
func (l *Library) RemoveDrawable(id string) { delete(l.drawables, id) }

// FindMaterialClass implements ClassLibrary.
func (l *Library) FindMaterialClass(id string) (*MaterialClass, bool) {
	c, ok := l.materials[id]
	return c, ok
}

// FindDrawableClass implements ClassLibrary.
func (l *Library) FindDrawableClass(id string) (*DrawableClass, bool) {
	c, ok := l.drawables[id]
	return c, ok
}
