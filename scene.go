package marionette

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene is the top-level object that owns the entities, cameras, class
// library and renderer. A host calls Tick, Update and Draw in that order,
// all on one goroutine.
type Scene struct {
	// ClearColor fills the screen before drawing. A zero alpha skips the fill.
	ClearColor Color
	// Physics steps rigid bodies in Tick. Nil disables physics.
	Physics PhysicsStepper
	// Hook customizes draw packets for every entity. May be nil.
	Hook DrawHook
	// ShowStats draws FPS and renderer counters over the frame.
	ShowStats bool
	// ScreenshotDir receives PNGs queued by Screenshot. Defaults to
	// "screenshots".
	ScreenshotDir string

	entities []*Entity
	cameras  []*Camera
	library  *Library
	renderer *Renderer
	painter  *EbitenPainter
	observer TrackObserver
	metrics  *RendererMetrics

	overlay         statsOverlay
	screenshotQueue []string
	treeBuf         []*RenderTree[*Node]
}

// NewScene creates an empty scene with its own class library.
func NewScene() *Scene {
	lib := NewLibrary()
	return &Scene{
		Physics:  KinematicIntegrator{},
		library:  lib,
		renderer: NewRenderer(lib),
		painter:  NewEbitenPainter(nil),
	}
}

// Library returns the class library the renderer resolves against.
func (s *Scene) Library() *Library { return s.library }

// Renderer returns the scene renderer.
func (s *Scene) Renderer() *Renderer { return s.renderer }

// AddEntity adds e to the scene. Its track events go to the scene's
// observer.
func (s *Scene) AddEntity(e *Entity) {
	s.entities = append(s.entities, e)
	e.SetObserver(s.trackObserver())
}

// RemoveEntity removes e from the scene. Its paint nodes are evicted at the
// end of the next frame.
func (s *Scene) RemoveEntity(e *Entity) {
	for i, x := range s.entities {
		if x == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			e.SetObserver(nil)
			return
		}
	}
}

// Entities returns the scene's entity list. The returned slice MUST NOT be mutated.
func (s *Scene) Entities() []*Entity { return s.entities }

// FindEntity returns the first entity with the given name.
func (s *Scene) FindEntity(name string) (*Entity, bool) {
	for _, e := range s.entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// NewCamera creates a camera with the given viewport and adds it to the scene.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	cam := NewCamera(viewport)
	s.cameras = append(s.cameras, cam)
	return cam
}

// RemoveCamera removes a camera from the scene.
func (s *Scene) RemoveCamera(cam *Camera) {
	for i, c := range s.cameras {
		if c == cam {
			s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
			return
		}
	}
}

// Cameras returns the scene's camera list. The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera { return s.cameras }

// SetTrackObserver sets the optional receiver of track events, such as the
// ECS bridge.
func (s *Scene) SetTrackObserver(o TrackObserver) {
	s.observer = o
	for _, e := range s.entities {
		e.SetObserver(s.trackObserver())
	}
}

// SetMetrics enables Prometheus export of renderer stats and track events.
func (s *Scene) SetMetrics(m *RendererMetrics) {
	s.metrics = m
	for _, e := range s.entities {
		e.SetObserver(s.trackObserver())
	}
}

func (s *Scene) trackObserver() TrackObserver {
	switch {
	case s.observer != nil && s.metrics != nil:
		return multiObserver{s.observer, s.metrics}
	case s.observer != nil:
		return s.observer
	case s.metrics != nil:
		return s.metrics
	default:
		return nil
	}
}

type multiObserver []TrackObserver

func (m multiObserver) EmitTrackEvent(e TrackEvent) {
	for _, o := range m {
		o.EmitTrackEvent(e)
	}
}

// Tick steps physics and advances every entity's track by dt seconds.
func (s *Scene) Tick(dt float64) {
	if s.Physics != nil {
		s.Physics.Step(dt, s.entities)
	}
	for _, e := range s.entities {
		e.Update(dt)
	}
}

// Update advances material and drawable time and the cameras.
func (s *Scene) Update(dt float64) {
	s.renderer.Update(dt)
	for _, cam := range s.cameras {
		cam.Update(float32(dt))
	}
	if s.ShowStats {
		s.overlay.update(dt, s.renderer.Stats())
	}
}

// Draw renders every entity through every camera onto screen. Without
// cameras the identity view covers the whole screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	s.renderer.BeginFrame()
	if len(s.cameras) == 0 {
		s.renderer.ClearCullRect()
		s.drawView(screen, mgl64.Ident3())
	}
	for _, cam := range s.cameras {
		vp := cam.Viewport
		target := screen.SubImage(image.Rect(
			int(vp.X), int(vp.Y),
			int(vp.X+vp.Width), int(vp.Y+vp.Height),
		)).(*ebiten.Image)
		if cam.CullEnabled {
			s.renderer.SetCullRect(vp)
		} else {
			s.renderer.ClearCullRect()
		}
		s.drawView(target, cam.ViewMatrix())
	}
	s.renderer.EndFrame()
	if s.metrics != nil {
		s.metrics.Observe(s.renderer.Stats())
	}
	if s.ShowStats {
		s.overlay.draw(screen)
	}
	s.flushScreenshots(screen)
}

func (s *Scene) drawView(target *ebiten.Image, view mgl64.Mat3) {
	s.painter.SetTarget(target)
	s.renderer.DrawTrees(s.painter, s.trees(), view, s.Hook)
}

// trees returns the entity trees in entity order.
func (s *Scene) trees() []*RenderTree[*Node] {
	s.treeBuf = s.treeBuf[:0]
	for _, e := range s.entities {
		s.treeBuf = append(s.treeBuf, e.Tree())
	}
	return s.treeBuf
}

// Simulate runs the scene headless for frames steps of dt seconds, painting
// into painter instead of the screen. It is the Tick, Update, Draw loop
// without ebiten.
func (s *Scene) Simulate(frames int, dt float64, painter Painter, frame func(i int, stats FrameStats)) {
	for i := 0; i < frames; i++ {
		s.Tick(dt)
		s.Update(dt)
		s.renderer.BeginFrame()
		view := mgl64.Ident3()
		if len(s.cameras) > 0 {
			view = s.cameras[0].ViewMatrix()
		}
		s.renderer.DrawTrees(painter, s.trees(), view, s.Hook)
		s.renderer.EndFrame()
		if s.metrics != nil {
			s.metrics.Observe(s.renderer.Stats())
		}
		if frame != nil {
			frame(i, s.renderer.Stats())
		}
	}
}
