package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phanxgames/marionette"
	"gopkg.in/yaml.v3"
)

// sceneFile is the YAML description of a headless scene.
type sceneFile struct {
	Frames    int            `yaml:"frames"`
	Camera    *cameraFile    `yaml:"camera"`
	Materials []materialFile `yaml:"materials"`
	Drawables []drawableFile `yaml:"drawables"`
	Entities  []entityFile   `yaml:"entities"`

	dir string
}

type cameraFile struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Zoom     float64 `yaml:"zoom"`
	Rotation float64 `yaml:"rotation"`
}

type materialFile struct {
	ID    string     `yaml:"id"`
	Color [4]float64 `yaml:"color"`
	Blend string     `yaml:"blend"`
}

type drawableFile struct {
	ID       string `yaml:"id"`
	Shape    string `yaml:"shape"`
	Segments int    `yaml:"segments"`
}

type entityFile struct {
	Name  string     `yaml:"name"`
	Track string     `yaml:"track"`
	Nodes []nodeFile `yaml:"nodes"`
}

type nodeFile struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Parent   string      `yaml:"parent"`
	Position [2]float64  `yaml:"position"`
	Size     *[2]float64 `yaml:"size"`
	Scale    *[2]float64 `yaml:"scale"`
	Rotation float64     `yaml:"rotation"`
	Material string      `yaml:"material"`
	Drawable string      `yaml:"drawable"`
	Layer    int         `yaml:"layer"`
	Pass     string      `yaml:"pass"`
	Style    string      `yaml:"style"`
	Body     string      `yaml:"body"`
}

// loadSceneFile reads a scene description. Track paths are resolved
// relative to the scene file.
func loadSceneFile(path string) (*sceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	var sf sceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	sf.dir = filepath.Dir(path)
	return &sf, nil
}

// build creates the scene and starts every entity's track. Track classes
// go through the library so entities sharing a track file share a class.
func (sf *sceneFile) build(cfg *marionette.Config) (*marionette.Scene, error) {
	s := marionette.NewScene()
	if err := cfg.Apply(s); err != nil {
		return nil, err
	}
	lib := s.Library()

	for _, m := range sf.Materials {
		c := marionette.NewMaterialClass(m.ID, marionette.Color{R: m.Color[0], G: m.Color[1], B: m.Color[2], A: m.Color[3]})
		c.ID = m.ID
		blend, err := parseBlend(m.Blend)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", m.ID, err)
		}
		c.BlendMode = blend
		lib.AddMaterial(c)
	}
	for _, d := range sf.Drawables {
		shape, ok := marionette.ParseShape(d.Shape)
		if !ok {
			return nil, fmt.Errorf("drawable %s: unknown shape %q", d.ID, d.Shape)
		}
		c := marionette.NewDrawableClass(d.ID, shape)
		c.ID = d.ID
		if d.Segments > 0 {
			c.Segments = d.Segments
		}
		lib.AddDrawable(c)
	}

	if sf.Camera != nil {
		w, h := cfg.Window.Width, cfg.Window.Height
		cam := s.NewCamera(marionette.Rect{Width: float64(w), Height: float64(h)})
		cam.X, cam.Y = sf.Camera.X, sf.Camera.Y
		cam.Rotation = sf.Camera.Rotation
		if sf.Camera.Zoom > 0 {
			cam.Zoom = sf.Camera.Zoom
		}
	}

	tracks := make(map[string]*marionette.AnimationTrackClass)
	for _, ef := range sf.Entities {
		e, err := ef.build()
		if err != nil {
			return nil, err
		}
		s.AddEntity(e)
		if ef.Track == "" {
			continue
		}
		path := ef.Track
		if !filepath.IsAbs(path) {
			path = filepath.Join(sf.dir, path)
		}
		c, ok := tracks[path]
		if !ok {
			loaded, err := readTrack(path)
			if err != nil {
				return nil, fmt.Errorf("entity %s: %w", ef.Name, err)
			}
			c = lib.AcquireTrack(loaded).Value()
			tracks[path] = c
		}
		e.PlayTrack(c)
	}
	return s, nil
}

func (ef entityFile) build() (*marionette.Entity, error) {
	e := marionette.NewEntity(ef.Name)
	for _, nf := range ef.Nodes {
		n, err := nf.build()
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", ef.Name, err)
		}
		if nf.Parent == "" {
			e.AddNode(n)
			continue
		}
		parent, ok := e.FindNodeByID(nf.Parent)
		if !ok {
			return nil, fmt.Errorf("entity %s: node %s: parent %q not declared before it", ef.Name, nf.ID, nf.Parent)
		}
		e.LinkChild(parent, n)
	}
	return e, nil
}

func (nf nodeFile) build() (*marionette.Node, error) {
	name := nf.Name
	if name == "" {
		name = nf.ID
	}
	n := marionette.NewNode(name)
	if nf.ID != "" {
		n.ID = nf.ID
	}
	n.Position = marionette.Vec2{X: nf.Position[0], Y: nf.Position[1]}
	if nf.Size != nil {
		n.Size = marionette.Vec2{X: nf.Size[0], Y: nf.Size[1]}
	}
	if nf.Scale != nil {
		n.Scale = marionette.Vec2{X: nf.Scale[0], Y: nf.Scale[1]}
	}
	n.Rotation = nf.Rotation

	if nf.Material != "" || nf.Drawable != "" {
		d := marionette.NewDrawableItem(nf.Material, nf.Drawable)
		d.Layer = nf.Layer
		switch strings.ToLower(nf.Pass) {
		case "", "draw":
		case "mask":
			d.Pass = marionette.PassMask
		default:
			return nil, fmt.Errorf("node %s: unknown pass %q", nf.ID, nf.Pass)
		}
		switch strings.ToLower(nf.Style) {
		case "", "solid":
		case "outline":
			d.Style = marionette.StyleOutline
		case "wireframe":
			d.Style = marionette.StyleWireframe
		default:
			return nil, fmt.Errorf("node %s: unknown style %q", nf.ID, nf.Style)
		}
		n.Drawable = d
	}

	switch strings.ToLower(nf.Body) {
	case "":
	case "static":
		n.RigidBody = marionette.NewRigidBodyItem(marionette.SimulationStatic)
	case "kinematic":
		n.RigidBody = marionette.NewRigidBodyItem(marionette.SimulationKinematic)
	case "dynamic":
		n.RigidBody = marionette.NewRigidBodyItem(marionette.SimulationDynamic)
	default:
		return nil, fmt.Errorf("node %s: unknown body %q", nf.ID, nf.Body)
	}
	return n, nil
}

func parseBlend(name string) (marionette.BlendMode, error) {
	switch strings.ToLower(name) {
	case "", "normal":
		return marionette.BlendNormal, nil
	case "add":
		return marionette.BlendAdd, nil
	case "multiply":
		return marionette.BlendMultiply, nil
	case "erase":
		return marionette.BlendErase, nil
	case "none":
		return marionette.BlendNone, nil
	default:
		return 0, fmt.Errorf("unknown blend %q", name)
	}
}
