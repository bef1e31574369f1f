package marionette

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// AtlasRegion describes a sub-rectangle within an atlas page.
type AtlasRegion struct {
	Page          int
	X, Y          int
	Width, Height int
	Rotated       bool // stored 90 degrees clockwise in the page
}

// Atlas holds one or more atlas page images and a map of named regions. It
// is the usual source of MaterialClass images and animation frames.
type Atlas struct {
	// Pages contains the atlas page images indexed by page number.
	Pages   []*ebiten.Image
	regions map[string]AtlasRegion
}

// Region returns the region with the given name.
func (a *Atlas) Region(name string) (AtlasRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Names returns every region name in sorted order.
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.regions))
	for name := range a.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Image returns the sub-image of the named region. A missing region or page
// yields a 1x1 magenta placeholder and a warning.
func (a *Atlas) Image(name string) *ebiten.Image {
	r, ok := a.regions[name]
	if !ok || r.Page < 0 || r.Page >= len(a.Pages) || a.Pages[r.Page] == nil {
		logger.Warn("atlas region not found, using placeholder", "region", name)
		return ensureMagentaImage()
	}
	return a.Pages[r.Page].SubImage(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)).(*ebiten.Image)
}

// Frames returns the images of every region whose name starts with prefix,
// in name order. It is meant for MaterialClass.Frames, with frames named
// like "walk_00.png", "walk_01.png".
func (a *Atlas) Frames(prefix string) []*ebiten.Image {
	var frames []*ebiten.Image
	for _, name := range a.Names() {
		if strings.HasPrefix(name, prefix) {
			frames = append(frames, a.Image(name))
		}
	}
	return frames
}

// MaterialClass creates a material animating the frames with the given
// prefix at fps frames per second.
func (a *Atlas) MaterialClass(name, prefix string, fps float64) *MaterialClass {
	c := NewMaterialClass(name, ColorWhite)
	c.Frames = a.Frames(prefix)
	c.FPS = fps
	return c
}

var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// LoadAtlas parses TexturePacker JSON data and associates the given page images.
// Supports both the hash format (single "frames" object) and the array format
// ("textures" array with per-page frame lists).
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:   pages,
		regions: make(map[string]AtlasRegion),
	}
	switch {
	case probe.Textures != nil:
		var textures []jsonTexturePage
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, fmt.Errorf("failed to parse atlas textures array: %w", err)
		}
		for i, tex := range textures {
			atlas.addFrames(tex.Frames, i)
		}
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, fmt.Errorf("failed to parse atlas frames: %w", err)
		}
		atlas.addFrames(frames, 0)
	default:
		return nil, fmt.Errorf("atlas JSON has neither \"frames\" nor \"textures\" key")
	}
	return atlas, nil
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame   jsonRect `json:"frame"`
	Rotated bool     `json:"rotated"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

func (a *Atlas) addFrames(frames map[string]jsonFrame, page int) {
	for name, f := range frames {
		a.regions[name] = AtlasRegion{
			Page:    page,
			X:       f.Frame.X,
			Y:       f.Frame.Y,
			Width:   f.Frame.W,
			Height:  f.Frame.H,
			Rotated: f.Rotated,
		}
	}
}
