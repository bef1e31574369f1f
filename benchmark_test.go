package marionette

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// setupBenchEntity creates an entity with n drawable nodes arranged as a
// shallow hierarchy of ten-node chains, and a looping track that moves
// every chain head.
func setupBenchEntity(n int) (*Entity, *Library, *AnimationTrackClass) {
	lib := NewLibrary()
	mat := NewMaterialClass("m", ColorWhite)
	box := NewDrawableClass("box", ShapeRectangle)
	lib.AddMaterial(mat)
	lib.AddDrawable(box)

	e := NewEntity("bench")
	track := NewTrackClass("bench", 1)
	track.Looping = true
	var head *Node
	for i := 0; i < n; i++ {
		nd := NewDrawableNode("n", mat.ID, box.ID, Vec2{8, 8})
		nd.Position = Vec2{float64(i%100*10), float64(i/100*10)}
		nd.Drawable.Layer = i % 4
		if i%10 == 0 {
			e.AddNode(nd)
			head = nd
			track.AddActuator(NewActuatorClass(nd.ID, TransformEnd{
				Position: nd.Position.Add(Vec2{5, 5}), Size: nd.Size, Scale: Vec2{1, 1}, Rotation: 1,
			}))
			continue
		}
		e.LinkChild(head, nd)
	}
	return e, lib, track
}

func BenchmarkRendererDraw_5000Nodes(b *testing.B) {
	e, lib, _ := setupBenchEntity(5000)
	r := NewRenderer(lib)
	p := &RecordingPainter{}

	r.BeginFrame()
	r.Draw(nil, e.Tree(), mgl64.Ident3(), nil)
	r.EndFrame()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Reset()
		r.BeginFrame()
		r.Draw(p, e.Tree(), mgl64.Ident3(), nil)
		r.EndFrame()
	}
}

func BenchmarkEntityUpdate_500Actuators(b *testing.B) {
	e, _, track := setupBenchEntity(5000)
	e.PlayTrack(track)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Update(1.0 / 60)
	}
}

func BenchmarkTrackClassHash(b *testing.B) {
	_, _, track := setupBenchEntity(5000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = track.Hash()
	}
}
