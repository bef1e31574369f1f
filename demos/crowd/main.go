// crowd spawns 2,000 entities, each playing its own looping track over a
// spinning kinematic body, with a share of them swapping materials every
// second. A stress test for the track state machine and the paint node
// cache. Metrics are served on :2112/metrics while the window is open.
package main

import (
	"errors"
	"log"
	"math"
	"math/rand/v2"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phanxgames/marionette"
)

const (
	screenW = 1280
	screenH = 720
	count   = 2_000
)

func main() {
	scene := marionette.NewScene()
	scene.ClearColor = marionette.Color{R: 0.06, G: 0.06, B: 0.09, A: 1}
	scene.ShowStats = true
	lib := scene.Library()

	reg := prometheus.NewRegistry()
	metrics, err := marionette.NewRendererMetrics("crowd", reg)
	if err != nil {
		log.Fatalf("register metrics: %v", err)
	}
	scene.SetMetrics(metrics)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(":2112", mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	palette := make([]*marionette.MaterialClass, 6)
	for i := range palette {
		h := float64(i) / float64(len(palette))
		palette[i] = marionette.NewMaterialClass("hue", marionette.Color{
			R: 0.5 + 0.5*math.Cos(2*math.Pi*h),
			G: 0.5 + 0.5*math.Cos(2*math.Pi*(h+1.0/3)),
			B: 0.5 + 0.5*math.Cos(2*math.Pi*(h+2.0/3)),
			A: 1,
		})
		lib.AddMaterial(palette[i])
	}
	shapes := []*marionette.DrawableClass{
		marionette.NewDrawableClass("box", marionette.ShapeRectangle),
		marionette.NewDrawableClass("disc", marionette.ShapeCircle),
		marionette.NewDrawableClass("tri", marionette.ShapeIsoscelesTriangle),
	}
	for _, d := range shapes {
		lib.AddDrawable(d)
	}

	bodies := make([]*marionette.Node, count)
	for i := range bodies {
		e := marionette.NewEntity("walker")
		size := 6 + rand.Float64()*10
		n := marionette.NewDrawableNode("body",
			palette[rand.IntN(len(palette))].ID,
			shapes[rand.IntN(len(shapes))].ID,
			marionette.Vec2{X: size, Y: size})
		n.Position = marionette.Vec2{X: rand.Float64() * screenW, Y: rand.Float64() * screenH}
		n.Drawable.Layer = rand.IntN(4) - 2
		n.RigidBody = marionette.NewRigidBodyItem(marionette.SimulationKinematic)
		e.AddNode(n)
		scene.AddEntity(e)
		bodies[i] = n

		track := marionette.NewTrackClass("pulse", 0.5+rand.Float64()*1.5)
		track.Looping = true
		spin := marionette.NewActuatorClass(n.ID, marionette.SetValueEnd{
			Param: marionette.ParamAngularVelocity,
			Value: (rand.Float64() - 0.5) * 8,
		})
		spin.Duration = 0.5
		fade := marionette.NewActuatorClass(n.ID, marionette.SetValueEnd{
			Param: marionette.ParamDrawableAlpha,
			Value: 0.3,
		})
		fade.Method = marionette.InterpolationCosine
		track.AddActuator(spin)
		track.AddActuator(fade)
		e.PlayTrack(track)
	}

	var ticks int
	err = marionette.Run(scene, marionette.RunConfig{
		Title:  "Marionette: Crowd Demo",
		Width:  screenW,
		Height: screenH,
		TPS:    60,
		OnUpdate: func(*marionette.Scene) error {
			ticks++
			if ticks%60 == 0 {
				for i := 0; i < count/10; i++ {
					n := bodies[rand.IntN(count)]
					n.Drawable.MaterialID = palette[rand.IntN(len(palette))].ID
				}
			}
			return nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
