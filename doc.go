// Package marionette is the animation and rendering core of a 2D game
// engine built on [Ebitengine].
//
// Marionette provides a render tree of nodes, timeline tracks made of typed
// actuators that animate node properties, and a renderer that turns the
// tree into layered draw packets with a per-node material and drawable
// cache.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := marionette.NewScene()
//	// ... add classes and entities ...
//	marionette.Run(scene, marionette.RunConfig{
//		Title: "My Game", Width: 640, Height: 480, TPS: 60,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Tick], [Scene.Update] and [Scene.Draw] in that order.
//
// # Render tree
//
// Every entity owns a [RenderTree] of [Node] values. Nodes carry a local
// transform and optional [DrawableItem] and [RigidBodyItem] capabilities;
// the tree holds the hierarchy. Children inherit their parent's transform.
//
//	hero := marionette.NewEntity("hero")
//	body := marionette.NewDrawableNode("body", red.ID, box.ID, marionette.Vec2{X: 32, Y: 32})
//	hero.AddNode(body)
//	scene.AddEntity(hero)
//
// # Tracks
//
// An [AnimationTrackClass] lists [ActuatorClass] values, each driving one
// property group of one node over a window of the track. [Entity.PlayTrack]
// instantiates the runtime [AnimationTrack]; [Scene.Tick] advances it.
// Tracks persist as JSON through [AnimationTrackClass.ToJSON] and
// [TrackClassFromJSON].
//
// # Rendering
//
// The [Renderer] walks each tree with a [TransformStack], resolves the
// [MaterialClass] and [DrawableClass] of every drawable node through a
// [ClassLibrary], and hands per-layer packet lists to a [Painter].
// A [DrawHook] may veto or append packets.
//
// ECS integration is available through the Donburi adapter in
// marionette/ecs.
//
// [Ebitengine]: https://ebitengine.org
package marionette
