// Package ecs provides ECS adapters for marionette.
//
// The primary adapter is [NewDonburiObserver], which bridges marionette
// track lifecycle events (started, looped, completed, stopped) into a
// [Donburi] world as typed events. Subscribe to [TrackEventType] in your
// ECS systems to receive them.
//
// Usage:
//
//	obs := ecs.NewDonburiObserver(world)
//	scene.SetTrackObserver(obs)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
