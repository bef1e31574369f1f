package ecs

import (
	"github.com/phanxgames/marionette"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// TrackEventType is the Donburi event type for marionette track events.
var TrackEventType = events.NewEventType[marionette.TrackEvent]()

type donburiObserver struct {
	world donburi.World
}

// NewDonburiObserver creates a TrackObserver backed by a Donburi world.
// Track events are published to TrackEventType and can be consumed with
// Subscribe and ProcessEvents.
func NewDonburiObserver(world donburi.World) marionette.TrackObserver {
	return &donburiObserver{world: world}
}

func (o *donburiObserver) EmitTrackEvent(event marionette.TrackEvent) {
	TrackEventType.Publish(o.world, event)
}
