package marionette

// PhysicsStepper advances rigid bodies by a fixed step. The physics engine
// is external; the Scene only needs this one entry point.
type PhysicsStepper interface {
	Step(dt float64, entities []*Entity)
}

// KinematicIntegrator is a minimal PhysicsStepper that moves enabled
// kinematic bodies by their velocities. Static and dynamic bodies are left
// to a real engine.
type KinematicIntegrator struct{}

// Step implements PhysicsStepper.
func (KinematicIntegrator) Step(dt float64, entities []*Entity) {
	for _, e := range entities {
		e.Tree().Walk(func(n *Node) {
			b := n.RigidBody
			if b == nil || b.Simulation != SimulationKinematic || !b.TestFlag(RigidBodyEnabled) {
				return
			}
			n.Position = n.Position.Add(b.LinearVelocity.Mul(dt))
			if !b.TestFlag(RigidBodyDiscardRotation) {
				n.Rotation += b.AngularVelocity * dt
			}
		})
	}
}
