// Package physics implements the fixed-step rigid body simulation behind a
// room: gravity, sphere-vs-static collision and ground contact detection.
// It is deliberately small — one dynamic sphere per player against immutable
// static geometry is all a room needs.
package physics

import (
	"math"
	"time"
)

const (
	// FixedTimeStep is the simulation resolution.
	FixedTimeStep = 1.0 / 60.0

	// MaxSubSteps bounds the work done per Step call so a stalled host
	// cannot trigger a catch-up spiral.
	MaxSubSteps = 3

	defaultGravity = -24.0
)

// Contact describes one collision between a dynamic body and a static body,
// reported synchronously during Step.
type Contact struct {
	BodyA  *Body // dynamic
	BodyB  *Body // static
	Normal Vec3  // pushes BodyA out of BodyB
}

// ContactHandler receives contact events for one dynamic body.
type ContactHandler func(Contact)

// Body is a rigid body owned by a World. Mass 0 marks static geometry.
// Only the Y component of a static body's rotation affects contact tests.
type Body struct {
	ID       string
	Shape    Shape
	Mass     float64
	Position Vec3
	Velocity Vec3
	Rotation Vec3

	onContact ContactHandler
	canJump   bool
}

// CanJump reports whether the body has ground contact credit for one jump.
func (b *Body) CanJump() bool {
	return b.canJump
}

// AllowJump reopens the jump gate. Contact handlers call this when a
// qualifying collision lands the body on something jumpable.
func (b *Body) AllowJump() {
	b.canJump = true
}

// Jump applies an upward velocity impulse if the jump gate is open and
// closes the gate. Returns whether the impulse was applied.
func (b *Body) Jump(velocity float64) bool {
	if !b.canJump {
		return false
	}
	b.Velocity.Y = velocity
	b.canJump = false
	return true
}

// ResetAt teleports the body, zeroes its velocity and reopens the jump gate.
// Used for respawns.
func (b *Body) ResetAt(pos Vec3) {
	b.Position = pos
	b.Velocity = Vec3{}
	b.canJump = true
}

// World steps dynamic sphere bodies against static collision geometry.
// It is not safe for concurrent use; the owning room serializes all access.
type World struct {
	Gravity  float64
	statics  []*Body
	dynamics []*Body
}

func NewWorld() *World {
	return &World{Gravity: defaultGravity}
}

// AddStatic registers an immovable collider. shape must be Box or Cylinder.
func (w *World) AddStatic(id string, shape Shape, pos, rot Vec3) *Body {
	b := &Body{ID: id, Shape: shape, Position: pos, Rotation: rot}
	w.statics = append(w.statics, b)
	return b
}

// AddSphere registers a dynamic sphere body. The handler may be nil.
func (w *World) AddSphere(id string, radius, mass float64, pos Vec3, handler ContactHandler) *Body {
	b := &Body{
		ID:        id,
		Shape:     Sphere{Radius: radius},
		Mass:      mass,
		Position:  pos,
		onContact: handler,
		canJump:   true,
	}
	w.dynamics = append(w.dynamics, b)
	return b
}

// RemoveBody detaches a dynamic body from the world. Removing a body that
// was already removed is a no-op.
func (w *World) RemoveBody(body *Body) {
	for i, b := range w.dynamics {
		if b == body {
			w.dynamics = append(w.dynamics[:i], w.dynamics[i+1:]...)
			body.onContact = nil
			return
		}
	}
}

// BodyCount returns the number of live dynamic bodies.
func (w *World) BodyCount() int {
	return len(w.dynamics)
}

// StaticCount returns the number of static colliders.
func (w *World) StaticCount() int {
	return len(w.statics)
}

// Step advances the simulation. elapsed hints how much wall-clock time
// passed since the previous call; the world runs whole fixed timesteps to
// cover it, at most MaxSubSteps of them.
func (w *World) Step(elapsed time.Duration) {
	steps := int(math.Round(elapsed.Seconds() / FixedTimeStep))
	if steps < 1 {
		steps = 1
	}
	if steps > MaxSubSteps {
		steps = MaxSubSteps
	}
	for i := 0; i < steps; i++ {
		w.substep(FixedTimeStep)
	}
}

func (w *World) substep(h float64) {
	for _, b := range w.dynamics {
		b.Velocity.Y += w.Gravity * h
		b.Position = b.Position.Add(b.Velocity.Scale(h))

		for _, s := range w.statics {
			normal, depth, ok := w.collide(b, s)
			if !ok {
				continue
			}
			b.Position = b.Position.Add(normal.Scale(depth))
			into := b.Velocity.Dot(normal)
			if into < 0 {
				b.Velocity = b.Velocity.Sub(normal.Scale(into))
			}
			if b.onContact != nil {
				b.onContact(Contact{BodyA: b, BodyB: s, Normal: normal})
			}
		}
	}
}

// collide tests the dynamic sphere b against static s. It returns the
// world-space push-out normal and penetration depth.
func (w *World) collide(b, s *Body) (Vec3, float64, bool) {
	sphere, ok := b.Shape.(Sphere)
	if !ok {
		return Vec3{}, 0, false
	}
	switch shape := s.Shape.(type) {
	case Box:
		return sphereVsBox(b.Position, sphere.Radius, s.Position, s.Rotation.Y, shape)
	case Cylinder:
		return sphereVsCylinder(b.Position, sphere.Radius, s.Position, shape)
	}
	return Vec3{}, 0, false
}

func sphereVsBox(center Vec3, radius float64, boxPos Vec3, yaw float64, box Box) (Vec3, float64, bool) {
	// Work in the box's local frame.
	local := rotateY(center.Sub(boxPos), -yaw)
	closest := Vec3{
		X: clamp(local.X, -box.HalfX, box.HalfX),
		Y: clamp(local.Y, -box.HalfY, box.HalfY),
		Z: clamp(local.Z, -box.HalfZ, box.HalfZ),
	}
	delta := local.Sub(closest)
	dist := delta.Length()

	if dist == 0 {
		// Center inside the box: eject through the top face.
		depth := box.HalfY - local.Y + radius
		return rotateY(Vec3{Y: 1}, yaw), depth, true
	}
	if dist >= radius {
		return Vec3{}, 0, false
	}
	return rotateY(delta.Normalized(), yaw), radius - dist, true
}

func sphereVsCylinder(center Vec3, radius float64, cylPos Vec3, cyl Cylinder) (Vec3, float64, bool) {
	r := cyl.radius()
	dx := center.X - cylPos.X
	dz := center.Z - cylPos.Z
	radial := math.Sqrt(dx*dx + dz*dz)

	dirX, dirZ := 1.0, 0.0
	if radial > 0 {
		dirX, dirZ = dx/radial, dz/radial
	}
	closest := Vec3{
		X: cylPos.X + dirX*math.Min(radial, r),
		Y: clamp(center.Y, cylPos.Y-cyl.Height/2, cylPos.Y+cyl.Height/2),
		Z: cylPos.Z + dirZ*math.Min(radial, r),
	}
	delta := center.Sub(closest)
	dist := delta.Length()

	if dist == 0 {
		// Center inside the cylinder: eject through the top cap.
		depth := cylPos.Y + cyl.Height/2 - center.Y + radius
		return Vec3{Y: 1}, depth, true
	}
	if dist >= radius {
		return Vec3{}, 0, false
	}
	return delta.Normalized(), radius - dist, true
}
