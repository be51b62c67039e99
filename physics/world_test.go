package physics

import (
	"math"
	"testing"
	"time"
)

const stepDuration = time.Second / 60

// ground returns a world with a 20x20 plate whose top surface is at y=0.
func groundWorld() *World {
	w := NewWorld()
	w.AddStatic("ground", Box{HalfX: 10, HalfY: 0.5, HalfZ: 10}, Vec3{Y: -0.5}, Vec3{})
	return w
}

// armOnGround is the contact handler rooms install: landing on an
// upward-facing surface reopens the jump gate.
func armOnGround(c Contact) {
	if c.Normal.Y > 0.5 {
		c.BodyA.AllowJump()
	}
}

func settle(w *World, steps int) {
	for i := 0; i < steps; i++ {
		w.Step(stepDuration)
	}
}

func TestGravity_FreeFall(t *testing.T) {
	w := NewWorld()
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 10}, nil)

	w.Step(stepDuration)

	if b.Velocity.Y >= 0 {
		t.Errorf("expected downward velocity after one step, got %v", b.Velocity.Y)
	}
	if b.Position.Y >= 10 {
		t.Errorf("expected body to fall below 10, got %v", b.Position.Y)
	}
}

func TestBody_RestsOnGround(t *testing.T) {
	w := groundWorld()
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 2}, nil)

	settle(w, 120)

	if math.Abs(b.Position.Y-0.4) > 0.05 {
		t.Errorf("body should rest with center at sphere radius, got y=%v", b.Position.Y)
	}
	if math.Abs(b.Velocity.Y) > 0.5 {
		t.Errorf("resting body should have ~zero vertical velocity, got %v", b.Velocity.Y)
	}
}

func TestContactHandler_FiredOnLanding(t *testing.T) {
	w := groundWorld()
	var contacts []Contact
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 1}, func(c Contact) {
		contacts = append(contacts, c)
	})

	settle(w, 60)

	if len(contacts) == 0 {
		t.Fatal("expected at least one contact event after landing")
	}
	c := contacts[0]
	if c.BodyA != b {
		t.Error("contact BodyA should be the dynamic body")
	}
	if c.BodyB == nil || c.BodyB.ID != "ground" {
		t.Error("contact BodyB should be the ground collider")
	}
	if c.Normal.Y <= 0.5 {
		t.Errorf("landing normal should point up, got %+v", c.Normal)
	}
}

func TestJumpGate_OneImpulsePerContact(t *testing.T) {
	w := groundWorld()
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 0.4}, armOnGround)
	settle(w, 10)

	if !b.CanJump() {
		t.Fatal("grounded body should be allowed to jump")
	}
	if !b.Jump(7.5) {
		t.Fatal("first jump should apply")
	}
	if b.Jump(7.5) {
		t.Error("second jump without ground contact should be rejected")
	}

	// Let it land again; the gate must reopen.
	settle(w, 180)
	if !b.CanJump() {
		t.Error("jump gate should reopen after landing")
	}
	if !b.Jump(7.5) {
		t.Error("jump after landing should apply")
	}
}

func TestStep_BoundedSubSteps(t *testing.T) {
	w := NewWorld()
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 100}, nil)

	// A huge elapsed hint must not advance more than MaxSubSteps of time.
	w.Step(5 * time.Second)

	maxDrop := float64(MaxSubSteps) * FixedTimeStep * -w.Gravity * FixedTimeStep * float64(MaxSubSteps)
	if 100-b.Position.Y > maxDrop+1 {
		t.Errorf("body advanced too far under a load spike: y=%v", b.Position.Y)
	}
}

func TestSphereVsCylinder_PushesOut(t *testing.T) {
	w := NewWorld()
	w.AddStatic("pillar", Cylinder{RadiusTop: 1, RadiusBottom: 1, Height: 4}, Vec3{Y: 2}, Vec3{})
	b := w.AddSphere("p1", 0.4, 1, Vec3{X: 1.2, Y: 2}, nil)
	b.Velocity = Vec3{X: -5}

	settle(w, 30)

	dx := b.Position.X
	dz := b.Position.Z
	if math.Sqrt(dx*dx+dz*dz) < 1.3 {
		t.Errorf("body should be held outside the pillar radius, got (%v, %v)", dx, dz)
	}
}

func TestSphereVsBox_RotatedYaw(t *testing.T) {
	w := NewWorld()
	// Long thin wall rotated 90 degrees: blocks along X instead of Z.
	w.AddStatic("wall", Box{HalfX: 5, HalfY: 5, HalfZ: 0.2}, Vec3{X: 2}, Vec3{Y: math.Pi / 2})
	b := w.AddSphere("p1", 0.4, 1, Vec3{X: 1, Y: 0}, nil)
	w.Gravity = 0
	b.Velocity = Vec3{X: 5}

	settle(w, 60)

	if b.Position.X > 2 {
		t.Errorf("rotated wall should block movement along X, body at x=%v", b.Position.X)
	}
}

func TestRemoveBody(t *testing.T) {
	w := groundWorld()
	b1 := w.AddSphere("p1", 0.4, 1, Vec3{Y: 1}, nil)
	w.AddSphere("p2", 0.4, 1, Vec3{X: 2, Y: 1}, nil)

	if w.BodyCount() != 2 {
		t.Fatalf("expected 2 bodies, got %d", w.BodyCount())
	}

	w.RemoveBody(b1)
	if w.BodyCount() != 1 {
		t.Errorf("expected 1 body after removal, got %d", w.BodyCount())
	}

	// Double removal is a no-op.
	w.RemoveBody(b1)
	if w.BodyCount() != 1 {
		t.Errorf("double removal should not change count, got %d", w.BodyCount())
	}
}

func TestResetAt(t *testing.T) {
	w := groundWorld()
	b := w.AddSphere("p1", 0.4, 1, Vec3{Y: 0.4}, nil)
	settle(w, 10)
	b.Jump(7.5)

	b.ResetAt(Vec3{X: 3, Y: 0.4, Z: -2})

	if b.Position != (Vec3{X: 3, Y: 0.4, Z: -2}) {
		t.Errorf("unexpected position after reset: %+v", b.Position)
	}
	if b.Velocity != (Vec3{}) {
		t.Errorf("velocity should be zeroed, got %+v", b.Velocity)
	}
	if !b.CanJump() {
		t.Error("jump gate should reopen on reset")
	}
}
