package room

import (
	"math"
	"time"

	"github.com/wfunc/roomworld/physics"
	"github.com/wfunc/roomworld/protocol"
	"github.com/wfunc/roomworld/session"
)

// tick is one simulation step: consume intents, advance physics, handle
// fatal falls, copy transforms back and broadcast the settled diff. It runs
// on the room goroutine only.
func (r *Room) tick(now time.Time) {
	if r.opts.ObserveTick != nil {
		start := time.Now()
		defer func() { r.opts.ObserveTick(time.Since(start)) }()
	}

	elapsed := now.Sub(r.lastTick)
	r.lastTick = now

	for _, id := range r.order {
		sess := r.players[id]
		body := r.bodies[id]
		if body == nil {
			continue
		}
		r.applyIntent(sess, body)
	}

	r.world.Step(elapsed)

	for _, id := range r.order {
		sess := r.players[id]
		body := r.bodies[id]
		if body == nil {
			continue
		}
		if body.Position.Y < fatalHeight {
			// Fell off the map. Normal gameplay, not a fault.
			r.respawn(sess, body)
		}
		// Quantize so resting bodies don't jitter in the last bits and
		// re-broadcast every tick.
		sess.X = quantize(body.Position.X)
		sess.Y = quantize(body.Position.Y)
		sess.Z = quantize(body.Position.Z)
		sess.Rotation = quantize(sess.Intent.Orientation)
	}

	r.broadcastPatch()
}

func quantize(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// applyIntent converts the stored input into body velocity. The horizontal
// components are owned by the intent; gravity and jumps own the vertical.
func (r *Room) applyIntent(sess *session.Session, body *physics.Body) {
	intent := sess.Intent
	if math.IsNaN(intent.Orientation) {
		return
	}

	speed := intent.Speed * speedMultiplier
	if math.IsNaN(speed) {
		speed = 0
	}
	if speed > maxSpeed {
		speed = maxSpeed
	}
	if speed < minSpeed {
		speed = minSpeed
	}

	body.Velocity.X = math.Sin(intent.Orientation) * speed
	body.Velocity.Z = math.Cos(intent.Orientation) * speed

	if intent.Jump {
		body.Jump(jumpVelocity)
	}
}

// respawn resets a fallen body onto a spawn point and neutralizes the
// session's stored input.
func (r *Room) respawn(sess *session.Session, body *physics.Body) {
	body.ResetAt(r.spawnPoint())
	sess.Intent = session.Intent{}
	sess.Rotation = 0
}

// broadcastPatch diffs the player collection against the previously
// broadcast state and sends only what changed. Broadcasts always reflect
// fully settled post-tick state.
func (r *Room) broadcastPatch() {
	patch := protocol.StatePatch{}

	for _, id := range r.order {
		state := r.players[id].State()
		if prev, ok := r.lastState[id]; ok && prev == state {
			continue
		}
		if patch.Players == nil {
			patch.Players = make(map[string]protocol.PlayerState)
		}
		patch.Players[id] = state
		r.lastState[id] = state
	}

	for id := range r.lastState {
		if _, ok := r.players[id]; !ok {
			patch.Removed = append(patch.Removed, id)
			delete(r.lastState, id)
		}
	}

	if patch.Players == nil && len(patch.Removed) == 0 {
		return
	}
	r.broadcastJSON(protocol.MsgTypeStatePatch, patch)
}
