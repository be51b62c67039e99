package room

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/wfunc/roomworld/colorutil"
	"github.com/wfunc/roomworld/gamemap"
	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/physics"
	"github.com/wfunc/roomworld/protocol"
	"github.com/wfunc/roomworld/session"
)

// applyCommand runs on the room goroutine. A session may only mutate its own
// record; set_mode and set_map additionally require the admin flag. Rejected
// commands are dropped without feedback (lobby parity — clients infer
// rejection from the missing broadcast).
func (r *Room) applyCommand(sess *session.Session, cmd protocol.Command) {
	switch c := cmd.(type) {
	case protocol.Move:
		r.applyMove(sess, c)
	case protocol.ChangePlayer:
		sess.Name = c.Name
		sess.Color = c.Color
	case protocol.ChangeColor:
		sess.Color = c.Color
	case protocol.ChangeHue:
		if !math.IsNaN(c.Delta) && !math.IsInf(c.Delta, 0) {
			sess.Color = colorutil.ShiftHue(sess.Color, c.Delta)
		}
	case protocol.ChangeCharacter:
		// No catalog check: any string is accepted, matching the lobby's
		// permissive behavior. Clients fall back to a default model for
		// names they don't know.
		sess.Character = c.Character
	case protocol.SetMode:
		r.applySetMode(sess, c.Mode)
	case protocol.SetMap:
		r.applySetMap(sess, c.Map)
	default:
		logger.Log.Warnf("room %s: unhandled command %T from %s", r.ID, cmd, sess.ID)
	}
}

// applyMove overwrites the session's intent wholesale. Non-finite numbers
// never reach the stored intent; the message is dropped instead so the
// previous intent keeps applying.
func (r *Room) applyMove(sess *session.Session, m protocol.Move) {
	if math.IsNaN(m.Speed) || math.IsInf(m.Speed, 0) ||
		math.IsNaN(m.Orientation) || math.IsInf(m.Orientation, 0) {
		return
	}
	sess.Intent = session.Intent{
		Speed:       m.Speed,
		Orientation: m.Orientation,
		Jump:        m.Jump,
	}
}

func (r *Room) applySetMode(sess *session.Session, mode string) {
	if !sess.Admin || !slices.Contains(r.opts.Modes, mode) || r.started() {
		return
	}

	r.metaMutex.Lock()
	r.meta.Mode = mode
	r.metaMutex.Unlock()

	logger.Log.Infof("room %s: mode set to %s by %s", r.ID, mode, sess.ID)
	r.broadcastJSON(protocol.MsgTypeUpdateMode, protocol.UpdateValue{Value: mode})
}

// applySetMap swaps the room's map. Besides the metadata update it rebuilds
// the physics world from the new geometry and respawns every player in it;
// a map that fails to load leaves the room untouched.
func (r *Room) applySetMap(sess *session.Session, mapName string) {
	if !sess.Admin || !slices.Contains(r.opts.Maps, mapName) || r.started() {
		return
	}

	m, err := gamemap.Load(r.opts.MapDir, mapName)
	if err != nil {
		logger.Log.Errorf("room %s: set_map %s failed: %v", r.ID, mapName, err)
		return
	}

	r.gameMap = m
	r.world = buildWorld(m)
	for _, id := range r.order {
		p := r.players[id]
		spawn := r.spawnPoint()
		body := r.world.AddSphere(p.ID, playerRadius, playerMass, spawn, func(c physics.Contact) {
			if c.Normal.Y > 0.5 {
				c.BodyA.AllowJump()
			}
		})
		r.bodies[id] = body
		p.X, p.Y, p.Z = spawn.X, spawn.Y, spawn.Z
		p.Intent = session.Intent{}
	}

	r.metaMutex.Lock()
	r.meta.Map = mapName
	r.metaMutex.Unlock()

	logger.Log.Infof("room %s: map set to %s by %s", r.ID, mapName, sess.ID)
	r.broadcastJSON(protocol.MsgTypeUpdateMap, protocol.UpdateValue{Value: mapName})
}

func (r *Room) started() bool {
	r.metaMutex.RLock()
	defer r.metaMutex.RUnlock()
	return r.meta.Started
}

// GetSessions returns the room's sessions in join order (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.players))
	for _, id := range r.order {
		sessions = append(sessions, r.players[id])
	}
	return sessions
}

func (r *Room) broadcastJSON(msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("room %s: marshal broadcast %d: %v", r.ID, msgID, err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, msgID, data); err != nil {
		logger.Log.Warnf("room %s: broadcast %d failed: %v", r.ID, msgID, err)
	}
}
