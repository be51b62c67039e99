// Package room implements the authoritative game room: one physics world,
// one player collection, one simulation loop. All room state is mutated on a
// single goroutine; message handlers and the tick interleave there, so
// sessions and bodies never race.
package room

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/wfunc/roomworld/colorutil"
	"github.com/wfunc/roomworld/gamemap"
	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/physics"
	"github.com/wfunc/roomworld/protocol"
	"github.com/wfunc/roomworld/session"
)

// RoomStatus is the room lifecycle state.
type RoomStatus int

const (
	StatusCreated RoomStatus = iota
	StatusRunning
	StatusDisposed
)

const (
	defaultTickInterval = time.Second / 60

	playerRadius = 0.4
	playerMass   = 1.0

	// Movement intents are scaled into world units and clamped so a
	// hostile client cannot inject unbounded speed.
	speedMultiplier = 15.0
	maxSpeed        = 25.0
	minSpeed        = -maxSpeed

	jumpVelocity = 7.5

	// Below this height a body has fallen off the map and respawns.
	fatalHeight = -10.0

	commandQueueSize = 256
)

var (
	ErrRoomFull     = errors.New("room is full")
	ErrRoomDisposed = errors.New("room is disposed")
)

// Options carries the immutable configuration a room is built with. The
// catalogs are injected here; rooms never consult global state.
type Options struct {
	ID         string
	Name       string
	MapDir     string
	Maps       []string
	Modes      []string
	Characters []string
	MaxClients int

	TickInterval time.Duration

	// OnEmpty is invoked (on the room goroutine) when the last player
	// leaves. The host uses it to schedule disposal.
	OnEmpty func(roomID string)

	// ObserveTick, when set, receives the wall-clock duration of each
	// simulation tick.
	ObserveTick func(time.Duration)
}

// Metadata is the admin-mutable room description.
type Metadata struct {
	Name    string
	Mode    string
	Map     string
	Started bool
}

// Room is one isolated game session.
type Room struct {
	ID string

	opts        Options
	broadcaster Broadcaster

	meta      Metadata
	metaMutex sync.RWMutex

	world   *physics.World
	gameMap *gamemap.Map

	// players and order are mutated only on the room goroutine; the mutex
	// exists for read-only listing access from other goroutines.
	players     map[string]*session.Session
	order       []string // session IDs in join order
	bodies      map[string]*physics.Body
	playerMutex sync.RWMutex

	lastState map[string]protocol.PlayerState

	commands  chan func()
	ticker    *time.Ticker
	closeChan chan bool
	closeOnce sync.Once

	status      RoomStatus
	statusMutex sync.RWMutex

	lastTick  time.Time
	CreatedAt time.Time
}

// NewRoom creates a room and starts its simulation loop. It fails if the
// default map cannot be loaded: a room without static geometry must not
// come into existence.
func NewRoom(opts Options, broadcaster Broadcaster) (*Room, error) {
	if len(opts.Maps) == 0 || len(opts.Modes) == 0 {
		return nil, errors.New("room options need at least one map and one mode")
	}
	if opts.Name == "" {
		opts.Name = "New Game"
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = 16
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}

	m, err := gamemap.Load(opts.MapDir, opts.Maps[0])
	if err != nil {
		return nil, fmt.Errorf("create room %s: %w", opts.ID, err)
	}

	r := &Room{
		ID:          opts.ID,
		opts:        opts,
		broadcaster: broadcaster,
		meta: Metadata{
			Name: opts.Name,
			Mode: opts.Modes[0],
			Map:  opts.Maps[0],
		},
		gameMap:   m,
		world:     buildWorld(m),
		players:   make(map[string]*session.Session),
		bodies:    make(map[string]*physics.Body),
		lastState: make(map[string]protocol.PlayerState),
		commands:  make(chan func(), commandQueueSize),
		closeChan: make(chan bool),
		status:    StatusCreated,
		CreatedAt: time.Now(),
		lastTick:  time.Now(),
	}

	r.ticker = time.NewTicker(opts.TickInterval)
	r.setStatus(StatusRunning)
	go r.loop()

	return r, nil
}

func buildWorld(m *gamemap.Map) *physics.World {
	w := physics.NewWorld()
	for _, c := range m.Colliders {
		w.AddStatic(c.Name, c.Shape, c.Position, c.Rotation)
	}
	return w
}

// loop serializes everything: queued commands run as they arrive, and each
// ticker fire first drains the queue so no intent is applied mid-tick.
func (r *Room) loop() {
	for {
		select {
		case fn := <-r.commands:
			fn()
		case now := <-r.ticker.C:
			r.drainCommands()
			r.tick(now)
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

func (r *Room) drainCommands() {
	for {
		select {
		case fn := <-r.commands:
			fn()
		default:
			return
		}
	}
}

// do runs fn on the room goroutine and waits for it. It fails once the room
// is disposed.
func (r *Room) do(fn func()) error {
	done := make(chan struct{})
	select {
	case r.commands <- func() {
		fn()
		close(done)
	}:
	case <-r.closeChan:
		return ErrRoomDisposed
	}
	select {
	case <-done:
		return nil
	case <-r.closeChan:
		return ErrRoomDisposed
	}
}

// enqueue schedules fn without waiting. Commands overflowing the queue are
// dropped; a client flooding the room loses messages, not the room.
func (r *Room) enqueue(fn func()) {
	select {
	case r.commands <- fn:
	case <-r.closeChan:
	default:
		logger.Log.Warnf("room %s: command queue full, dropping message", r.ID)
	}
}

// Join adds a session to the room: randomized appearance for blank fields,
// spawn placement, physics body, admin grant when the room is empty.
func (r *Room) Join(sess *session.Session) error {
	var joinErr error
	err := r.do(func() {
		joinErr = r.handleJoin(sess)
	})
	if err != nil {
		return err
	}
	return joinErr
}

func (r *Room) handleJoin(sess *session.Session) error {
	if len(r.players) >= r.opts.MaxClients {
		return ErrRoomFull
	}
	if _, exists := r.players[sess.ID]; exists {
		return nil
	}

	if sess.Name == "" {
		sess.Name = "New Player"
	}
	// Randomize only what the caller (a restored profile, typically) left
	// blank.
	if sess.Color == "" {
		sess.Color = colorutil.Random()
	}
	if sess.Character == "" {
		sess.Character = r.opts.Characters[rand.Intn(len(r.opts.Characters))]
	}
	// Joining an empty room always grants admin, so a room that emptied and
	// was rejoined during its disposal grace period never runs adminless.
	sess.Admin = len(r.players) == 0
	sess.Intent = session.Intent{}
	sess.RoomID = r.ID

	spawn := r.spawnPoint()
	body := r.world.AddSphere(sess.ID, playerRadius, playerMass, spawn, func(c physics.Contact) {
		if c.Normal.Y > 0.5 {
			c.BodyA.AllowJump()
		}
	})
	sess.X, sess.Y, sess.Z = spawn.X, spawn.Y, spawn.Z
	sess.Rotation = 0

	r.playerMutex.Lock()
	r.players[sess.ID] = sess
	r.order = append(r.order, sess.ID)
	r.playerMutex.Unlock()
	r.bodies[sess.ID] = body

	logger.Log.Infof("room %s: session %s joined (admin=%v)", r.ID, sess.ID, sess.Admin)

	r.sendWelcome(sess)
	r.broadcastJSON(protocol.MsgTypePlayerJoin, sess.State())
	return nil
}

// Leave removes a session and its body. Idempotent; safe to call for
// sessions that never joined. The consented flag only affects logging —
// a dropped connection and a deliberate leave tear down identically.
func (r *Room) Leave(sessionID string, consented bool) {
	// Best effort: if the room is already disposed there is nothing to do.
	_ = r.do(func() {
		r.handleLeave(sessionID, consented)
	})
}

func (r *Room) handleLeave(sessionID string, consented bool) {
	sess, exists := r.players[sessionID]
	if !exists {
		return
	}

	if body := r.bodies[sessionID]; body != nil {
		r.world.RemoveBody(body)
		delete(r.bodies, sessionID)
	}

	r.playerMutex.Lock()
	delete(r.players, sessionID)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == sessionID })
	remaining := len(r.players)
	r.playerMutex.Unlock()

	sess.RoomID = ""

	logger.Log.Infof("room %s: session %s left (consented=%v)", r.ID, sessionID, consented)

	if sess.Admin && remaining > 0 {
		// Earliest remaining joiner inherits the admin flag.
		next := r.players[r.order[0]]
		next.Admin = true
		logger.Log.Infof("room %s: admin handed to session %s", r.ID, next.ID)
	}

	r.broadcastJSON(protocol.MsgTypePlayerLeave, protocol.PlayerState{ID: sessionID})

	if remaining == 0 && r.opts.OnEmpty != nil {
		r.opts.OnEmpty(r.ID)
	}
}

// HandleCommand queues a validated client command for the sender's session.
// Commands apply in receipt order, always before the next tick.
func (r *Room) HandleCommand(sessionID string, cmd protocol.Command) {
	r.enqueue(func() {
		sess, exists := r.players[sessionID]
		if !exists {
			return
		}
		r.applyCommand(sess, cmd)
	})
}

// Start marks the match as started, freezing mode and map. Exposed for the
// operator RPC surface; no client message flips it in the current game.
func (r *Room) Start() error {
	return r.do(func() {
		r.metaMutex.Lock()
		r.meta.Started = true
		r.metaMutex.Unlock()
	})
}

// Dispose stops the loop and releases the physics world. Further Join,
// Leave and HandleCommand calls become no-ops.
func (r *Room) Dispose() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
		r.setStatus(StatusDisposed)
		logger.Log.Infof("room %s: disposed", r.ID)
	})
}

// Info returns the read-only listing view of the room.
func (r *Room) Info() protocol.RoomInfo {
	r.metaMutex.RLock()
	meta := r.meta
	r.metaMutex.RUnlock()

	r.playerMutex.RLock()
	clients := len(r.players)
	r.playerMutex.RUnlock()

	return protocol.RoomInfo{
		ID:         r.ID,
		Name:       meta.Name,
		Mode:       meta.Mode,
		Map:        meta.Map,
		Started:    meta.Started,
		Clients:    clients,
		MaxClients: r.opts.MaxClients,
	}
}

// Status returns the lifecycle state.
func (r *Room) Status() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.status
}

func (r *Room) setStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.status = status
}

// Empty reports whether no players are connected.
func (r *Room) Empty() bool {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.players) == 0
}

func (r *Room) spawnPoint() physics.Vec3 {
	if len(r.gameMap.SpawnAreas) > 0 {
		area := r.gameMap.SpawnAreas[rand.Intn(len(r.gameMap.SpawnAreas))]
		p := area.RandomPoint()
		return physics.Vec3{X: p.X, Y: p.Y + playerRadius, Z: p.Z}
	}
	// No spawn areas declared: drop near the origin.
	return physics.Vec3{
		X: (rand.Float64() - 0.5) * 2,
		Y: playerRadius,
		Z: (rand.Float64() - 0.5) * 2,
	}
}

func (r *Room) sendWelcome(sess *session.Session) {
	full := protocol.StatePatch{
		Full:    true,
		Players: make(map[string]protocol.PlayerState, len(r.players)),
	}
	for id, p := range r.players {
		full.Players[id] = p.State()
	}
	err := sess.SendJSON(protocol.MsgTypeWelcome, protocol.Welcome{
		SessionID: sess.ID,
		Room:      r.Info(),
		State:     full,
		You:       sess.State(),
	})
	if err != nil {
		logger.Log.Warnf("room %s: welcome to %s failed: %v", r.ID, sess.ID, err)
	}
}
