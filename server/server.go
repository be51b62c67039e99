// Package server hosts the websocket endpoint, routes packets to rooms,
// and owns the room lifecycle around them (creation, disposal timers,
// game records).
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/roomworld/broadcast"
	"github.com/wfunc/roomworld/config"
	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/models"
	"github.com/wfunc/roomworld/monitor"
	"github.com/wfunc/roomworld/network"
	"github.com/wfunc/roomworld/persistence"
	"github.com/wfunc/roomworld/protocol"
	"github.com/wfunc/roomworld/room"
	roomworld_rpc "github.com/wfunc/roomworld/rpc"
	"github.com/wfunc/roomworld/services"
	"github.com/wfunc/roomworld/session"
	"github.com/wfunc/roomworld/timer"
)

const heartbeatInterval = 30 * time.Second

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	profileService *services.ProfileService
	broadcaster    broadcast.Broadcaster
	rpcServer      *roomworld_rpc.Server
	monitor        *monitor.Monitor
	timers         *timer.Manager

	// participants remembers every display name that ever joined a room,
	// for the game record written at disposal.
	participants map[string]map[string]struct{}
	partMutex    sync.Mutex

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewGameServer(cfg *config.Config, db persistence.Database, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		profileService: services.NewProfileService(db),
		monitor:        mon,
		timers:         timer.NewManager(),
		participants:   make(map[string]map[string]struct{}),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	rpcServer, err := roomworld_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return nil, err
	}
	s.rpcServer = rpcServer

	operator := roomworld_rpc.NewOperatorService(s.roomManager, s.profileService)
	if err := operator.Register(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rooms", s.handleRoomList)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, mux)
}

func (s *GameServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		s.rpcServer.Stop()
		s.timers.Stop()
	})
}

// handleRoomList serves the lobby view over plain HTTP.
func (s *GameServer) handleRoomList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.roomManager.List())
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)
		s.leaveCurrentRoom(sess, false)
		s.sessionManager.Remove(sess.ID)
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	// handlePacket runs on the connection read loop, the only goroutine
	// allowed to touch LastActive.
	sess.Touch()

	switch packet.MsgID {
	case protocol.MsgTypeHeartbeat:
		if wsConn, ok := sess.Conn.(*network.WSConnection); ok {
			wsConn.SetHeartbeat(heartbeatInterval)
		}
	case protocol.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case protocol.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case protocol.MsgTypeLeaveRoom:
		s.leaveCurrentRoom(sess, true)
	case protocol.MsgTypeRoomList:
		sess.SendJSON(protocol.MsgTypeRoomList, s.roomManager.List())
	default:
		s.handleRoomCommand(sess, packet)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	if sess.RoomID != "" {
		return
	}

	var req protocol.CreateRoom
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			return
		}
	}

	roomID := uuid.New().String()
	r, err := s.roomManager.CreateRoom(s.roomOptions(roomID, req.Name), s.broadcaster)
	if err != nil {
		logger.Log.Errorf("Session %s failed to create room: %v", sess.ID, err)
		return
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())

	logger.Log.Infof("Session %s created room %s", sess.ID, roomID)
	sess.SendJSON(protocol.MsgTypeCreateRoom, map[string]string{"room_id": roomID})

	s.joinRoom(sess, r)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	if sess.RoomID != "" {
		return
	}

	var req protocol.JoinRoom
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		return
	}
	if req.Name != "" {
		sess.Name = req.Name
	}
	s.joinRoom(sess, r)
}

func (s *GameServer) joinRoom(sess *session.Session, r *room.Room) {
	// Restore before the session becomes visible to the room goroutine; the
	// join only randomizes fields the profile left blank.
	s.profileService.RestoreAppearance(sess)
	if err := r.Join(sess); err != nil {
		logger.Log.Warnf("Session %s could not join room %s: %v", sess.ID, r.ID, err)
		return
	}
	s.timers.Cancel(r.ID)
	s.recordParticipant(r.ID, sess.Name)

	logger.Log.Infof("Session %s joined room %s", sess.ID, r.ID)
}

func (s *GameServer) leaveCurrentRoom(sess *session.Session, consented bool) {
	roomID := sess.RoomID
	if roomID == "" {
		return
	}

	// The room's OnEmpty hook schedules disposal if this was the last player.
	if r, exists := s.roomManager.GetRoom(roomID); exists {
		r.Leave(sess.ID, consented)
	} else {
		sess.RoomID = ""
	}

	// Leave has completed on the room goroutine; the appearance fields are
	// stable again and safe to read here.
	s.profileService.SaveAppearance(sess)
}

func (s *GameServer) handleRoomCommand(sess *session.Session, packet *network.Packet) {
	if sess.RoomID == "" {
		logger.Log.Warnf("Session %s sent message %d but is not in a room", sess.ID, packet.MsgID)
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", sess.RoomID, sess.ID)
		return
	}

	cmd, err := protocol.DecodeCommand(packet.MsgID, packet.Data)
	if err != nil {
		logger.Log.Warnf("Session %s: %v", sess.ID, err)
		return
	}

	s.monitor.IncCommandsReceived()
	r.HandleCommand(sess.ID, cmd)
}

// scheduleDisposal arms the grace timer for an empty room. A rejoin
// before it fires cancels it.
func (s *GameServer) scheduleDisposal(roomID string) {
	delay := time.Duration(s.cfg.Game.DisposeDelaySec) * time.Second
	s.timers.Schedule(roomID, delay, func() {
		r, exists := s.roomManager.GetRoom(roomID)
		if !exists || !r.Empty() {
			return
		}
		s.writeGameRecord(r)
		s.roomManager.RemoveRoom(roomID)
		s.monitor.SetActiveRooms(s.roomManager.Count())
		logger.Log.Infof("Disposed empty room %s", roomID)
	})
}

func (s *GameServer) roomOptions(roomID, name string) room.Options {
	return room.Options{
		ID:          roomID,
		Name:        name,
		MapDir:      s.cfg.Game.MapDir,
		Maps:        s.cfg.Game.Maps,
		Modes:       s.cfg.Game.Modes,
		Characters:  s.cfg.Game.Characters,
		MaxClients:  s.cfg.Game.MaxClients,
		ObserveTick: s.monitor.ObserveTickDuration,
		OnEmpty: func(id string) {
			s.scheduleDisposal(id)
		},
	}
}

func (s *GameServer) recordParticipant(roomID, name string) {
	s.partMutex.Lock()
	defer s.partMutex.Unlock()

	names, ok := s.participants[roomID]
	if !ok {
		names = make(map[string]struct{})
		s.participants[roomID] = names
	}
	names[name] = struct{}{}
}

func (s *GameServer) writeGameRecord(r *room.Room) {
	s.partMutex.Lock()
	names := s.participants[r.ID]
	delete(s.participants, r.ID)
	s.partMutex.Unlock()

	players := make([]string, 0, len(names))
	for name := range names {
		players = append(players, name)
	}

	info := r.Info()
	s.profileService.RecordGame(&models.GameRecord{
		RoomID:   r.ID,
		RoomName: info.Name,
		Mode:     info.Mode,
		Map:      info.Map,
		Players:  players,
		Duration: int(time.Since(r.CreatedAt).Seconds()),
		EndedAt:  time.Now(),
	})
}
