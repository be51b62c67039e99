package rpc

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/models"
	"github.com/wfunc/roomworld/protocol"
	"github.com/wfunc/roomworld/room"
	"github.com/wfunc/roomworld/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services must be registered with
// the net/rpc package before calling Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// OperatorService exposes room administration over net/rpc.
type OperatorService struct {
	rooms    *room.Manager
	profiles *services.ProfileService
}

func NewOperatorService(rooms *room.Manager, profiles *services.ProfileService) *OperatorService {
	return &OperatorService{rooms: rooms, profiles: profiles}
}

// Register hooks the service into the default net/rpc server.
func (s *OperatorService) Register() error {
	return rpc.RegisterName("Operator", s)
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []protocol.RoomInfo
}

func (s *OperatorService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = s.rooms.List()
	return nil
}

type StartRoomArgs struct {
	RoomID string
}

type StartRoomReply struct {
	Started bool
}

// StartRoom flips the room to started, locking its mode and map.
func (s *OperatorService) StartRoom(args *StartRoomArgs, reply *StartRoomReply) error {
	r, ok := s.rooms.GetRoom(args.RoomID)
	if !ok {
		return fmt.Errorf("room %s not found", args.RoomID)
	}
	if err := r.Start(); err != nil {
		return err
	}
	reply.Started = true
	return nil
}

type GetProfileArgs struct {
	Name string
}

type GetProfileReply struct {
	Profile *models.PlayerProfile
}

func (s *OperatorService) GetProfile(args *GetProfileArgs, reply *GetProfileReply) error {
	profile, err := s.profiles.GetProfile(args.Name)
	if err != nil {
		return err
	}
	reply.Profile = profile
	return nil
}
