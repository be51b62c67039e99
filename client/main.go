// A headless test client: connects, creates a room, and walks in a slow
// circle so the server has something to simulate.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"math"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinRoom   = 101
	MsgTypeCreateRoom = 103
	MsgTypeMove       = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:3001", "server address")
	roomID := flag.String("room", "", "room to join; empty creates one")
	name := flag.String("name", "bot", "display name")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	if *roomID == "" {
		log.Println("Sending Create Room request...")
		if err := send(c, MsgTypeCreateRoom, map[string]string{"name": *name + "'s room"}); err != nil {
			log.Println("Write error:", err)
			return
		}
	} else {
		log.Printf("Joining room %s...", *roomID)
		if err := send(c, MsgTypeJoinRoom, map[string]string{"room_id": *roomID, "name": *name}); err != nil {
			log.Println("Write error:", err)
			return
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	orientation := 0.0
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case <-ticker.C:
			orientation += 0.05
			if orientation > 2*math.Pi {
				orientation -= 2 * math.Pi
			}
			move := map[string]interface{}{
				"speed":       0.5,
				"orientation": orientation,
				"jump":        false,
			}
			if err := send(c, MsgTypeMove, move); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
