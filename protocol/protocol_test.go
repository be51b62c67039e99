package protocol

import (
	"testing"
)

func TestDecodeCommand_Move(t *testing.T) {
	cmd, err := DecodeCommand(MsgTypeMove, []byte(`{"speed": 1.5, "orientation": 0.25, "jump": true}`))
	if err != nil {
		t.Fatal(err)
	}
	move, ok := cmd.(Move)
	if !ok {
		t.Fatalf("expected Move, got %T", cmd)
	}
	if move.Speed != 1.5 || move.Orientation != 0.25 || !move.Jump {
		t.Errorf("unexpected decode result: %+v", move)
	}
}

func TestDecodeCommand_AllVariants(t *testing.T) {
	tests := []struct {
		msgID   uint16
		payload string
		want    Command
	}{
		{MsgTypeChangePlayer, `{"name": "ada", "color": "#FF0000"}`, ChangePlayer{Name: "ada", Color: "#FF0000"}},
		{MsgTypeChangeColor, `{"color": "#00FF00"}`, ChangeColor{Color: "#00FF00"}},
		{MsgTypeChangeHue, `{"delta": -45}`, ChangeHue{Delta: -45}},
		{MsgTypeChangeCharacter, `{"character": "duck"}`, ChangeCharacter{Character: "duck"}},
		{MsgTypeSetMode, `{"mode": "tag"}`, SetMode{Mode: "tag"}},
		{MsgTypeSetMap, `{"map": "arena"}`, SetMap{Map: "arena"}},
	}
	for _, tt := range tests {
		cmd, err := DecodeCommand(tt.msgID, []byte(tt.payload))
		if err != nil {
			t.Errorf("message %d: %v", tt.msgID, err)
			continue
		}
		if cmd != tt.want {
			t.Errorf("message %d: got %#v, want %#v", tt.msgID, cmd, tt.want)
		}
	}
}

func TestDecodeCommand_UnknownID(t *testing.T) {
	if _, err := DecodeCommand(9999, []byte(`{}`)); err == nil {
		t.Fatal("unknown message IDs must be rejected")
	}
}

func TestDecodeCommand_MalformedPayload(t *testing.T) {
	if _, err := DecodeCommand(MsgTypeMove, []byte(`{"speed": "fast"}`)); err == nil {
		t.Fatal("malformed payloads must be rejected at the boundary")
	}
}
