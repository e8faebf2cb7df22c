package network

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/amalg/proutman/internal/game"
)

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, MsgAction, ActionMsg{ActionType: game.ActionPlaceCaca}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Encode(&buf, MsgJoin, JoinMsg{Name: "Alice"}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != MsgAction {
		t.Fatalf("expected action, got %s", env.Type)
	}
	var action ActionMsg
	if err := DecodePayload(env, &action); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if action.ActionType != game.ActionPlaceCaca {
		t.Errorf("expected caca action, got %v", action.ActionType)
	}

	// Frames stay separate on one stream
	env, err = Decode(&buf)
	if err != nil {
		t.Fatalf("Decode second frame: %v", err)
	}
	var join JoinMsg
	if err := DecodePayload(env, &join); err != nil || join.Name != "Alice" {
		t.Errorf("expected join from Alice, got %+v (%v)", join, err)
	}
}

func TestStateMsgCarriesPowerUps(t *testing.T) {
	config := game.DefaultConfig()
	config.Seed = 9
	state := game.NewGameState(config)
	state.AddPlayer("p1", "Alice")

	var buf bytes.Buffer
	msg := StateMsg{
		State:  state.Clone(),
		Events: []game.Event{{Type: game.EventBombPlaced, PlayerID: "p1"}},
	}
	if err := Encode(&buf, MsgState, msg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var got StateMsg
	if err := DecodePayload(env, &got); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if len(got.State.PowerUps) != len(state.PowerUps) {
		t.Errorf("expected %d power-ups, got %d", len(state.PowerUps), len(got.State.PowerUps))
	}
	if got.State.Players["p1"].Name != "Alice" {
		t.Errorf("player lost in transit: %+v", got.State.Players)
	}
	if len(got.Events) != 1 || got.Events[0].Type != game.EventBombPlaced {
		t.Errorf("events lost in transit: %+v", got.Events)
	}
}

func TestDecodeTooLarge(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(MaxMessageSize+1))

	if _, err := Decode(&buf); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(10))
	buf.WriteString("{}")

	if _, err := Decode(&buf); err == nil {
		t.Error("expected an error for a truncated frame")
	}
}
