package discovery

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestBroadcastReachesListener(t *testing.T) {
	l, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	var players atomic.Int32
	players.Store(4)
	b := NewBroadcaster(l.Port(), func() RoomInfo {
		n := int(players.Load())
		return RoomInfo{Host: "Alice", GamePort: 9999, Proto: "kcp", PlayerCount: n, MaxPlayers: 4}
	})
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer b.Stop()

	// A full room is seen but not joinable.
	deadline := time.Now().Add(3 * time.Second)
	for len(l.Rooms()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("room never seen")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if l.Rooms()[0].Joinable() {
		t.Error("full room should not be joinable")
	}

	players.Store(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	room, err := l.WaitJoinable(ctx)
	if err != nil {
		t.Fatalf("WaitJoinable: %v", err)
	}
	if room.Host != "Alice" || room.Proto != "kcp" || !strings.HasSuffix(room.Addr, ":9999") {
		t.Errorf("unexpected room %+v", room)
	}
}

func TestWaitJoinableTimeout(t *testing.T) {
	l, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.WaitJoinable(ctx); err == nil {
		t.Error("expected a timeout with no rooms")
	}
}

func TestJoinable(t *testing.T) {
	cases := []struct {
		room RoomInfo
		want bool
	}{
		{RoomInfo{PlayerCount: 1, MaxPlayers: 4}, true},
		{RoomInfo{PlayerCount: 4, MaxPlayers: 4}, false},
		{RoomInfo{PlayerCount: 1, MaxPlayers: 4, Running: true}, false},
	}
	for _, c := range cases {
		if got := c.room.Joinable(); got != c.want {
			t.Errorf("%+v: Joinable() = %v, want %v", c.room, got, c.want)
		}
	}
}
