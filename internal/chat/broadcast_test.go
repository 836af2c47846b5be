package chat

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder is a Deliverer that keeps everything it is given.
type recorder struct {
	mu       sync.Mutex
	received [][]byte
	err      error
}

func (r *recorder) Deliver(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.received = append(r.received, payload)
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.received))
	for _, p := range r.received {
		out = append(out, string(p))
	}
	return out
}

func TestBroadcast(t *testing.T) {
	tests := []struct {
		name          string
		exclude       bool
		failing       bool
		wantSender    int
		wantOther     int
		wantDelivered int
	}{
		{name: "exclude sender", exclude: true, wantSender: 0, wantOther: 1, wantDelivered: 1},
		{name: "include sender", exclude: false, wantSender: 1, wantOther: 1, wantDelivered: 2},
		{name: "failing peer is skipped", exclude: false, failing: true, wantSender: 1, wantOther: 0, wantDelivered: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, conns := NewRooms(), NewConnections()
			sender, other := &recorder{}, &recorder{}
			if tt.failing {
				other.err = errors.New("boom")
			}
			senderID := conns.Register(sender)
			otherID := conns.Register(other)
			rooms.Join("lobby", senderID)
			rooms.Join("lobby", otherID)

			var exclude *ConnectionID
			if tt.exclude {
				exclude = &senderID
			}
			delivered := Broadcast(rooms, conns, "lobby", []byte("hello"), exclude)

			assert.Equal(t, tt.wantDelivered, delivered)
			assert.Len(t, sender.messages(), tt.wantSender)
			assert.Len(t, other.messages(), tt.wantOther)
		})
	}
}

func TestBroadcast_SkipsMissingConnection(t *testing.T) {
	rooms, conns := NewRooms(), NewConnections()
	live := &recorder{}
	liveID := conns.Register(live)
	goneID := conns.Register(&recorder{})
	rooms.Join("lobby", goneID)
	rooms.Join("lobby", liveID)
	conns.Unregister(goneID)

	delivered := Broadcast(rooms, conns, "lobby", []byte("hi"), nil)

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"hi"}, live.messages())
}

func TestBroadcast_StaysInRoom(t *testing.T) {
	rooms, conns := NewRooms(), NewConnections()
	inA, inB := &recorder{}, &recorder{}
	rooms.Join("a", conns.Register(inA))
	rooms.Join("b", conns.Register(inB))

	Broadcast(rooms, conns, "a", []byte("only a"), nil)

	assert.Equal(t, []string{"only a"}, inA.messages())
	assert.Empty(t, inB.messages())
}
