// Package chat implements the real-time chat relay: a registry of live connections,
// grouped into named rooms, and a broadcast engine that fans messages out to every
// member of a room.
//
// The Hub is the single owner of that shared state. It runs in its own goroutine and
// every operation (connect, disconnect, broadcast, membership reads) reaches it through
// one FIFO request channel. Because only the Hub goroutine ever touches the maps there
// are no locks, and because the channel is FIFO every recipient sees the broadcasts of
// a room in the order they were issued.
//
// Each live connection is driven by a Session (see session.go) running in the
// goroutine of its HTTP handler.
package chat

import (
	"context"
	"errors"
	"log/slog"
)

// ErrHubClosed is returned by Hub operations once Run has returned.
var ErrHubClosed = errors.New("chat: hub closed")

type requestKind int

const (
	reqConnect requestKind = iota
	reqDisconnect
	reqBroadcast
	reqMembers
	reqStats
)

// request is one operation queued for the Hub goroutine. Only the fields that
// matter for kind are set. reply is nil for fire-and-forget broadcasts.
type request struct {
	kind    requestKind
	room    string
	id      ConnectionID
	handle  Deliverer
	payload []byte
	exclude *ConnectionID
	reply   chan response
}

type response struct {
	id      ConnectionID
	members []ConnectionID
	stats   Stats
}

// Stats is a point-in-time count of the Hub's state.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Hub serializes all registry mutations and broadcast dispatch.
// Create it with NewHub, start it with "go hub.Run(ctx)", and pass the same *Hub
// to every connection handler.
type Hub struct {
	conns *Connections
	rooms *Rooms

	// requests has a buffer of 256 so sessions don't block immediately if the
	// Hub goroutine is briefly busy.
	requests chan request

	// done is closed when Run returns, which unblocks any caller still waiting.
	done chan struct{}
}

// NewHub creates a Hub with empty registries. Nothing is processed until Run is called.
func NewHub() *Hub {
	return &Hub{
		conns:    NewConnections(),
		rooms:    NewRooms(),
		requests: make(chan request, 256),
		done:     make(chan struct{}),
	}
}

// Run is the Hub's event loop. It processes one request at a time until ctx is
// cancelled. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("chat hub stopped", "rooms", h.rooms.Len(), "connections", h.conns.Len())
			return
		case req := <-h.requests:
			h.handle(req)
		}
	}
}

func (h *Hub) handle(req request) {
	switch req.kind {
	case reqConnect:
		// Register and Join happen in the same step, so no broadcast can see
		// the connection in one registry but not the other.
		id := h.conns.Register(req.handle)
		h.rooms.Join(req.room, id)
		slog.Info("client connected", "room", req.room, "connectionId", id, "members", h.rooms.Count(req.room))
		req.reply <- response{id: id}

	case reqDisconnect:
		if _, ok := h.conns.Lookup(req.id); ok {
			h.rooms.Leave(req.room, req.id)
			h.conns.Unregister(req.id)
			slog.Info("client disconnected", "room", req.room, "connectionId", req.id, "members", h.rooms.Count(req.room))
		}
		req.reply <- response{}

	case reqBroadcast:
		Broadcast(h.rooms, h.conns, req.room, req.payload, req.exclude)

	case reqMembers:
		req.reply <- response{members: h.rooms.Members(req.room)}

	case reqStats:
		req.reply <- response{stats: Stats{Rooms: h.rooms.Len(), Connections: h.conns.Len()}}
	}
}

// Connect registers handle and joins it to room, returning the new connection's ID.
// It fails only if ctx is cancelled or the Hub has stopped.
func (h *Hub) Connect(ctx context.Context, room string, handle Deliverer) (ConnectionID, error) {
	resp, err := h.call(ctx, request{kind: reqConnect, room: room, handle: handle})
	if err != nil {
		return 0, err
	}
	return resp.id, nil
}

// Disconnect removes id from room and from the connection registry. It is
// idempotent, and a no-op once the Hub has stopped. When it returns, no later
// broadcast can reach id.
func (h *Hub) Disconnect(room string, id ConnectionID) {
	// Teardown must go through even when the caller's context is already
	// cancelled, so only the Hub's own lifetime bounds the wait.
	_, _ = h.call(context.Background(), request{kind: reqDisconnect, room: room, id: id})
}

// Broadcast queues payload for every member of room other than exclude (nil
// excludes nobody). It returns once the request is queued, not once it is delivered.
func (h *Hub) Broadcast(room string, payload []byte, exclude *ConnectionID) error {
	if h.stopped() {
		return ErrHubClosed
	}
	req := request{kind: reqBroadcast, room: room, payload: payload, exclude: exclude}
	select {
	case h.requests <- req:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Members returns a snapshot of the IDs currently joined to room, in ascending order.
func (h *Hub) Members(ctx context.Context, room string) ([]ConnectionID, error) {
	resp, err := h.call(ctx, request{kind: reqMembers, room: room})
	if err != nil {
		return nil, err
	}
	return resp.members, nil
}

// Stats reports how many rooms and connections the Hub currently tracks.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	resp, err := h.call(ctx, request{kind: reqStats})
	if err != nil {
		return Stats{}, err
	}
	return resp.stats, nil
}

// call queues req and waits for the Hub's reply.
func (h *Hub) call(ctx context.Context, req request) (response, error) {
	if h.stopped() {
		return response{}, ErrHubClosed
	}
	req.reply = make(chan response, 1)
	select {
	case h.requests <- req:
	case <-h.done:
		return response{}, ErrHubClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
	// Once queued the request is always answered, so the second wait ignores ctx.
	// Abandoning a queued Connect here would leak the registration.
	select {
	case resp := <-req.reply:
		return resp, nil
	case <-h.done:
		return response{}, ErrHubClosed
	}
}

// stopped reports whether Run has returned. The request queue may still have
// room after that, so senders check first rather than racing done.
func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
