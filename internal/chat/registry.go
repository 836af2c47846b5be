package chat

import "slices"

// ConnectionID identifies one live connection. IDs come from a process-wide counter
// starting at 0 and are never handed out twice.
type ConnectionID uint64

// Deliverer is the outbound capability for one connection: it can push a payload to
// that connection and nothing else. Implementations must not block.
type Deliverer interface {
	Deliver(payload []byte) error
}

// Connections maps connection IDs to their delivery handles.
//
// Connections is not safe for concurrent use. The Hub owns one and only touches it
// from its Run goroutine, which is what serializes every registry operation.
type Connections struct {
	next    ConnectionID
	handles map[ConnectionID]Deliverer
}

// NewConnections returns an empty connection registry.
func NewConnections() *Connections {
	return &Connections{handles: make(map[ConnectionID]Deliverer)}
}

// Register stores the handle under a fresh ID and returns that ID.
func (c *Connections) Register(handle Deliverer) ConnectionID {
	id := c.next
	c.next++
	c.handles[id] = handle
	return id
}

// Unregister removes id. Removing an id that is not present is a no-op.
func (c *Connections) Unregister(id ConnectionID) {
	delete(c.handles, id)
}

// Lookup returns the handle for id, or false if the connection is already gone.
func (c *Connections) Lookup(id ConnectionID) (Deliverer, bool) {
	h, ok := c.handles[id]
	return h, ok
}

// Len returns the number of live connections.
func (c *Connections) Len() int {
	return len(c.handles)
}

// Rooms maps a room name to the set of connection IDs joined to it.
// Like Connections, it is owned by a single goroutine.
type Rooms struct {
	// map[ConnectionID]struct{} is the usual Go set: no duplicates, no ordering.
	members map[string]map[ConnectionID]struct{}
}

// NewRooms returns an empty room registry.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[ConnectionID]struct{})}
}

// Join adds id to room, creating the room on first use.
func (r *Rooms) Join(room string, id ConnectionID) {
	set, ok := r.members[room]
	if !ok {
		set = make(map[ConnectionID]struct{})
		r.members[room] = set
	}
	set[id] = struct{}{}
}

// Leave removes id from room and prunes the room once it is empty.
// Leaving a room the id is not in is a no-op.
func (r *Rooms) Leave(room string, id ConnectionID) {
	set, ok := r.members[room]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.members, room)
	}
}

// Members returns a sorted copy of the IDs in room. The copy is safe to keep
// after later joins and leaves. An unknown room yields an empty slice.
func (r *Rooms) Members(room string) []ConnectionID {
	set := r.members[room]
	ids := make([]ConnectionID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns how many connections are joined to room.
func (r *Rooms) Count(room string) int {
	return len(r.members[room])
}

// Len returns the number of non-empty rooms.
func (r *Rooms) Len() int {
	return len(r.members)
}
