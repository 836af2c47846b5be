package chat

import "log/slog"

// Broadcast pushes payload to every member of room except exclude (when non-nil)
// and returns how many members accepted it.
//
// Delivery is best-effort per member: a member whose handle is already gone, or
// whose Deliver call fails, is skipped and the loop carries on with the rest.
func Broadcast(rooms *Rooms, conns *Connections, room string, payload []byte, exclude *ConnectionID) int {
	delivered := 0
	for _, id := range rooms.Members(room) {
		if exclude != nil && id == *exclude {
			continue
		}
		handle, ok := conns.Lookup(id)
		if !ok {
			slog.Debug("broadcast target already gone", "room", room, "connectionId", id)
			continue
		}
		if err := handle.Deliver(payload); err != nil {
			slog.Debug("broadcast delivery failed", "room", room, "connectionId", id, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}
