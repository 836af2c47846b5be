package chat

import "strings"

// FrameKind identifies the wire-level type of a frame moving through a Transport.
type FrameKind int

const (
	FrameText FrameKind = iota // UTF-8 chat payload
	FrameBinary                // Not part of the chat protocol; logged and ignored
	FramePing                  // Liveness probe
	FramePong                  // Liveness reply
	FrameClose                 // Close handshake
	FrameContinuation          // Fragment of a larger message; ignored
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	case FrameContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// Close codes used on teardown. They match the RFC 6455 values so the transport
// can put them on the wire unchanged.
const (
	CloseNormal    = 1000
	CloseGoingAway = 1001
)

// Frame is one unit read from or written to a Transport.
// CloseCode and Reason are only meaningful for FrameClose.
type Frame struct {
	Kind      FrameKind
	Data      []byte
	CloseCode int
	Reason    string
}

// EventKind is the tag of an Event.
type EventKind int

const (
	EventJoin EventKind = iota
	EventChat
	EventHeartbeat
	EventClose
)

// Event is the typed meaning of an inbound frame, as the session controller sees it.
// The one exception is EventJoin, which comes from the upgrade request rather
// than a frame and starts every session (see JoinEvent).
// Only the fields relevant to Kind are set:
//   - EventJoin: Room
//   - EventChat: Payload (already trimmed)
//   - EventHeartbeat: Payload (ping data to echo) and Reply (true for a ping)
//   - EventClose: CloseCode and Reason
type Event struct {
	Kind      EventKind
	Room      string
	Payload   []byte
	Reply     bool
	CloseCode int
	Reason    string
}

// EventFromFrame translates a wire frame into an Event. The second return value
// is false for frames the chat protocol ignores: binary, continuation, and text
// that is empty once surrounding whitespace is removed.
func EventFromFrame(f Frame) (Event, bool) {
	switch f.Kind {
	case FrameText:
		text := strings.TrimSpace(string(f.Data))
		if text == "" {
			return Event{}, false
		}
		return Event{Kind: EventChat, Payload: []byte(text)}, true
	case FramePing:
		return Event{Kind: EventHeartbeat, Payload: f.Data, Reply: true}, true
	case FramePong:
		return Event{Kind: EventHeartbeat}, true
	case FrameClose:
		return Event{Kind: EventClose, CloseCode: f.CloseCode, Reason: f.Reason}, true
	default:
		return Event{}, false
	}
}

// JoinEvent builds the event a session registers with. query is the raw "room"
// query value of the upgrade request; an absent or blank value joins fallback.
func JoinEvent(query, fallback string) Event {
	return Event{Kind: EventJoin, Room: ResolveRoom(query, fallback)}
}

// ResolveRoom picks the room a new connection joins from its "room" query value.
// An absent or blank value selects fallback.
func ResolveRoom(query, fallback string) string {
	room := strings.TrimSpace(query)
	if room == "" {
		return fallback
	}
	return room
}
