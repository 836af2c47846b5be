// Package websocket adapts a WebSocket connection to the chat.Transport interface.
// WebSockets are persistent two-way connections: once the HTTP request is upgraded,
// either side can send frames at any time. This package translates between the
// WebSocket frame types (text, binary, ping, pong, close) and chat.Frame so the
// chat package never has to know which WebSocket library is underneath.
package websocket

import (
	"errors"
	"fmt"
	"time"

	// fasthttp/websocket is the WebSocket implementation under gofiber/contrib/websocket.
	// We use it directly for the frame type constants and the close helpers.
	fastws "github.com/fasthttp/websocket"

	"github.com/trentd187/community-chat/internal/chat"
)

const (
	// writeWait bounds every single write so a stuck peer can't block its session forever.
	writeWait = 10 * time.Second

	// maxMessageSize is the largest inbound message we accept. Larger frames fail
	// the read, which ends the session.
	maxMessageSize = 64 * 1024

	// maxCloseReason is the longest reason that fits in a close frame
	// (125-byte control payload minus the 2-byte code).
	maxCloseReason = 123
)

// wsConn is the subset of *websocket.Conn we rely on. Both the Fiber contrib
// Conn (which embeds it) and test fakes satisfy it.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	SetCloseHandler(h func(code int, text string) error)
	Close() error
}

// Conn is a chat.Transport backed by a WebSocket connection.
type Conn struct {
	ws wsConn
}

// NewConn wraps an upgraded WebSocket connection.
func NewConn(ws wsConn) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{ws: ws}
}

// Receive reads frames until the connection ends and hands each one to emit.
//
// The WebSocket library consumes control frames inside ReadMessage and reports
// them through handlers. We replace the default handlers (which would write pong
// and close replies themselves) so that ping, pong and close reach the session as
// frames and the session stays the connection's only writer.
func (c *Conn) Receive(emit func(chat.Frame)) error {
	c.ws.SetPingHandler(func(data string) error {
		emit(chat.Frame{Kind: chat.FramePing, Data: []byte(data)})
		return nil
	})
	c.ws.SetPongHandler(func(data string) error {
		emit(chat.Frame{Kind: chat.FramePong, Data: []byte(data)})
		return nil
	})
	c.ws.SetCloseHandler(func(code int, text string) error {
		emit(chat.Frame{Kind: chat.FrameClose, CloseCode: code, Reason: text})
		return nil
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			// A CloseError follows the close frame we already emitted: the
			// connection ended the way the protocol intends.
			var closeErr *fastws.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}
			return err
		}

		switch messageType {
		case fastws.TextMessage:
			emit(chat.Frame{Kind: chat.FrameText, Data: data})
		case fastws.BinaryMessage:
			emit(chat.Frame{Kind: chat.FrameBinary, Data: data})
		}
	}
}

// Send writes one frame to the peer.
func (c *Conn) Send(f chat.Frame) error {
	deadline := time.Now().Add(writeWait)

	switch f.Kind {
	case chat.FrameText, chat.FrameBinary:
		if err := c.ws.SetWriteDeadline(deadline); err != nil {
			return err
		}
		messageType := fastws.TextMessage
		if f.Kind == chat.FrameBinary {
			messageType = fastws.BinaryMessage
		}
		return c.ws.WriteMessage(messageType, f.Data)

	case chat.FramePing:
		return c.ws.WriteControl(fastws.PingMessage, f.Data, deadline)

	case chat.FramePong:
		return c.ws.WriteControl(fastws.PongMessage, f.Data, deadline)

	case chat.FrameClose:
		return c.ws.WriteControl(fastws.CloseMessage, closePayload(f.CloseCode, f.Reason), deadline)

	default:
		return fmt.Errorf("websocket: cannot send %s frame", f.Kind)
	}
}

// Close closes the underlying network connection, which unblocks Receive.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// closePayload builds the body of a close frame. A zero code means normal closure.
// 1005 (no status received) is echoed as an empty body, which is how the protocol
// says "no status".
func closePayload(code int, reason string) []byte {
	if code == 0 {
		code = fastws.CloseNormalClosure
	}
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return fastws.FormatCloseMessage(code, reason)
}
