package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
	handlerWait  = 5 * time.Second
)

// Client couples one WebSocket connection to its session. It implements
// Sender so the registry can push events to it.
type Client struct {
	Session *Session

	conn      *websocket.Conn
	registry  *Registry
	send      chan []byte
	closeOnce sync.Once
	log       *zap.Logger
}

// NewClient creates a client for an admitted connection
func NewClient(session *Session, conn *websocket.Conn, registry *Registry, log *zap.Logger) *Client {
	return &Client{
		Session:  session,
		conn:     conn,
		registry: registry,
		send:     make(chan []byte, 256),
		log:      log.With(zap.String("userId", session.User.ID)),
	}
}

// Push enqueues an event for delivery. Returns false when the client's
// buffer is full or the handle has been closed.
func (c *Client) Push(ev Event) (ok bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Error("failed to marshal event", zap.Error(err))
		return false
	}
	defer func() {
		// Send may be closed by a concurrent displacement
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close releases the send channel. Idempotent; the write pump exits once
// the channel drains.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump handles incoming frames from the client until the connection
// drops, then unregisters. Runs on the connection's goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Unregister(c.Session.User.ID, c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket error", zap.Error(err))
			}
			break
		}

		var in Incoming
		if err := json.Unmarshal(data, &in); err != nil {
			c.log.Warn("failed to parse frame", zap.Error(err))
			continue
		}

		c.dispatch(in)
	}
}

// WritePump flushes queued events to the connection and keeps it alive with
// pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn("write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame to its session verb. Every frame that
// carried an ackId gets exactly one ack back, success or failure; storage
// failures never close the session.
func (c *Client) dispatch(in Incoming) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerWait)
	defer cancel()

	switch in.Type {
	case EventMessageSend:
		var p SendPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			c.ack(in, AckFailure("Invalid payload"))
			return
		}
		res, err := c.Session.Send(ctx, p)
		if err != nil {
			c.ack(in, AckFailure(err.Error()))
			return
		}
		c.ack(in, AckSuccess(map[string]interface{}{
			"message":        res.Message,
			"conversationId": res.ConversationID,
			"delivered":      res.Delivered,
		}))

	case EventMessageRead:
		var p ReadPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			c.ack(in, AckFailure("Invalid payload"))
			return
		}
		res, err := c.Session.MarkRead(ctx, p)
		if err != nil {
			c.ack(in, AckFailure(err.Error()))
			return
		}
		c.ack(in, AckSuccess(map[string]interface{}{"messageIds": res.Updated}))

	case EventTypingStart, EventTypingStop:
		var p TypingPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return
		}
		c.Session.Typing(p.ReceiverID, in.Type == EventTypingStart)

	case EventGetOnline:
		c.ack(in, AckSuccess(map[string]interface{}{"onlineUsers": c.Session.OnlineUsers()}))

	default:
		c.log.Warn("unknown event type", zap.String("type", string(in.Type)))
		c.ack(in, AckFailure("Unknown event type"))
	}
}

// ack emits the correlated response for a frame, if the client asked for one
func (c *Client) ack(in Incoming, payload map[string]interface{}) {
	if in.AckID == "" {
		return
	}
	ev := NewEvent(EventAck, payload)
	ev.AckID = in.AckID
	if !c.Push(ev) {
		c.log.Warn("failed to deliver ack", zap.String("ackId", in.AckID))
	}
}
