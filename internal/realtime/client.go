package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Authenticator checks the token a session presents on register and returns
// the user id it was issued for.
type Authenticator interface {
	Authenticate(token string) (userID string, err error)
}

// Client is a websocket Session.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	auth Authenticator
	log  *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, hub *Hub, auth Authenticator, log *zap.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		auth: auth,
		log:  log.With(zap.String("session_id", id)),
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		c.log.Debug("Session send buffer full, dropping frame")
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.Detach(c)
		_ = c.conn.Close()
	})
}

// run attaches the client and blocks until the connection ends.
func (c *Client) run() {
	c.hub.Attach(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Session closed unexpectedly", zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.reply(EventError, map[string]string{"message": "invalid frame"})
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame Frame) {
	switch frame.Event {
	case EventRegister:
		req, err := parseRegister(frame.Data)
		if err != nil {
			c.reply(EventError, map[string]string{"message": "invalid register payload"})
			return
		}

		userID, err := c.identify(req)
		if err != nil {
			c.log.Warn("Session register rejected", zap.Error(err))
			c.reply(EventError, map[string]string{"message": err.Error()})
			return
		}
		if err := c.hub.Register(userID, c); err != nil {
			c.reply(EventError, map[string]string{"message": err.Error()})
			return
		}
		c.log.Info("Session registered", zap.String("user_id", userID))
		c.reply(EventRegistered, map[string]string{"user_id": userID})

	case EventUnregister:
		c.hub.Unregister(c)

	default:
		c.reply(EventError, map[string]string{"message": "unknown event"})
	}
}

func (c *Client) identify(req registerRequest) (string, error) {
	if c.auth == nil {
		if req.UserID == "" {
			return "", ErrEmptyUserID
		}
		return req.UserID, nil
	}

	userID, err := c.auth.Authenticate(req.Token)
	if err != nil {
		return "", err
	}
	if req.UserID != "" && req.UserID != userID {
		return "", errUserMismatch
	}
	return userID, nil
}

func (c *Client) reply(event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		return
	}
	c.Send(frame)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
