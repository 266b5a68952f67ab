package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openuno/cardroom/internal/identity"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	identity    string
	token       string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
	provider    identity.Provider
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService, provider identity.Provider) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
		provider:    provider,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Identity returns the verified identity bound at auth, or empty if the
// connection has not authenticated.
func (c *Connection) Identity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Token returns the server-issued connection token.
func (c *Connection) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Connection) bindIdentity(id, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
	c.token = token
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() {
		c.gameService.DisconnectCleanup(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes one inbound message. Every privileged message
// requires a prior successful auth; the payload never carries identity.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "identity", c.Identity())
	c.gameService.metrics.MessagesReceived.Inc()

	if msg.Type == MessageTypeAuth {
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse auth data")
			return
		}
		c.handleAuth(data)
		return
	}

	if c.Identity() == "" {
		c.sendError("not_authenticated", "must authenticate first")
		return
	}

	switch msg.Type {
	case MessageTypeListSessions:
		var data ListSessionsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse list data")
			return
		}
		c.gameService.ListSessions(c, data.GameType)

	case MessageTypeCreateSession:
		var data CreateSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse create data")
			return
		}
		c.gameService.CreateSession(c, data.GameType)

	case MessageTypeJoinSession:
		var data JoinSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse join data")
			return
		}
		c.gameService.JoinSession(c, data.Code)

	case MessageTypeActivateSession:
		var data ActivateSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse activate data")
			return
		}
		c.gameService.ActivateSession(c, data.Code)

	case MessageTypeLeaveSession:
		var data LeaveSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse leave data")
			return
		}
		c.gameService.LeaveSession(c, data.Code)

	case MessageTypeDeleteSession:
		var data DeleteSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse delete data")
			return
		}
		c.gameService.DeleteSession(c, data.Code)

	case MessageTypeMySessions:
		c.gameService.MySessions(c)

	case MessageTypeSubscribeGame:
		var data SubscribeGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			// Malformed subscriptions are dropped like invalid ones.
			c.logger.Debug("unparseable subscribe", "error", err)
			return
		}
		c.gameService.SubscribeGame(c, data.Code)

	case MessageTypeGameAction:
		var data GameActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.logger.Debug("unparseable game action", "error", err)
			return
		}
		c.gameService.GameAction(c, data)

	default:
		c.sendError("unknown_message_type", "unknown message type: "+msg.Type.String())
	}
}

// sendError sends a targeted negative acknowledgement to this connection
// only; rejected attempts are never broadcast.
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// handleAuth verifies the self-reported identity with the provider, binds
// its canonical form plus a server-issued token to the connection, and
// pushes an initial lobby listing.
func (c *Connection) handleAuth(data AuthData) {
	verified, err := c.provider.Verify(c.ctx, data.Identity)
	if err != nil {
		response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
			Success: false,
			Error:   err.Error(),
		})
		_ = c.SendMessage(response)
		return
	}

	c.bindIdentity(verified, uuid.NewString())
	c.logger.Info("authenticated", "identity", verified)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		Identity: verified,
		Token:    c.Token(),
	})
	_ = c.SendMessage(response)

	c.gameService.ListSessions(c, "")
}
