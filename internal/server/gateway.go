package server

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/openuno/cardroom/internal/activity"
	"github.com/openuno/cardroom/internal/lobby"
	"github.com/openuno/cardroom/internal/uno"
)

// room is the broadcast group for one session code, plus the lazily created
// engine state for its game. All state for a code is touched under the
// room's lock, so actions on one session apply in the order the gateway
// finishes them.
type room struct {
	mu     sync.Mutex
	code   string
	engine *uno.GameState
	conns  map[*Connection]struct{}
}

// GameService binds connections to lobby sessions and game engines. It
// forwards lobby operations to the registry, manages one engine instance
// per active game session, and rebroadcasts authoritative state to every
// connection subscribed to a session.
type GameService struct {
	registry *lobby.Registry
	server   *Server
	activity activity.Log
	logger   *log.Logger
	metrics  *Metrics

	mu    sync.RWMutex
	rooms map[string]*room
	rng   *rand.Rand
}

// NewGameService creates a game service over the given registry.
func NewGameService(server *Server, registry *lobby.Registry, rng *rand.Rand, logger *log.Logger, metrics *Metrics, activityLog activity.Log) *GameService {
	if activityLog == nil {
		activityLog = activity.Nop{}
	}
	return &GameService{
		registry: registry,
		server:   server,
		activity: activityLog,
		logger:   logger.WithPrefix("gateway"),
		metrics:  metrics,
		rooms:    make(map[string]*room),
		rng:      rng,
	}
}

func (gs *GameService) roomFor(code string) *room {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	r, ok := gs.rooms[code]
	if !ok {
		r = &room{code: code, conns: make(map[*Connection]struct{})}
		gs.rooms[code] = r
	}
	return r
}

func (gs *GameService) lookupRoom(code string) (*room, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	r, ok := gs.rooms[code]
	return r, ok
}

// dropRoom discards a session's broadcast group and engine state. Called
// when the session itself is destroyed.
func (gs *GameService) dropRoom(code string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	delete(gs.rooms, code)
}

// resetEngine discards the engine but keeps the broadcast group. The next
// subscribe recreates a fresh game from the session's current participants;
// mid-game progress is not preserved.
func (gs *GameService) resetEngine(code string) {
	if r, ok := gs.lookupRoom(code); ok {
		r.mu.Lock()
		r.engine = nil
		r.mu.Unlock()
	}
}

func (r *room) join(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

func (r *room) leave(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// broadcast sends a message to every connection in the group.
func (r *room) broadcast(msg *Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

func (r *room) broadcastLocked(msg *Message) {
	for c := range r.conns {
		_ = c.SendMessage(msg)
	}
}

// DisconnectCleanup removes a closed connection from every broadcast group.
// Session membership is unaffected; a participant can reconnect and
// resubscribe.
func (gs *GameService) DisconnectCleanup(c *Connection) {
	gs.mu.RLock()
	rooms := make([]*room, 0, len(gs.rooms))
	for _, r := range gs.rooms {
		rooms = append(rooms, r)
	}
	gs.mu.RUnlock()

	for _, r := range rooms {
		r.leave(c)
	}
}

// sessionList builds the current lobby listing.
func (gs *GameService) sessionList(gameType string) *Message {
	sessions := gs.registry.List(gameType)
	infos := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = SessionInfoFromLobby(s)
	}

	msg, err := NewMessage(MessageTypeSessionList, SessionListData{Sessions: infos})
	if err != nil {
		gs.logger.Error("failed to build session list", "error", err)
		return nil
	}
	return msg
}

// broadcastSessionList pushes the refreshed lobby listing to every
// connection, subscribed or not, so lobby browsers stay current.
func (gs *GameService) broadcastSessionList() {
	if msg := gs.sessionList(""); msg != nil {
		gs.server.BroadcastAll(msg)
	}
	gs.metrics.SessionsOpen.Set(float64(gs.registry.Len()))
}

// ListSessions unicasts the lobby listing to the requester.
func (gs *GameService) ListSessions(c *Connection, gameType string) {
	if msg := gs.sessionList(gameType); msg != nil {
		_ = c.SendMessage(msg)
	}
}

// CreateSession opens a new session owned by the connection's identity and
// subscribes the connection to its broadcast group.
func (gs *GameService) CreateSession(c *Connection, gameType string) {
	session, err := gs.registry.Create(c.Identity(), gameType)
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}

	gs.roomFor(session.Code).join(c)

	ack, err := NewMessage(MessageTypeSessionCreated, SessionAckData{Code: session.Code})
	if err == nil {
		_ = c.SendMessage(ack)
	}
	gs.broadcastSessionList()
}

// JoinSession adds the connection's identity to a session.
func (gs *GameService) JoinSession(c *Connection, code string) {
	session, err := gs.registry.Join(c.Identity(), code)
	if err != nil {
		c.sendError(lobbyErrorCode(err), err.Error())
		return
	}

	gs.roomFor(session.Code).join(c)

	ack, err := NewMessage(MessageTypeSessionJoined, SessionAckData{Code: session.Code})
	if err == nil {
		_ = c.SendMessage(ack)
	}
	gs.broadcastSessionList()
}

// ActivateSession moves a pending session to active, owner-only. The whole
// broadcast group learns the session started.
func (gs *GameService) ActivateSession(c *Connection, code string) {
	session, err := gs.registry.Activate(c.Identity(), code)
	if err != nil {
		c.sendError(lobbyErrorCode(err), err.Error())
		return
	}

	started, err := NewMessage(MessageTypeSessionActivated, SessionActivatedData{
		Code:     session.Code,
		GameType: session.GameType,
	})
	if err == nil {
		gs.roomFor(session.Code).broadcast(started)
	}
	gs.broadcastSessionList()
}

// LeaveSession removes the connection's identity from a session. An owner
// leaving destroys the session outright; otherwise the engine is discarded
// so the next subscribe restarts the game with the remaining participants.
func (gs *GameService) LeaveSession(c *Connection, code string) {
	identity := c.Identity()
	result, err := gs.registry.Leave(identity, code)
	if err != nil {
		c.sendError(lobbyErrorCode(err), err.Error())
		return
	}

	if result.Destroyed {
		gs.dropRoom(code)
	} else {
		gs.resetEngine(code)
		if r, ok := gs.lookupRoom(code); ok {
			r.leave(c)
			if gone, err := NewMessage(MessageTypeParticipantLeft, ParticipantLeftData{
				Code:     code,
				Identity: identity,
			}); err == nil {
				r.broadcast(gone)
			}
		}
	}

	ack, err := NewMessage(MessageTypeSessionLeft, SessionAckData{Code: code})
	if err == nil {
		_ = c.SendMessage(ack)
	}
	gs.broadcastSessionList()
}

// DeleteSession destroys a session. Routed through the same registry
// operation as leaving: only the owner's call removes the session; anyone
// else is simply removed from it.
func (gs *GameService) DeleteSession(c *Connection, code string) {
	result, err := gs.registry.Leave(c.Identity(), code)
	if err != nil {
		c.sendError(lobbyErrorCode(err), err.Error())
		return
	}

	if result.Destroyed {
		gs.dropRoom(code)
	} else {
		gs.resetEngine(code)
	}

	ack, err := NewMessage(MessageTypeSessionDeleted, SessionAckData{Code: code})
	if err == nil {
		_ = c.SendMessage(ack)
	}
	gs.broadcastSessionList()
}

// MySessions unicasts the sessions the connection's identity owns or has
// joined.
func (gs *GameService) MySessions(c *Connection) {
	list := gs.registry.SessionsOf(c.Identity())
	msg, err := NewMessage(MessageTypeMySessionList, MySessionListData{Sessions: list})
	if err == nil {
		_ = c.SendMessage(msg)
	}
}

// SubscribeGame binds the connection to a session's game. The engine is
// created lazily on first subscription, seeding seats from the participant
// list in join order. Invalid subscriptions are dropped silently, per the
// protocol: only well-formed group members ever see game state.
func (gs *GameService) SubscribeGame(c *Connection, code string) {
	session, ok := gs.registry.Get(code)
	if !ok {
		gs.logger.Debug("subscribe to unknown session", "code", code)
		return
	}

	gameType := session.GameType
	if gameType == "" {
		gameType = lobby.DefaultGameType
	}
	if gameType != lobby.DefaultGameType {
		gs.logger.Debug("subscribe to non-card session", "code", code, "gameType", gameType)
		return
	}

	r := gs.roomFor(code)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		gs.mu.Lock()
		state, err := uno.NewGame(gs.rng, session.Participants...)
		gs.mu.Unlock()
		if err != nil {
			gs.logger.Warn("cannot start game", "code", code, "error", err)
			return
		}
		r.engine = &state
		gs.logger.Info("game created", "code", code, "players", len(session.Participants))
		gs.activity.Record("create_game", c.Identity(), "session", code)
		gs.metrics.GamesCreated.Inc()
	}

	r.conns[c] = struct{}{}

	if msg, err := NewMessage(MessageTypeGameState, GameStateData{Code: code, State: *r.engine}); err == nil {
		r.broadcastLocked(msg)
		gs.metrics.Broadcasts.Inc()
	}
}

// GameAction applies one validated player action and rebroadcasts the
// authoritative state to the session's group. The acting seat comes from
// the connection's identity, matched case-insensitively against the
// participant list; a participant can only act as themself. Unknown
// sessions, missing engines and non-participants are dropped silently.
func (gs *GameService) GameAction(c *Connection, data GameActionData) {
	session, ok := gs.registry.Get(data.Code)
	if !ok {
		gs.logger.Debug("action for unknown session", "code", data.Code)
		return
	}

	seat := -1
	for i, p := range session.Participants {
		if strings.EqualFold(p, c.Identity()) {
			seat = i
			break
		}
	}
	if seat == -1 {
		gs.logger.Debug("action from non-participant", "code", data.Code, "identity", c.Identity())
		return
	}

	var action uno.Action
	switch data.Kind {
	case uno.ActionPlay:
		action = uno.PlayCard{Player: seat, CardID: data.CardID, ChosenColor: data.ChosenColor}
	case uno.ActionDraw:
		action = uno.DrawCard{Player: seat}
	case uno.ActionDeclare:
		action = uno.DeclareLastCard{Player: seat}
	default:
		gs.logger.Debug("unknown action kind", "code", data.Code, "kind", data.Kind)
		return
	}

	r, ok := gs.lookupRoom(data.Code)
	if !ok {
		gs.logger.Debug("action for session without a game", "code", data.Code)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		gs.logger.Debug("action before subscribe", "code", data.Code)
		return
	}

	next, err := uno.Apply(*r.engine, action)
	if err != nil {
		// Rejections are not errors at the gateway: the unchanged state is
		// rebroadcast and the reason only logged.
		gs.logger.Debug("action rejected", "code", data.Code, "seat", seat,
			"kind", data.Kind, "reason", err)
	}
	r.engine = &next

	gs.metrics.ActionsApplied.Inc()
	gs.activity.Record("game_action", c.Identity(), "session", data.Code, "kind", string(data.Kind))

	if msg, err := NewMessage(MessageTypeGameState, GameStateData{Code: data.Code, State: next}); err == nil {
		r.broadcastLocked(msg)
		gs.metrics.Broadcasts.Inc()
	}
}

// lobbyErrorCode maps registry failures onto stable protocol error codes.
func lobbyErrorCode(err error) string {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		return "not_found"
	case errors.Is(err, lobby.ErrSessionFull):
		return "session_full"
	case errors.Is(err, lobby.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, lobby.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, lobby.ErrBadIdentity):
		return "bad_identity"
	default:
		return "lobby_error"
	}
}
