package server

import (
	"encoding/json"
	"time"

	"github.com/openuno/cardroom/internal/lobby"
	"github.com/openuno/cardroom/internal/uno"
)

// Message is the base WebSocket message envelope. Data holds the typed
// payload for the message type.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	Identity string `json:"identity"`
}

type ListSessionsData struct {
	GameType string `json:"gameType,omitempty"`
}

type CreateSessionData struct {
	GameType string `json:"gameType,omitempty"`
}

type JoinSessionData struct {
	Code string `json:"code"`
}

type ActivateSessionData struct {
	Code string `json:"code"`
}

type LeaveSessionData struct {
	Code string `json:"code"`
}

type DeleteSessionData struct {
	Code string `json:"code"`
}

type SubscribeGameData struct {
	Code string `json:"code"`
}

// GameActionData is the closed action payload validated at the gateway
// boundary before anything reaches the engine. Kind is one of PLAY, DRAW or
// DECLARE; CardID and ChosenColor only apply to PLAY. Any client-supplied
// seat index is ignored: the seat is resolved from the connection's
// verified identity.
type GameActionData struct {
	Code        string         `json:"code"`
	Kind        uno.ActionKind `json:"kind"`
	CardID      string         `json:"cardId,omitempty"`
	ChosenColor uno.Color      `json:"chosenColor,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	Identity string `json:"identity,omitempty"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionInfo struct {
	Code             string `json:"code"`
	Owner            string `json:"owner"`
	GameType         string `json:"gameType"`
	ParticipantCount int    `json:"participantCount"`
	Capacity         int    `json:"capacity"`
}

type SessionListData struct {
	Sessions []SessionInfo `json:"sessions"`
}

type SessionAckData struct {
	Code string `json:"code"`
}

type SessionActivatedData struct {
	Code     string `json:"code"`
	GameType string `json:"gameType"`
}

type ParticipantLeftData struct {
	Code     string `json:"code"`
	Identity string `json:"identity"`
}

type MySessionListData struct {
	Sessions []lobby.UserSession `json:"sessions"`
}

type GameStateData struct {
	Code  string        `json:"code"`
	State uno.GameState `json:"state"`
}

// SessionInfoFromLobby converts a lobby session into its listing form.
func SessionInfoFromLobby(s *lobby.Session) SessionInfo {
	return SessionInfo{
		Code:             s.Code,
		Owner:            s.Owner,
		GameType:         s.GameType,
		ParticipantCount: len(s.Participants),
		Capacity:         s.Capacity,
	}
}
