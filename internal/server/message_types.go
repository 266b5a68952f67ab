package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the client-server protocol
const (
	// Client to server messages
	MessageTypeAuth            MessageType = "auth"
	MessageTypeListSessions    MessageType = "list_sessions"
	MessageTypeCreateSession   MessageType = "create_session"
	MessageTypeJoinSession     MessageType = "join_session"
	MessageTypeActivateSession MessageType = "activate_session"
	MessageTypeLeaveSession    MessageType = "leave_session"
	MessageTypeDeleteSession   MessageType = "delete_session"
	MessageTypeMySessions      MessageType = "my_sessions"
	MessageTypeSubscribeGame   MessageType = "subscribe_game"
	MessageTypeGameAction      MessageType = "game_action"

	// Server to client messages
	MessageTypeAuthResponse     MessageType = "auth_response"
	MessageTypeSessionList      MessageType = "session_list"
	MessageTypeSessionCreated   MessageType = "session_created"
	MessageTypeSessionJoined    MessageType = "session_joined"
	MessageTypeSessionActivated MessageType = "session_activated"
	MessageTypeSessionLeft      MessageType = "session_left"
	MessageTypeParticipantLeft  MessageType = "participant_left"
	MessageTypeSessionDeleted   MessageType = "session_deleted"
	MessageTypeMySessionList    MessageType = "my_session_list"
	MessageTypeGameState        MessageType = "game_state"
	MessageTypeError            MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
