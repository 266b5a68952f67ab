// Package lobby is the in-memory session directory: joinable rooms with an
// owner, a participant list, a capacity derived from the game type, and a
// pending/active lifecycle. The registry is process-wide state with no
// persistence; a restart loses every session.
package lobby

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/openuno/cardroom/internal/activity"
)

var (
	ErrNotFound      = errors.New("lobby: session not found")
	ErrSessionFull   = errors.New("lobby: session is full")
	ErrAlreadyJoined = errors.New("lobby: identity already a participant")
	ErrNotOwner      = errors.New("lobby: only the owner may do that")
	ErrBadIdentity   = errors.New("lobby: empty identity")
)

// DefaultGameType is assumed for sessions created without an explicit game
// tag, for compatibility with older clients.
const DefaultGameType = "uno"

// Status is the lobby lifecycle of a session. Destruction is terminal and
// has no status; destroyed sessions simply leave the registry.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

// Session is one joinable room. The owner is immutable and always a
// participant; ownership never transfers.
type Session struct {
	Code         string    `json:"code"`
	Owner        string    `json:"owner"`
	GameType     string    `json:"gameType"`
	Participants []string  `json:"participants"`
	Capacity     int       `json:"capacity"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether the identity is in the session,
// case-insensitively.
func (s *Session) HasParticipant(identity string) bool {
	for _, p := range s.Participants {
		if strings.EqualFold(p, identity) {
			return true
		}
	}
	return false
}

func (s *Session) isOwner(identity string) bool {
	return strings.EqualFold(s.Owner, identity)
}

// UserSession is a session as seen from one identity's point of view.
type UserSession struct {
	Code    string `json:"code"`
	Owner   string `json:"owner"`
	IsOwner bool   `json:"isOwner"`
}

// LeaveResult reports what Leave did to the session.
type LeaveResult struct {
	// Destroyed is set when the session was removed from the registry,
	// either because the owner left or the last participant did.
	Destroyed bool
}

// Registry holds every live session, keyed by code. Construct with
// NewRegistry; the zero value is not usable.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	capacities map[string]int
	clock      quartz.Clock
	logger     *log.Logger
	activity   activity.Log
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock swaps the wall clock, for tests.
func WithClock(clock quartz.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithActivityLog records lobby operations to the given log.
func WithActivityLog(a activity.Log) Option {
	return func(r *Registry) { r.activity = a }
}

// WithCapacities sets the game-type capacity catalog. Unknown game types
// fall back to two seats.
func WithCapacities(capacities map[string]int) Option {
	return func(r *Registry) { r.capacities = capacities }
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger, opts ...Option) *Registry {
	r := &Registry{
		sessions:   make(map[string]*Session),
		capacities: map[string]int{DefaultGameType: 4},
		clock:      quartz.NewReal(),
		logger:     logger.WithPrefix("lobby"),
		activity:   activity.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) capacityFor(gameType string) int {
	if n, ok := r.capacities[gameType]; ok {
		return n
	}
	return 2
}

func newCode() string {
	// Short codes read better in a lobby list than full UUIDs.
	return uuid.NewString()[:8]
}

// Create opens a new pending session owned by the given identity, who
// becomes its first participant.
func (r *Registry) Create(owner, gameType string) (*Session, error) {
	if owner == "" {
		r.activity.Record("create_session_failed", owner)
		return nil, ErrBadIdentity
	}
	if gameType == "" {
		gameType = DefaultGameType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := newCode()
	for r.sessions[code] != nil {
		code = newCode()
	}

	session := &Session{
		Code:         code,
		Owner:        owner,
		GameType:     gameType,
		Participants: []string{owner},
		Capacity:     r.capacityFor(gameType),
		Status:       StatusPending,
		CreatedAt:    r.clock.Now(),
	}
	r.sessions[code] = session

	r.logger.Info("session created", "code", code, "owner", owner, "gameType", gameType)
	r.activity.Record("create_session", owner, "session", code)
	return session.snapshot(), nil
}

// Join appends the identity to the session's participants.
func (r *Registry) Join(identity, code string) (*Session, error) {
	if identity == "" {
		r.activity.Record("join_session_failed", identity)
		return nil, ErrBadIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.sessions[code]
	if session == nil {
		r.activity.Record("join_session_failed", identity)
		return nil, ErrNotFound
	}
	if len(session.Participants) >= session.Capacity {
		r.activity.Record("join_session_failed", identity)
		return nil, ErrSessionFull
	}
	if session.HasParticipant(identity) {
		r.activity.Record("join_session_failed", identity)
		return nil, ErrAlreadyJoined
	}

	session.Participants = append(session.Participants, identity)

	r.logger.Info("participant joined", "code", code, "identity", identity,
		"participants", len(session.Participants), "capacity", session.Capacity)
	r.activity.Record("join_session", identity, "session", code)
	return session.snapshot(), nil
}

// Activate moves a pending session to active. Owner-only; the owner is
// re-added to the participant list if somehow absent.
func (r *Registry) Activate(identity, code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.sessions[code]
	if session == nil {
		r.activity.Record("activate_session_failed", identity)
		return nil, ErrNotFound
	}
	if !session.isOwner(identity) {
		r.activity.Record("activate_session_failed", identity)
		return nil, ErrNotOwner
	}

	session.Status = StatusActive
	if !session.HasParticipant(identity) {
		session.Participants = append(session.Participants, session.Owner)
	}

	r.logger.Info("session activated", "code", code, "owner", session.Owner)
	r.activity.Record("activate_session", identity, "session", code)
	return session.snapshot(), nil
}

// Leave removes the identity from the session. The owner leaving destroys
// the whole session; a non-owner is removed from the participant list, and
// an emptied session is destroyed too. Ownership never transfers.
func (r *Registry) Leave(identity, code string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := r.sessions[code]
	if session == nil {
		r.activity.Record("leave_session_failed", identity)
		return LeaveResult{}, ErrNotFound
	}

	if session.isOwner(identity) {
		delete(r.sessions, code)
		r.logger.Info("session destroyed by owner", "code", code, "owner", session.Owner)
		r.activity.Record("delete_session", identity, "session", code)
		return LeaveResult{Destroyed: true}, nil
	}

	if !session.HasParticipant(identity) {
		r.activity.Record("leave_session_failed", identity)
		return LeaveResult{}, ErrNotFound
	}

	remaining := session.Participants[:0]
	for _, p := range session.Participants {
		if !strings.EqualFold(p, identity) {
			remaining = append(remaining, p)
		}
	}
	session.Participants = remaining

	if len(session.Participants) == 0 {
		delete(r.sessions, code)
		r.logger.Info("session destroyed, last participant left", "code", code)
		r.activity.Record("leave_session", identity, "session", code)
		return LeaveResult{Destroyed: true}, nil
	}

	r.logger.Info("participant left", "code", code, "identity", identity)
	r.activity.Record("leave_session", identity, "session", code)
	return LeaveResult{}, nil
}

// Get returns a snapshot of the session, if it exists.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session := r.sessions[code]
	if session == nil {
		return nil, false
	}
	return session.snapshot(), true
}

// List returns every pending session, optionally filtered by game type.
// Sessions without an explicit tag count as the default card game.
func (r *Registry) List(gameType string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Status != StatusPending {
			continue
		}
		if gameType != "" {
			tagged := s.GameType
			if tagged == "" {
				tagged = DefaultGameType
			}
			if tagged != gameType {
				continue
			}
		}
		sessions = append(sessions, s.snapshot())
	}

	sortSessions(sessions)
	return sessions
}

// SessionsOf returns every session the identity owns or participates in.
func (r *Registry) SessionsOf(identity string) []UserSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []UserSession
	for _, s := range r.sessions {
		if s.isOwner(identity) || s.HasParticipant(identity) {
			list = append(list, UserSession{
				Code:    s.Code,
				Owner:   s.Owner,
				IsOwner: s.isOwner(identity),
			})
		}
	}

	r.activity.Record("list_user_sessions", identity)
	return list
}

// Len reports how many sessions are open, for metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// snapshot copies a session so callers can't reach into registry state.
func (s *Session) snapshot() *Session {
	copied := *s
	copied.Participants = append([]string(nil), s.Participants...)
	return &copied
}

// sortSessions gives the lobby listing a stable order: oldest first, code
// as tiebreak.
func sortSessions(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].Code < sessions[j].Code
	})
}
