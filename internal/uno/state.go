package uno

// Status is the lifecycle of one game instance.
type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Player is one seat at the table. Hand order is presentation-only.
type Player struct {
	Name             string `json:"name"`
	Hand             []Card `json:"hand"`
	DeclaredLastCard bool   `json:"declaredLastCard"`
}

// LastAction records the most recent applied action, for clients that want
// to animate or narrate it. Card is nil for a draw against an empty pile and
// for declarations.
type LastAction struct {
	Kind   ActionKind `json:"kind"`
	Player int        `json:"playerIndex"`
	Card   *Card      `json:"card,omitempty"`
}

// GameState is the authoritative snapshot of one game. Transitions never
// mutate a state in place; Apply clones and returns a successor, so prior
// snapshots stay safe to share.
type GameState struct {
	Players       []Player    `json:"players"`
	DrawPile      []Card      `json:"drawPile"`
	DiscardPile   []Card      `json:"discardPile"`
	CurrentPlayer int         `json:"currentPlayerIndex"`
	Direction     int         `json:"direction"`
	Status        Status      `json:"status"`
	Winner        *int        `json:"winnerIndex,omitempty"`
	LastAction    *LastAction `json:"lastAction,omitempty"`
}

// TopCard returns the active card, the last card of the discard pile.
func (s GameState) TopCard() (Card, bool) {
	if len(s.DiscardPile) == 0 {
		return Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// CardCount sums every card in play. Always DeckSize for a well-formed game.
func (s GameState) CardCount() int {
	n := len(s.DrawPile) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// nextIndex walks steps seats from the given seat in the current direction.
func (s GameState) nextIndex(from, steps int) int {
	n := len(s.Players)
	idx := from
	for i := 0; i < steps; i++ {
		idx = (idx + s.Direction + n) % n
	}
	return idx
}

// clone deep-copies the state so a transition can mutate freely.
func (s GameState) clone() GameState {
	next := s

	next.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		hand := make([]Card, len(p.Hand))
		copy(hand, p.Hand)
		p.Hand = hand
		next.Players[i] = p
	}

	next.DrawPile = make([]Card, len(s.DrawPile))
	copy(next.DrawPile, s.DrawPile)
	next.DiscardPile = make([]Card, len(s.DiscardPile))
	copy(next.DiscardPile, s.DiscardPile)

	if s.Winner != nil {
		w := *s.Winner
		next.Winner = &w
	}
	if s.LastAction != nil {
		la := *s.LastAction
		if s.LastAction.Card != nil {
			c := *s.LastAction.Card
			la.Card = &c
		}
		next.LastAction = &la
	}

	return next
}

// PlayableCards returns the cards the given player could legally play right
// now. Empty unless it is their turn.
func PlayableCards(s GameState, player int) []Card {
	if player != s.CurrentPlayer || player < 0 || player >= len(s.Players) {
		return nil
	}
	top, ok := s.TopCard()
	if !ok {
		return nil
	}

	var playable []Card
	for _, c := range s.Players[player].Hand {
		if CanPlay(c, top) {
			playable = append(playable, c)
		}
	}
	return playable
}

// TurnInfo summarizes the acting player's options, for clients and bots.
type TurnInfo struct {
	Player          int
	Name            string
	Playable        []Card
	CanDraw         bool
	MustDeclareLast bool
}

// CurrentTurn describes whose turn it is and what they can do.
func CurrentTurn(s GameState) TurnInfo {
	p := s.Players[s.CurrentPlayer]
	return TurnInfo{
		Player:          s.CurrentPlayer,
		Name:            p.Name,
		Playable:        PlayableCards(s, s.CurrentPlayer),
		CanDraw:         len(s.DrawPile) > 0,
		MustDeclareLast: len(p.Hand) == 1 && !p.DeclaredLastCard,
	}
}
