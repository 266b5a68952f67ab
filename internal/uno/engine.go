package uno

import (
	"errors"
	"fmt"
	"math/rand"
)

const handSize = 7

// Bounded attempts to rotate a wild off the head of the draw pile before
// flipping the starting discard.
const startingCardRetries = 10

var (
	ErrTooFewPlayers = errors.New("uno: need at least 2 players")
	ErrGameFinished  = errors.New("uno: game already finished")
	ErrNotYourTurn   = errors.New("uno: not this player's turn")
	ErrUnknownPlayer = errors.New("uno: player index out of range")
	ErrCardNotHeld   = errors.New("uno: card not in player's hand")
	ErrIllegalCard   = errors.New("uno: card cannot be played on current discard")
	ErrColorRequired = errors.New("uno: wild card requires a chosen color")
	ErrInvalidColor  = errors.New("uno: chosen color is not a playable color")
)

// ActionKind tags the closed set of game actions.
type ActionKind string

const (
	ActionPlay    ActionKind = "PLAY"
	ActionDraw    ActionKind = "DRAW"
	ActionDeclare ActionKind = "DECLARE"
)

// Action is one of PlayCard, DrawCard or DeclareLastCard.
type Action interface {
	Kind() ActionKind
	Seat() int
}

// PlayCard plays the identified card from the acting player's hand.
// ChosenColor is required when the card is wild-faced and ignored otherwise.
type PlayCard struct {
	Player      int
	CardID      string
	ChosenColor Color
}

func (a PlayCard) Kind() ActionKind { return ActionPlay }
func (a PlayCard) Seat() int        { return a.Player }

// DrawCard moves the head of the draw pile into the acting player's hand.
// Drawing does not end the turn.
type DrawCard struct {
	Player int
}

func (a DrawCard) Kind() ActionKind { return ActionDraw }
func (a DrawCard) Seat() int        { return a.Player }

// DeclareLastCard flags that the player is down to one card. A no-op unless
// the hand size is exactly one; omitting the declaration carries no penalty.
type DeclareLastCard struct {
	Player int
}

func (a DeclareLastCard) Kind() ActionKind { return ActionDeclare }
func (a DeclareLastCard) Seat() int        { return a.Player }

// NewGame shuffles a full deck with the supplied RNG, deals seven cards to
// each named player in order, and flips the starting discard. Wilds are
// rotated to the bottom of the draw pile (bounded retries) so the game never
// opens on a colorless card unless the shuffle leaves no alternative.
func NewGame(rng *rand.Rand, names ...string) (GameState, error) {
	if len(names) < 2 {
		return GameState{}, ErrTooFewPlayers
	}

	deck := NewDeck(rng)

	players := make([]Player, len(names))
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("player %d", i+1)
		}
		hand := make([]Card, handSize)
		copy(hand, deck[i*handSize:(i+1)*handSize])
		players[i] = Player{Name: name, Hand: hand}
	}

	drawPile := deck[len(names)*handSize:]

	first := drawPile[0]
	drawPile = drawPile[1:]
	for retries := 0; first.IsWild() && len(drawPile) > 0 && retries < startingCardRetries; retries++ {
		drawPile = append(drawPile, first)
		first = drawPile[0]
		drawPile = drawPile[1:]
	}

	return GameState{
		Players:       players,
		DrawPile:      drawPile,
		DiscardPile:   []Card{first},
		CurrentPlayer: 0,
		Direction:     1,
		Status:        StatusActive,
	}, nil
}

// Apply runs one transition and returns the successor state. The input is
// never mutated. A rejected action returns the input state unchanged
// alongside the rejection reason, so callers can tell a refusal from an
// accepted no-op.
func Apply(s GameState, action Action) (GameState, error) {
	if s.Status == StatusFinished {
		return s, ErrGameFinished
	}
	if action.Seat() < 0 || action.Seat() >= len(s.Players) {
		return s, ErrUnknownPlayer
	}

	switch a := action.(type) {
	case PlayCard:
		return applyPlay(s, a)
	case DrawCard:
		return applyDraw(s, a)
	case DeclareLastCard:
		return applyDeclare(s, a)
	default:
		return s, fmt.Errorf("uno: unknown action kind %q", action.Kind())
	}
}

func applyPlay(s GameState, a PlayCard) (GameState, error) {
	if a.Player != s.CurrentPlayer {
		return s, ErrNotYourTurn
	}

	hand := s.Players[a.Player].Hand
	cardIdx := -1
	for i, c := range hand {
		if c.ID == a.CardID {
			cardIdx = i
			break
		}
	}
	if cardIdx == -1 {
		return s, ErrCardNotHeld
	}

	card := hand[cardIdx]
	top, _ := s.TopCard()
	if !CanPlay(card, top) {
		return s, ErrIllegalCard
	}

	if card.IsWild() {
		switch a.ChosenColor {
		case ColorRed, ColorGreen, ColorBlue, ColorYellow:
		case "":
			return s, ErrColorRequired
		default:
			return s, ErrInvalidColor
		}
	}

	next := s.clone()
	player := &next.Players[a.Player]

	// Wilds hit the discard pile wearing the chosen color so later legality
	// checks match against it.
	discarded := card
	if card.IsWild() {
		discarded.Color = a.ChosenColor
	}

	player.Hand = append(player.Hand[:cardIdx], player.Hand[cardIdx+1:]...)
	next.DiscardPile = append(next.DiscardPile, discarded)

	if len(player.Hand) != 1 {
		player.DeclaredLastCard = false
	}

	next.LastAction = &LastAction{Kind: ActionPlay, Player: a.Player, Card: &discarded}

	if len(player.Hand) == 0 {
		winner := a.Player
		next.Status = StatusFinished
		next.Winner = &winner
		return next, nil
	}

	switch card.Rank {
	case RankDrawTwo:
		next.forceDraw(next.nextIndex(a.Player, 1), 2)
	case RankWildDrawFour:
		next.forceDraw(next.nextIndex(a.Player, 1), 4)
	case RankSkip:
		next.CurrentPlayer = next.nextIndex(a.Player, 2)
	case RankReverse:
		next.Direction = -next.Direction
		next.CurrentPlayer = next.nextIndex(a.Player, 1)
	default:
		next.CurrentPlayer = next.nextIndex(a.Player, 1)
	}

	return next, nil
}

// forceDraw hands count cards to the victim and skips them. Draws stop early
// when the pile runs dry; the skip still applies.
func (s *GameState) forceDraw(victim, count int) {
	hand := s.Players[victim].Hand
	for i := 0; i < count && len(s.DrawPile) > 0; i++ {
		hand = append(hand, s.DrawPile[0])
		s.DrawPile = s.DrawPile[1:]
	}
	s.Players[victim].Hand = hand
	s.CurrentPlayer = s.nextIndex(victim, 1)
}

func applyDraw(s GameState, a DrawCard) (GameState, error) {
	if a.Player != s.CurrentPlayer {
		return s, ErrNotYourTurn
	}

	next := s.clone()

	// An exhausted pile degrades to a recorded no-op. The discard pile is
	// deliberately never reshuffled back in.
	if len(next.DrawPile) == 0 {
		next.LastAction = &LastAction{Kind: ActionDraw, Player: a.Player}
		return next, nil
	}

	card := next.DrawPile[0]
	next.DrawPile = next.DrawPile[1:]
	next.Players[a.Player].Hand = append(next.Players[a.Player].Hand, card)
	next.LastAction = &LastAction{Kind: ActionDraw, Player: a.Player, Card: &card}

	return next, nil
}

func applyDeclare(s GameState, a DeclareLastCard) (GameState, error) {
	next := s.clone()
	if len(next.Players[a.Player].Hand) == 1 {
		next.Players[a.Player].DeclaredLastCard = true
	}
	next.LastAction = &LastAction{Kind: ActionDeclare, Player: a.Player}
	return next, nil
}
