package uno

import (
	"math/rand"

	"github.com/google/uuid"
)

// Color is the face color of a card. Wild cards carry ColorWild until they
// are played, at which point the discard records the color the player chose.
type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorWild   Color = "wild"
)

// Colors lists the four playable colors, in deck-construction order.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// Rank is the face value of a card.
type Rank string

const (
	RankSkip         Rank = "skip"
	RankDrawTwo      Rank = "+2"
	RankReverse      Rank = "reverse"
	RankWild         Rank = "wild"
	RankWildDrawFour Rank = "+4"
)

var numberRanks = []Rank{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Card is a single physical card. Immutable once created; the instance ID
// distinguishes the two copies of each face in the deck.
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Rank  Rank   `json:"rank"`
}

// IsWild reports whether the card is a wild or wild-draw-four still carrying
// its colorless face.
func (c Card) IsWild() bool {
	return c.Color == ColorWild
}

// DeckSize is the fixed size of a full deck. Card count is conserved for the
// lifetime of a game: cards move between piles and hands but are never
// created or destroyed.
const DeckSize = 108

func newCard(color Color, rank Rank) Card {
	return Card{ID: uuid.NewString(), Color: color, Rank: rank}
}

// NewDeck builds the full 108-card deck and shuffles it with the supplied
// RNG. Per color: one 0, two of each 1-9, two each of skip, +2 and reverse.
// Plus four colorless wilds and four wild-draw-fours.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, DeckSize)

	for _, color := range Colors {
		for _, rank := range numberRanks {
			deck = append(deck, newCard(color, rank))
			if rank != "0" {
				deck = append(deck, newCard(color, rank))
			}
		}
		for _, rank := range []Rank{RankSkip, RankDrawTwo, RankReverse} {
			deck = append(deck, newCard(color, rank))
			deck = append(deck, newCard(color, rank))
		}
	}

	for _, rank := range []Rank{RankWild, RankWildDrawFour} {
		for i := 0; i < 4; i++ {
			deck = append(deck, newCard(ColorWild, rank))
		}
	}

	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck
}

// CanPlay reports whether card is legal on top of the current discard.
// Wild-faced cards always play; everything else needs a color or rank match.
func CanPlay(card, top Card) bool {
	if card.IsWild() {
		return true
	}
	return card.Color == top.Color || card.Rank == top.Rank
}
