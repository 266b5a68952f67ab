package uno

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DisplayStyles contains styling for rendering game state in a terminal.
type DisplayStyles struct {
	Red       lipgloss.Style
	Green     lipgloss.Style
	Blue      lipgloss.Style
	Yellow    lipgloss.Style
	Wild      lipgloss.Style
	Header    lipgloss.Style
	Turn      lipgloss.Style
	Winner    lipgloss.Style
	Separator lipgloss.Style
}

// NewDisplayStyles creates the default style set.
func NewDisplayStyles() *DisplayStyles {
	return &DisplayStyles{
		Red:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Green:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Blue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF")).Bold(true),
		Yellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		Wild: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		Turn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Winner:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}

func (ds *DisplayStyles) cardStyle(c Card) lipgloss.Style {
	switch c.Color {
	case ColorRed:
		return ds.Red
	case ColorGreen:
		return ds.Green
	case ColorBlue:
		return ds.Blue
	case ColorYellow:
		return ds.Yellow
	default:
		return ds.Wild
	}
}

// RenderCard renders a single card, e.g. "[red 7]" in the card's color.
func (ds *DisplayStyles) RenderCard(c Card) string {
	label := fmt.Sprintf("[%s %s]", c.Color, c.Rank)
	return ds.cardStyle(c).Render(label)
}

// RenderHand renders a numbered hand on one line.
func (ds *DisplayStyles) RenderHand(hand []Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = fmt.Sprintf("%d:%s", i+1, ds.RenderCard(c))
	}
	return strings.Join(parts, " ")
}

// RenderState renders the table from one player's point of view. Other
// players' hands show only their card counts.
func (ds *DisplayStyles) RenderState(s GameState, viewer int) string {
	var b strings.Builder

	if top, ok := s.TopCard(); ok {
		b.WriteString("Top card: " + ds.RenderCard(top) + "\n")
	}
	b.WriteString(fmt.Sprintf("Draw pile: %d cards\n", len(s.DrawPile)))
	b.WriteString(ds.Separator.Render(strings.Repeat("-", 40)) + "\n")

	for i, p := range s.Players {
		marker := "  "
		if i == s.CurrentPlayer && s.Status == StatusActive {
			marker = ds.Turn.Render("> ")
		}
		if i == viewer {
			b.WriteString(fmt.Sprintf("%s%s (you)\n", marker, p.Name))
			b.WriteString("    " + ds.RenderHand(p.Hand) + "\n")
		} else {
			declared := ""
			if p.DeclaredLastCard {
				declared = " (declared last card)"
			}
			b.WriteString(fmt.Sprintf("%s%s: %d cards%s\n", marker, p.Name, len(p.Hand), declared))
		}
	}

	if s.Status == StatusFinished && s.Winner != nil {
		b.WriteString(ds.Winner.Render(fmt.Sprintf("%s wins!", s.Players[*s.Winner].Name)) + "\n")
	}

	return b.String()
}
