package setup

import (
	"fmt"

	"github.com/google/uuid"

	"cnptcg/internal/domain"
)

// DeckCard is the deck-builder export format submitted by clients. Cards are
// referenced by catalog id here; instance ids are minted on conversion.
type DeckCard struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Cost  int    `json:"cost"`
	BP    int    `json:"bp"`
	SP    int    `json:"sp"`
	Color string `json:"color"`
	Text  string `json:"text,omitempty"`
}

// DeckValidation is the full result of checking a submitted deck list.
type DeckValidation struct {
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	CardCount int      `json:"card_count"`
}

// ValidateDeck checks a deck list against construction rules and reports
// every violation, not just the first.
func ValidateDeck(cards []DeckCard) DeckValidation {
	var errs []string

	if len(cards) != domain.DeckSize {
		errs = append(errs, fmt.Sprintf("deck must contain exactly %d cards (got %d)", domain.DeckSize, len(cards)))
	}

	counts := make(map[string]int, len(cards))
	var order []string
	for _, c := range cards {
		if counts[c.ID] == 0 {
			order = append(order, c.ID)
		}
		counts[c.ID]++
	}
	for _, id := range order {
		if counts[id] > domain.MaxCopiesPerCard {
			name := id
			for _, c := range cards {
				if c.ID == id {
					name = c.Name
					break
				}
			}
			errs = append(errs, fmt.Sprintf("at most %d copies of %q allowed (got %d)", domain.MaxCopiesPerCard, name, counts[id]))
		}
	}

	for _, c := range cards {
		if !domain.ValidCardType(domain.CardType(c.Type)) {
			errs = append(errs, fmt.Sprintf("invalid card type: %q", c.Type))
		}
		if c.ID == "" || c.Name == "" {
			errs = append(errs, "card is missing id or name")
		}
		if c.Cost < 0 {
			errs = append(errs, fmt.Sprintf("card %q has a negative cost", c.Name))
		}
	}

	return DeckValidation{
		Valid:     len(errs) == 0,
		Errors:    errs,
		CardCount: len(cards),
	}
}

// BuildDeck converts a validated deck list into domain cards, minting a
// unique instance id per copy so each physical card is addressable.
func BuildDeck(cards []DeckCard) []domain.Card {
	out := make([]domain.Card, len(cards))
	for i, c := range cards {
		out[i] = convertCard(c)
	}
	return out
}

func convertCard(c DeckCard) domain.Card {
	return domain.Card{
		ID:        uuid.NewString(),
		CatalogID: c.ID,
		Name:      c.Name,
		Type:      domain.CardType(c.Type),
		Color:     mapColor(c.Color),
		Cost:      c.Cost,
		BP:        c.BP,
		SP:        c.SP,
		Text:      c.Text,
		HP:        c.BP,
	}
}

// mapColor accepts the deck builder's lowercase color names. Anything
// unrecognized falls back to the reiki attribute.
func mapColor(color string) domain.Color {
	switch color {
	case "blue":
		return domain.ColorBlue
	case "red":
		return domain.ColorRed
	case "yellow":
		return domain.ColorYellow
	case "green":
		return domain.ColorGreen
	}
	return domain.ColorReiki
}
