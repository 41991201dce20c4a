package setup

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"cnptcg/internal/domain"
)

// ReikiConfig is a player's reiki deck color split. Total must match the sum
// and both must equal the fixed reiki deck size.
type ReikiConfig struct {
	Blue   int `json:"blue"`
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
	Total  int `json:"total"`
}

// Validate checks the split for negative counts and the exact total.
func (c ReikiConfig) Validate() error {
	if c.Blue < 0 || c.Red < 0 || c.Yellow < 0 || c.Green < 0 {
		return fmt.Errorf("reiki counts must not be negative")
	}
	sum := c.Blue + c.Red + c.Yellow + c.Green
	if sum != domain.ReikiDeckSize {
		return fmt.Errorf("reiki counts must sum to %d (got %d)", domain.ReikiDeckSize, sum)
	}
	if c.Total != domain.ReikiDeckSize {
		return fmt.Errorf("reiki total must be %d (got %d)", domain.ReikiDeckSize, c.Total)
	}
	return nil
}

// Levels returns the split as acquired reiki levels.
func (c ReikiConfig) Levels() domain.ReikiLevels {
	return domain.ReikiLevels{Blue: c.Blue, Red: c.Red, Yellow: c.Yellow, Green: c.Green}
}

// BuildReikiDeck generates and shuffles the reiki deck for a config. Reiki
// cards are cost-zero events with no combat stats.
func BuildReikiDeck(c ReikiConfig, rng *rand.Rand) []domain.Card {
	deck := make([]domain.Card, 0, domain.ReikiDeckSize)
	add := func(color domain.Color, n int) {
		for i := 0; i < n; i++ {
			deck = append(deck, domain.Card{
				ID:        uuid.NewString(),
				CatalogID: "reiki-" + string(color),
				Name:      "Reiki (" + string(color) + ")",
				Type:      domain.CardTypeEvent,
				Color:     color,
			})
		}
	}
	add(domain.ColorBlue, c.Blue)
	add(domain.ColorRed, c.Red)
	add(domain.ColorYellow, c.Yellow)
	add(domain.ColorGreen, c.Green)

	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
