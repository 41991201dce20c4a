package domain

// Tuning values fixed by the card game's rules.
const (
	// DeckSize is the exact number of cards a legal deck contains.
	DeckSize = 50

	// MaxCopiesPerCard caps copies of one catalog card in a deck.
	MaxCopiesPerCard = 4

	// HandLimit caps the hand; the explicit draw refuses past it and the
	// automatic turn draw discards past it.
	HandLimit = 10

	// OpeningHandSize is dealt before the mulligan.
	OpeningHandSize = 5

	// ReikiDeckSize is the exact total of a reiki color split.
	ReikiDeckSize = 15

	// BaseCount, BaseMaxHealth and GaugePerBase shape each player's bases.
	BaseCount     = 3
	BaseMaxHealth = 2
	GaugePerBase  = 2

	// BasesToWin is how many enemy bases destroyed ends the duel.
	BasesToWin = 2
)
