package domain

// CardType classifies catalog cards.
type CardType string

const (
	CardTypeUnit      CardType = "UNIT"
	CardTypeEvent     CardType = "EVENT"
	CardTypeSupporter CardType = "SUPPORTER"
)

// ValidCardType reports whether t is a known catalog card type.
func ValidCardType(t CardType) bool {
	switch t {
	case CardTypeUnit, CardTypeEvent, CardTypeSupporter:
		return true
	}
	return false
}

// Color is a card's resource color. ColorReiki marks generated resource cards.
type Color string

const (
	ColorBlue   Color = "BLUE"
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
	ColorReiki  Color = "REIKI"
)

// ResourceColors are the four colors a reiki deck can be built from.
var ResourceColors = [4]Color{ColorBlue, ColorRed, ColorYellow, ColorGreen}

// Position identifies one of the three base/field columns.
type Position string

const (
	PositionLeft   Position = "LEFT"
	PositionCenter Position = "CENTER"
	PositionRight  Position = "RIGHT"
)

// Positions lists the columns in board order.
var Positions = [3]Position{PositionLeft, PositionCenter, PositionRight}

// ValidPosition reports whether p names a board column.
func ValidPosition(p Position) bool {
	return p == PositionLeft || p == PositionCenter || p == PositionRight
}

// Card is a single card instance. ID is unique per instance; CatalogID is the
// printed card it was built from, shared by up to four copies in a deck.
// Cards are value types: copying a zone slice detaches its cards.
type Card struct {
	ID        string   `json:"id"`
	CatalogID string   `json:"catalog_id"`
	Name      string   `json:"name"`
	Type      CardType `json:"type"`
	Color     Color    `json:"color"`
	Cost      int      `json:"cost"`
	BP        int      `json:"bp"`
	SP        int      `json:"sp"`
	Text      string   `json:"text,omitempty"`

	// Runtime state. HP starts at BP and carries combat damage between fights.
	HP       int  `json:"hp"`
	HasActed bool `json:"has_acted"`
	CanAct   bool `json:"can_act"`
}

// FieldCard is a card placed on the field, tagged with its column. The first
// card listed at a column is that column's primary occupant.
type FieldCard struct {
	Card
	Position Position `json:"position"`
}
